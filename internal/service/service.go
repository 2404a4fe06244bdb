package service

import (
	"context"
	"fmt"
	"time"

	"relay_hub/internal/logger"
	"relay_hub/internal/models"
	"relay_hub/internal/repository"
)

// Relays exposes operator intent: read the mode map and change modes.
type Relays interface {
	GetModeMap(ctx context.Context) (models.ModeMap, error)
	SetMode(ctx context.Context, relay, mode string) (models.Snapshot, error)
	SetModes(ctx context.Context, modes map[string]string) (models.Snapshot, error)
}

// Device exposes the calls made by the field device.
type Device interface {
	Report(ctx context.Context, r models.Report) (models.Snapshot, error)
	Heartbeat()
	RefreshToken() time.Time
	IsOnline() bool
	Connectivity() models.Connectivity
}

// Monitoring exposes the projected snapshot shown on the dashboard.
type Monitoring interface {
	GetLiveSnapshot(ctx context.Context) (models.Snapshot, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RelayEvent, error)
}

// Thresholds stores operator thresholds the device fetches for its own control loop.
type Thresholds interface {
	GetThresholds(ctx context.Context) (models.Thresholds, error)
	SetThresholds(ctx context.Context, t models.Thresholds) (models.Thresholds, error)
}

// Watcher runs the background connectivity loop.
// Stop via context cancellation in main() for graceful shutdown.
type Watcher interface {
	Run(ctx context.Context, tick time.Duration)
}

// Publisher pushes change notifications to an external broker.
type Publisher interface {
	PublishRefresh(token time.Time)
	PublishState(s models.Snapshot)
	PublishAvailability(online bool)
}

// NopPublisher drops every notification.
type NopPublisher struct{}

func (NopPublisher) PublishRefresh(time.Time)     {}
func (NopPublisher) PublishState(models.Snapshot) {}
func (NopPublisher) PublishAvailability(bool)     {}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "MODE_CHANGE", "CONNECTIVITY", "THRESHOLDS"
}

// Service aggregates all sub-services.
type Service struct {
	Relays
	Device
	Monitoring
	EventLog
	Thresholds
	Watcher
}

// NewService builds the hub, loads persisted state into it and wires the
// remaining services around it.
func NewService(ctx context.Context, repos *repository.Repository, pub Publisher, log *logger.Logger, cfg HubConfig) (*Service, error) {
	if err := models.ValidateRelayIDs(cfg.Relays); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	events := newEventRecorder(repos.EventRepo, log)

	hub := NewHub(repos.ModeRepo, repos.SnapshotRepo, repos.RefreshRepo, events, pub, log, cfg)
	if err := hub.Load(ctx); err != nil {
		return nil, err
	}

	return &Service{
		Relays:     hub,
		Device:     hub,
		Monitoring: hub,
		EventLog:   NewEventLogService(repos.EventRepo),
		Thresholds: NewThresholdService(repos.ThresholdRepo, hub, events, cfg.StoreTimeout),
		Watcher:    NewConnectivityWatcher(hub, events, pub, log),
	}, nil
}
