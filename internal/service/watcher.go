package service

import (
	"context"
	"time"

	"relay_hub/internal/logger"
	"relay_hub/internal/models"
)

// DefaultWatchInterval is how often the connectivity watcher samples liveness.
const DefaultWatchInterval = time.Second

type connectivitySource interface {
	Connectivity() models.Connectivity
}

// ConnectivityWatcher turns the derived online flag into edge events: each
// online/offline transition is logged, recorded and published.
type ConnectivityWatcher struct {
	source connectivitySource
	events *eventRecorder
	pub    Publisher
	log    *logger.Logger

	// the device starts offline after a restart
	online bool
}

func NewConnectivityWatcher(source connectivitySource, events *eventRecorder, pub Publisher, log *logger.Logger) *ConnectivityWatcher {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &ConnectivityWatcher{source: source, events: events, pub: pub, log: log.Named("watcher")}
}

// Run ticks at the given interval until ctx is canceled.
func (w *ConnectivityWatcher) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultWatchInterval
	}
	w.pub.PublishAvailability(false)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.check(ctx)
		}
	}
}

// check compares the current status with the last one seen; returns true on a transition.
func (w *ConnectivityWatcher) check(ctx context.Context) bool {
	c := w.source.Connectivity()
	if c.Online == w.online {
		return false
	}
	w.online = c.Online

	status := "offline"
	if c.Online {
		status = "online"
	}
	if w.log != nil {
		w.log.Infow("device_connectivity_changed", "status", status, "last_seen", c.LastSeenAt)
	}
	w.events.record(ctx, models.RelayEvent{
		Type:        models.EventConnectivity,
		Description: "device " + status,
		Metadata:    map[string]any{"online": c.Online, "last_seen": c.LastSeenAt.UTC().Format(time.RFC3339)},
	})
	w.pub.PublishAvailability(c.Online)
	return true
}
