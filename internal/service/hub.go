package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"relay_hub/internal/logger"
	"relay_hub/internal/models"
	"relay_hub/internal/repository"
)

// DefaultStoreTimeout bounds a single persistence call.
const DefaultStoreTimeout = 2 * time.Second

// HubConfig holds the tunables of the hub.
type HubConfig struct {
	Relays        []models.RelayID
	OnlineTimeout time.Duration
	StoreTimeout  time.Duration
}

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithClock replaces time.Now, for tests that simulate elapsed time.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// Hub owns the process-wide relay state: mode map, raw and projected
// snapshot, device liveness and refresh token. One mutex covers all of them
// so a projection never sees a half-applied mode change or report.
type Hub struct {
	modeRepo     repository.ModeRepo
	snapshotRepo repository.SnapshotRepo
	refreshRepo  repository.RefreshRepo
	events       *eventRecorder
	pub          Publisher
	log          *logger.Logger
	now          func() time.Time

	relays       []models.RelayID
	known        map[models.RelayID]struct{}
	storeTimeout time.Duration

	mu       sync.Mutex
	modes    models.ModeMap
	snapshot models.Snapshot
	display  models.Snapshot
	liveness liveness
	refresh  refreshToken
	stateSeq uint64

	// pubMu serializes notifications. The state and refresh topics are
	// retained, so one that lost the race to a newer one is dropped.
	pubMu          sync.Mutex
	publishedState uint64
	publishedToken time.Time
}

func NewHub(
	modeRepo repository.ModeRepo,
	snapshotRepo repository.SnapshotRepo,
	refreshRepo repository.RefreshRepo,
	events *eventRecorder,
	pub Publisher,
	log *logger.Logger,
	cfg HubConfig,
	opts ...HubOption,
) *Hub {
	relays := cfg.Relays
	if len(relays) == 0 {
		relays = models.DefaultRelayIDs
	}
	if cfg.OnlineTimeout <= 0 {
		cfg.OnlineTimeout = DefaultOnlineTimeout
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if pub == nil {
		pub = NopPublisher{}
	}

	known := make(map[models.RelayID]struct{}, len(relays))
	for _, id := range relays {
		known[id] = struct{}{}
	}

	h := &Hub{
		modeRepo:     modeRepo,
		snapshotRepo: snapshotRepo,
		refreshRepo:  refreshRepo,
		events:       events,
		pub:          pub,
		log:          log.Named("hub"),
		now:          time.Now,
		relays:       relays,
		known:        known,
		storeTimeout: cfg.StoreTimeout,
		modes:        models.NewModeMap(relays),
		snapshot:     models.DefaultSnapshot(relays),
		liveness:     liveness{timeout: cfg.OnlineTimeout},
	}
	h.display = Project(h.modes, h.snapshot)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// storeCtx bounds one persistence call.
func (h *Hub) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.storeTimeout)
}

// Load rebuilds the in-memory state from the store. Missing or invalid
// mode entries are backfilled to auto and written back; an absent or
// corrupt snapshot becomes the all-off default.
func (h *Hub) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	modes, err := h.loadModes(ctx)
	if err != nil {
		return err
	}
	snap, err := h.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	h.modes = modes
	h.snapshot = snap
	h.display = Project(modes, snap)
	h.liveness.lastSeen = time.Time{}

	// Start from the persisted token so a clock that went backwards over a
	// restart still yields a token the device sees as newer.
	sctx, cancel := h.storeCtx(ctx)
	prev, err := h.refreshRepo.LoadToken(sctx)
	cancel()
	if err != nil {
		h.warn("refresh_token_load_failed", "err", err)
	}
	h.refresh = refreshToken{issuedAt: prev}
	h.persistToken(ctx, h.refresh.bump(h.now()))

	h.info("hub_loaded", "relays", len(h.relays), "modes", modes)
	return nil
}

func (h *Hub) loadModes(ctx context.Context) (models.ModeMap, error) {
	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	stored, err := h.modeRepo.LoadModes(sctx)
	switch {
	case errors.Is(err, repository.ErrCorruptDocument):
		h.warn("modes_document_corrupt", "err", err)
		stored = models.ModeMap{}
	case err != nil:
		return nil, storeErr("load modes", err)
	}

	modes, changed := backfillModes(stored, h.relays)
	if changed {
		if err := h.modeRepo.SaveModes(sctx, modes); err != nil {
			return nil, storeErr("save backfilled modes", err)
		}
		h.info("modes_backfilled", "modes", modes)
	}
	return modes, nil
}

func (h *Hub) loadSnapshot(ctx context.Context) (models.Snapshot, error) {
	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	stored, found, err := h.snapshotRepo.LoadSnapshot(sctx)
	switch {
	case errors.Is(err, repository.ErrCorruptDocument):
		h.warn("snapshot_document_corrupt", "err", err)
		found = false
	case err != nil:
		return models.Snapshot{}, storeErr("load snapshot", err)
	}

	if !found {
		snap := models.DefaultSnapshot(h.relays)
		if err := h.snapshotRepo.SaveSnapshot(sctx, snap); err != nil {
			return models.Snapshot{}, storeErr("save default snapshot", err)
		}
		return snap, nil
	}
	return normalizeSnapshot(stored, h.relays), nil
}

// backfillModes keeps exactly the known relays, defaulting missing ones to auto.
// changed reports whether the result differs from stored.
func backfillModes(stored models.ModeMap, ids []models.RelayID) (models.ModeMap, bool) {
	out := models.NewModeMap(ids)
	changed := len(stored) != len(ids)
	for _, id := range ids {
		if m, ok := stored[id]; ok {
			out[id] = m
		} else {
			changed = true
		}
	}
	return out, changed
}

// normalizeSnapshot restricts relay states to the known relays; missing ones are off.
func normalizeSnapshot(s models.Snapshot, ids []models.RelayID) models.Snapshot {
	out := s
	out.Relays = make(map[models.RelayID]models.RelayState, len(ids))
	for _, id := range ids {
		if st, ok := s.Relays[id]; ok {
			out.Relays[id] = st
		} else {
			out.Relays[id] = models.StateOff
		}
	}
	return out
}

// Report reconciles a device report into a new snapshot and persists it.
// The report counts as a heartbeat. On a store failure the cached snapshot
// is left untouched.
func (h *Hub) Report(ctx context.Context, r models.Report) (models.Snapshot, error) {
	h.mu.Lock()
	now := h.now()
	h.liveness.touch(now)
	if r.ObservedAt.IsZero() {
		r.ObservedAt = now.UTC()
	}

	next := Reconcile(h.modes, r, h.snapshot)

	sctx, cancel := h.storeCtx(ctx)
	err := h.snapshotRepo.SaveSnapshot(sctx, next)
	cancel()
	if err != nil {
		h.mu.Unlock()
		return models.Snapshot{}, storeErr("save snapshot", err)
	}

	h.snapshot = next
	h.display = Project(h.modes, next)
	display := h.display.Clone()
	seq := h.nextStateSeq()
	h.mu.Unlock()

	h.publishState(seq, display)
	return next.Clone(), nil
}

// Heartbeat records device contact without telemetry.
func (h *Hub) Heartbeat() {
	h.mu.Lock()
	h.liveness.touch(h.now())
	h.mu.Unlock()
}

// IsOnline reports whether the device was heard from within the online timeout.
func (h *Hub) IsOnline() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.liveness.online(h.now())
}

// Connectivity returns online status together with the last contact time.
func (h *Hub) Connectivity() models.Connectivity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.liveness.status(h.now())
}

// RefreshToken returns the current change token.
func (h *Hub) RefreshToken() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refresh.current()
}

// GetModeMap returns a copy of the current mode map.
func (h *Hub) GetModeMap(_ context.Context) (models.ModeMap, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modes.Clone(), nil
}

// GetLiveSnapshot returns the projected snapshot.
func (h *Hub) GetLiveSnapshot(_ context.Context) (models.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.display.Clone(), nil
}

// SetMode changes one relay's mode and returns the projected snapshot.
func (h *Hub) SetMode(ctx context.Context, relay, mode string) (models.Snapshot, error) {
	change, err := h.parseChange(relay, mode)
	if err != nil {
		return models.Snapshot{}, err
	}
	return h.applyModes(ctx, []modeChange{change})
}

// SetModes applies several mode changes all-or-nothing: every pair is
// validated before anything is written.
func (h *Hub) SetModes(ctx context.Context, modes map[string]string) (models.Snapshot, error) {
	if len(modes) == 0 {
		return models.Snapshot{}, fmt.Errorf("%w: no relays given", ErrInvalidRelay)
	}

	relays := make([]string, 0, len(modes))
	for r := range modes {
		relays = append(relays, r)
	}
	sort.Strings(relays)

	changes := make([]modeChange, 0, len(relays))
	for _, r := range relays {
		change, err := h.parseChange(r, modes[r])
		if err != nil {
			return models.Snapshot{}, err
		}
		changes = append(changes, change)
	}
	return h.applyModes(ctx, changes)
}

type modeChange struct {
	relay models.RelayID
	mode  models.RelayMode
}

func (h *Hub) parseChange(relay, token string) (modeChange, error) {
	id := models.RelayID(strings.TrimSpace(relay))
	if _, ok := h.known[id]; !ok {
		return modeChange{}, fmt.Errorf("%w: %q", ErrInvalidRelay, relay)
	}
	mode, ok := models.ParseRelayMode(token)
	if !ok {
		return modeChange{}, fmt.Errorf("%w: %q", ErrInvalidMode, token)
	}
	return modeChange{relay: id, mode: mode}, nil
}

// applyModes persists the new mode map, then recomputes the projection, then
// bumps the refresh token, all under the lock.
func (h *Hub) applyModes(ctx context.Context, changes []modeChange) (models.Snapshot, error) {
	h.mu.Lock()
	prev := h.modes
	next := prev.Clone()
	for _, c := range changes {
		next[c.relay] = c.mode
	}

	sctx, cancel := h.storeCtx(ctx)
	err := h.modeRepo.SaveModes(sctx, next)
	cancel()
	if err != nil {
		h.mu.Unlock()
		return models.Snapshot{}, storeErr("save modes", err)
	}

	h.modes = next
	h.display = Project(next, h.snapshot)
	token := h.refresh.bump(h.now())
	h.persistToken(ctx, token)
	display := h.display.Clone()
	seq := h.nextStateSeq()
	h.mu.Unlock()

	for _, c := range changes {
		h.info("relay_mode_set", "relay", c.relay, "from", prev[c.relay], "to", c.mode)
		h.events.record(ctx, models.RelayEvent{
			Type:        models.EventModeChange,
			Description: fmt.Sprintf("%s mode changed to %s", c.relay, c.mode),
			Metadata: map[string]any{
				"relay": string(c.relay),
				"from":  string(prev[c.relay]),
				"to":    string(c.mode),
			},
		})
	}
	h.publishRefresh(token)
	h.publishState(seq, display)
	return display, nil
}

// NotifyChange bumps the refresh token for changes outside the mode map.
func (h *Hub) NotifyChange(ctx context.Context) time.Time {
	h.mu.Lock()
	token := h.refresh.bump(h.now())
	h.persistToken(ctx, token)
	h.mu.Unlock()

	h.publishRefresh(token)
	return token
}

// persistToken writes the token best-effort; it is re-issued on every start anyway.
// Callers hold the lock.
func (h *Hub) persistToken(ctx context.Context, token time.Time) {
	sctx, cancel := h.storeCtx(ctx)
	defer cancel()
	if err := h.refreshRepo.SaveToken(sctx, token); err != nil {
		h.warn("refresh_token_save_failed", "err", err)
	}
}

// nextStateSeq numbers display changes in lock order. Callers hold the lock.
func (h *Hub) nextStateSeq() uint64 {
	h.stateSeq++
	return h.stateSeq
}

func (h *Hub) publishState(seq uint64, display models.Snapshot) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()
	if seq <= h.publishedState {
		return
	}
	h.publishedState = seq
	h.pub.PublishState(display)
}

func (h *Hub) publishRefresh(token time.Time) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()
	if !token.After(h.publishedToken) {
		return
	}
	h.publishedToken = token
	h.pub.PublishRefresh(token)
}

func (h *Hub) info(msg string, kv ...interface{}) {
	if h.log != nil {
		h.log.Infow(msg, kv...)
	}
}

func (h *Hub) warn(msg string, kv ...interface{}) {
	if h.log != nil {
		h.log.Warnw(msg, kv...)
	}
}
