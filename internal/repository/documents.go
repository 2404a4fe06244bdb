package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"relay_hub/internal/models"
)

// Documents implements the typed repos on top of a DocumentStore.
type Documents struct {
	store DocumentStore
}

func NewDocuments(store DocumentStore) *Documents {
	return &Documents{store: store}
}

var (
	_ ModeRepo      = (*Documents)(nil)
	_ SnapshotRepo  = (*Documents)(nil)
	_ RefreshRepo   = (*Documents)(nil)
	_ ThresholdRepo = (*Documents)(nil)
)

// get returns (nil, nil) for a missing document.
func (d *Documents) get(ctx context.Context, key string) ([]byte, error) {
	data, err := d.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (d *Documents) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := d.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// LoadModes returns the stored mode map. Entries whose value is not a valid
// mode token are left out so the caller backfills them. A missing document
// yields an empty map.
func (d *Documents) LoadModes(ctx context.Context) (models.ModeMap, error) {
	data, err := d.get(ctx, KeyModes)
	if err != nil || data == nil {
		return models.ModeMap{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.ModeMap{}, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, KeyModes, err)
	}
	out := make(models.ModeMap, len(raw))
	for k, v := range raw {
		token, ok := v.(string)
		if !ok {
			continue
		}
		if mode, ok := models.ParseRelayMode(token); ok {
			out[models.RelayID(k)] = mode
		}
	}
	return out, nil
}

func (d *Documents) SaveModes(ctx context.Context, m models.ModeMap) error {
	return d.put(ctx, KeyModes, m)
}

// LoadSnapshot returns the stored snapshot; found is false when none is stored.
func (d *Documents) LoadSnapshot(ctx context.Context) (models.Snapshot, bool, error) {
	data, err := d.get(ctx, KeySnapshot)
	if err != nil || data == nil {
		return models.Snapshot{}, false, err
	}
	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, KeySnapshot, err)
	}
	return s, true, nil
}

func (d *Documents) SaveSnapshot(ctx context.Context, s models.Snapshot) error {
	return d.put(ctx, KeySnapshot, s)
}

// LoadToken returns the persisted refresh token, zero if none.
func (d *Documents) LoadToken(ctx context.Context) (time.Time, error) {
	data, err := d.get(ctx, KeyRefresh)
	if err != nil || data == nil {
		return time.Time{}, err
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, KeyRefresh, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// SaveToken stores the token as unix milliseconds.
func (d *Documents) SaveToken(ctx context.Context, token time.Time) error {
	return d.put(ctx, KeyRefresh, token.UnixMilli())
}

// LoadThresholds returns stored thresholds; non-string values are stringified.
func (d *Documents) LoadThresholds(ctx context.Context) (models.Thresholds, error) {
	data, err := d.get(ctx, KeyThresholds)
	if err != nil || data == nil {
		return models.Thresholds{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Thresholds{}, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, KeyThresholds, err)
	}
	out := make(models.Thresholds, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case nil:
		default:
			out[k] = fmt.Sprint(tv)
		}
	}
	return out, nil
}

func (d *Documents) SaveThresholds(ctx context.Context, t models.Thresholds) error {
	return d.put(ctx, KeyThresholds, t)
}
