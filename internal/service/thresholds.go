package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/repository"
)

// changeNotifier bumps the device refresh token.
type changeNotifier interface {
	NotifyChange(ctx context.Context) time.Time
}

// ThresholdService stores the device's control thresholds. The values are
// opaque here; the device interprets them.
type ThresholdService struct {
	repo         repository.ThresholdRepo
	notifier     changeNotifier
	events       *eventRecorder
	storeTimeout time.Duration
}

func NewThresholdService(repo repository.ThresholdRepo, notifier changeNotifier, events *eventRecorder, storeTimeout time.Duration) *ThresholdService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &ThresholdService{repo: repo, notifier: notifier, events: events, storeTimeout: storeTimeout}
}

func (s *ThresholdService) GetThresholds(ctx context.Context) (models.Thresholds, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	t, err := s.repo.LoadThresholds(ctx)
	if err != nil {
		return nil, storeErr("load thresholds", err)
	}
	return t, nil
}

// SetThresholds replaces the stored thresholds and signals the device to re-fetch.
// Keys and values are trimmed; empty keys are dropped.
func (s *ThresholdService) SetThresholds(ctx context.Context, t models.Thresholds) (models.Thresholds, error) {
	clean := make(models.Thresholds, len(t))
	for k, v := range t {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		clean[k] = strings.TrimSpace(v)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err := s.repo.SaveThresholds(sctx, clean)
	cancel()
	if err != nil {
		return nil, storeErr("save thresholds", err)
	}

	token := s.notifier.NotifyChange(ctx)
	s.events.record(ctx, models.RelayEvent{
		Type:        models.EventThresholds,
		Description: fmt.Sprintf("thresholds updated (%d values)", len(clean)),
		Metadata:    map[string]any{"refresh_token": token.UnixMilli()},
	})
	return clean, nil
}
