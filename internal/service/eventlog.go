package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"relay_hub/internal/logger"
	"relay_hub/internal/models"
	"relay_hub/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	return from, to, normalizeEventType(f.Type), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.RelayEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// eventRecorder appends audit events best-effort: a failed append is logged,
// never returned, so it cannot fail the operation that produced it.
type eventRecorder struct {
	repo repository.EventRepo
	log  *logger.Logger
}

func newEventRecorder(repo repository.EventRepo, log *logger.Logger) *eventRecorder {
	return &eventRecorder{repo: repo, log: log}
}

func (r *eventRecorder) record(ctx context.Context, e models.RelayEvent) {
	if r == nil || r.repo == nil {
		return
	}
	// detached from request cancellation, bounded on its own
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultStoreTimeout)
	defer cancel()
	if err := r.repo.Append(ctx, e); err != nil && r.log != nil {
		r.log.Warnw("event_append_failed", "type", e.Type, "err", err)
	}
}
