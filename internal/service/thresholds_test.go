package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/repository"
)

type countingNotifier struct {
	calls int
	token time.Time
}

func (n *countingNotifier) NotifyChange(context.Context) time.Time {
	n.calls++
	n.token = n.token.Add(time.Millisecond)
	return n.token
}

func TestThresholdService_SetTrimsAndNotifies(t *testing.T) {
	t.Parallel()

	docs := newMemDocs()
	events := &fakeEventRepo{}
	notifier := &countingNotifier{token: time.UnixMilli(1000)}
	svc := NewThresholdService(repository.NewDocuments(docs), notifier, newEventRecorder(events, nil), 0)
	ctx := context.Background()

	got, err := svc.SetThresholds(ctx, models.Thresholds{" temp_max ": " 28 ", "soil_min": "350", "  ": "x"})
	if err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}
	if len(got) != 2 || got["temp_max"] != "28" || got["soil_min"] != "350" {
		t.Fatalf("cleaned thresholds = %v", got)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
	if len(events.byType(models.EventThresholds)) != 1 {
		t.Fatalf("threshold event not recorded")
	}

	stored, err := svc.GetThresholds(ctx)
	if err != nil {
		t.Fatalf("GetThresholds: %v", err)
	}
	if stored["temp_max"] != "28" || len(stored) != 2 {
		t.Fatalf("stored = %v", stored)
	}
}

func TestThresholdService_StoreFailure(t *testing.T) {
	t.Parallel()

	docs := newMemDocs()
	docs.breakPut(repository.KeyThresholds, errors.New("disk full"))
	docs.failGet[repository.KeyThresholds] = errors.New("io error")
	notifier := &countingNotifier{}
	svc := NewThresholdService(repository.NewDocuments(docs), notifier, nil, time.Second)

	if _, err := svc.SetThresholds(context.Background(), models.Thresholds{"a": "1"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("SetThresholds err = %v, want ErrStoreUnavailable", err)
	}
	if notifier.calls != 0 {
		t.Fatalf("refresh signalled although nothing was stored")
	}
	if _, err := svc.GetThresholds(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("GetThresholds err = %v, want ErrStoreUnavailable", err)
	}
}

func TestThresholdService_BumpsHubToken(t *testing.T) {
	t.Parallel()

	f := newHubFixture(t, nil)
	f.load(t)
	svc := NewThresholdService(repository.NewDocuments(f.docs), f.hub, nil, 0)

	before := f.hub.RefreshToken()
	if _, err := svc.SetThresholds(context.Background(), models.Thresholds{"hum_max": "80"}); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}
	if !f.hub.RefreshToken().After(before) {
		t.Fatalf("threshold update did not bump the refresh token")
	}
}
