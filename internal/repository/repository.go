package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"relay_hub/internal/models"
)

// Document keys held by the DocumentStore.
const (
	KeyModes      = "modes"
	KeySnapshot   = "snapshot"
	KeyRefresh    = "refresh"
	KeyThresholds = "thresholds"
)

var (
	// ErrNotFound is returned by DocumentStore.Get for an absent document.
	ErrNotFound = errors.New("document not found")
	// ErrCorruptDocument wraps decode failures of a stored document.
	ErrCorruptDocument = errors.New("corrupt document")
)

// DocumentStore holds whole JSON documents by key. Put replaces a document
// atomically; when it returns an error the previous document is still in place.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, doc []byte) error
	Close() error
}

type ModeRepo interface {
	LoadModes(ctx context.Context) (models.ModeMap, error)
	SaveModes(ctx context.Context, m models.ModeMap) error
}

type SnapshotRepo interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, s models.Snapshot) error
}

type RefreshRepo interface {
	LoadToken(ctx context.Context) (time.Time, error)
	SaveToken(ctx context.Context, token time.Time) error
}

type ThresholdRepo interface {
	LoadThresholds(ctx context.Context) (models.Thresholds, error)
	SaveThresholds(ctx context.Context, t models.Thresholds) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.RelayEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RelayEvent, error)
}

type Repository struct {
	ModeRepo      ModeRepo
	SnapshotRepo  SnapshotRepo
	RefreshRepo   RefreshRepo
	ThresholdRepo ThresholdRepo
	EventRepo     EventRepo
}

// NewRepository wires the document repos over docs and the event log over db.
func NewRepository(db *sql.DB, docs DocumentStore) *Repository {
	d := NewDocuments(docs)
	return &Repository{
		ModeRepo:      d,
		SnapshotRepo:  d,
		RefreshRepo:   d,
		ThresholdRepo: d,
		EventRepo:     NewEventSQLite(db),
	}
}

// runWithContext runs fn and gives up when ctx is done. Backends whose APIs
// do not take a context use it for reads only: an abandoned write could still
// land after the caller was told it failed.
func runWithContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
