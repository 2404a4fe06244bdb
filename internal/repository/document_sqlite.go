package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DocumentSQLite stores documents as rows of the documents table.
type DocumentSQLite struct {
	db *sql.DB
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

var _ DocumentStore = (*DocumentSQLite)(nil)

const (
	upsertDocumentSQL = `
		INSERT INTO documents (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectDocumentSQL = `SELECT body FROM documents WHERE key=?`
)

// Get fetches one document body.
func (r *DocumentSQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := r.db.QueryRowContext(ctx, selectDocumentSQL, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(body), nil
}

// Put upserts a document in a single statement.
func (r *DocumentSQLite) Put(ctx context.Context, key string, doc []byte) error {
	_, err := r.db.ExecContext(ctx, upsertDocumentSQL, key, string(doc), time.Now().UTC())
	return err
}

// Close is a no-op; the *sql.DB is owned by main and shared with the event log.
func (r *DocumentSQLite) Close() error { return nil }
