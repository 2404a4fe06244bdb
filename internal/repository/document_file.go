package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// DocumentFile keeps each document in <dir>/<key>.json and replaces it
// with write-to-temp, fsync, rename.
type DocumentFile struct {
	dir string
}

var _ DocumentStore = (*DocumentFile)(nil)

var validDocumentKey = regexp.MustCompile(`^[a-z0-9_-]+$`)

// NewDocumentFile creates dir if needed.
func NewDocumentFile(dir string) (*DocumentFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir %q: %w", dir, err)
	}
	return &DocumentFile{dir: dir}, nil
}

func (s *DocumentFile) path(key string) (string, error) {
	if !validDocumentKey.MatchString(key) {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *DocumentFile) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = runWithContext(ctx, func() error {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		out = data
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DocumentFile) Put(ctx context.Context, key string, doc []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(ctx, s.dir, p, doc)
}

func (s *DocumentFile) Close() error { return nil }

// writeFileAtomic leaves either the old or the new content at target, never a
// torn file. ctx is checked right before the rename, the only step that commits.
func writeFileAtomic(ctx context.Context, dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	// Persist the rename itself; not every platform supports syncing a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
