package repository

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketDocuments = []byte("documents")

// boltOpenTimeout bounds the wait for the file lock held by another process.
const boltOpenTimeout = 5 * time.Second

// DocumentBolt stores documents in a single bbolt bucket.
type DocumentBolt struct {
	db *bolt.DB
}

var _ DocumentStore = (*DocumentBolt)(nil)

// NewDocumentBolt opens or creates a bbolt database at path.
func NewDocumentBolt(path string) (*DocumentBolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &DocumentBolt{db: db}, nil
}

func (s *DocumentBolt) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := runWithContext(ctx, func() error {
		return s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketDocuments)
			if b == nil {
				return fmt.Errorf("bucket %q not found", bucketDocuments)
			}
			data := b.Get([]byte(key))
			if data == nil {
				return fmt.Errorf("%s: %w", key, ErrNotFound)
			}
			// data is only valid inside the transaction
			out = append([]byte(nil), data...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put waits for the bbolt write lock. A write that only got the lock after
// ctx expired is rolled back, so a returned error always means nothing changed.
func (s *DocumentBolt) Put(ctx context.Context, key string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketDocuments)
		}
		return b.Put([]byte(key), doc)
	})
}

func (s *DocumentBolt) Close() error {
	return s.db.Close()
}
