// Package bbolt stores flatline documents in a single BoltDB bucket.
package bbolt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/flatline/internal/services/game/storage"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("flatline")

// Store is a storage.KV over one BoltDB file. Bolt allows a single writer
// per file, so a second process blocks for up to a second and then fails.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put overwrites key. Each call commits its own transaction.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.run(ctx, key, true, func(b *bbolt.Bucket) error {
		return b.Put([]byte(key), value)
	})
}

// Get copies the value out of the read transaction.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.run(ctx, key, false, func(b *bbolt.Bucket) error {
		raw := b.Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		value = append([]byte(nil), raw...)
		return nil
	})
	return value, err
}

func (s *Store) run(ctx context.Context, key string, write bool, fn func(*bbolt.Bucket) error) error {
	if err := storage.CheckKey(ctx, key); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return storage.ErrNotConfigured
	}
	txFn := func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("bucket %q is missing", bucketName)
		}
		return fn(b)
	}
	if write {
		return s.db.Update(txFn)
	}
	return s.db.View(txFn)
}
