// Package memory provides an in-process KV backend for tests and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/flatline/internal/services/game/storage"
)

// Store keeps values in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool

	// FailPut, when set, is returned by Put without storing anything.
	FailPut error
	puts    int
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(ctx, key); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, storage.ErrNotConfigured
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("storage is closed")
	}
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put replaces the value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := storage.CheckKey(ctx, key); err != nil {
		return err
	}
	if s == nil {
		return storage.ErrNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	s.puts++
	if s.FailPut != nil {
		return s.FailPut
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Puts reports how many Put calls reached the store, failed ones included.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// SetFailPut swaps the injected Put failure under the lock.
func (s *Store) SetFailPut(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailPut = err
}

// Close marks the store closed.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
