// Package id generates lexically sortable identifiers.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULIDs that are strictly increasing within one process,
// even when several are created in the same millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator returns a generator seeded from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns the next id stamped with at.
func (g *Generator) New(at time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	value, err := ulid.New(ulid.Timestamp(at), g.entropy)
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// Time extracts the millisecond timestamp encoded in id.
func Time(id string) (time.Time, error) {
	value, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(value.Time()), nil
}
