package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/flatline/internal/services/game/storage"
	storagebbolt "github.com/louisbranch/flatline/internal/services/game/storage/bbolt"
	"github.com/louisbranch/flatline/internal/services/game/storage/memory"
	storagesqlite "github.com/louisbranch/flatline/internal/services/game/storage/sqlite"
)

// Storage backends selectable through Options.Storage.
const (
	StorageBBolt  = "bbolt"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// openStore opens the KV backend named kind at path.
func openStore(kind, path string) (storage.KV, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = StorageBBolt
	}
	if kind == StorageMemory {
		return memory.New(), nil
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "flatline.db")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	switch kind {
	case StorageBBolt:
		store, err := storagebbolt.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bbolt store: %w", err)
		}
		return store, nil
	case StorageSQLite:
		store, err := storagesqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage backend %q is not supported", kind)
	}
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}
