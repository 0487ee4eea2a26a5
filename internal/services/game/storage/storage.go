package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

const (
	// SnapshotKey is the fixed key of the operator snapshot.
	SnapshotKey = "flatline_v1"
	// ProfileKey is the fixed key of the profile document.
	ProfileKey = "flatline_profile"
	// SnapshotVersion is the schema version written with every snapshot.
	SnapshotVersion = 1
)

// ErrNotFound indicates nothing has been stored under a key yet.
// Callers treat it as "start from defaults", not as a fault.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrNotConfigured is returned by nil or unopened backends.
var ErrNotConfigured = errors.New("storage is not configured")

// CheckKey is the shared precondition for backend reads and writes.
func CheckKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// ErrCorrupt indicates stored bytes exist but cannot be decoded.
var ErrCorrupt = apperrors.New(apperrors.CodeStorageCorrupt, "stored record is corrupt")

// KV is the byte-level contract every backend implements. Put must replace
// the value atomically; readers never observe a partial write.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Snapshot is the persisted operator record.
type Snapshot struct {
	Version     int          `json:"version"`
	Player      player.State `json:"player"`
	ActionCount int64        `json:"actionCount"`
	SavedAt     int64        `json:"savedAt"`
}

// SnapshotStore loads and saves snapshots.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}

// ProfileStore loads and saves the profile document.
type ProfileStore interface {
	LoadProfile(ctx context.Context) (player.Profile, error)
	SaveProfile(ctx context.Context, profile player.Profile) error
}

// Bridge encodes documents for a KV backend.
type Bridge struct {
	kv  KV
	now func() time.Time
}

// NewBridge wraps kv. A nil now defaults to time.Now.
func NewBridge(kv KV, now func() time.Time) *Bridge {
	if now == nil {
		now = time.Now
	}
	return &Bridge{kv: kv, now: now}
}

// LoadSnapshot reads the snapshot. A stored snapshot is normalized before it
// is returned so callers never see out-of-range telemetry.
func (b *Bridge) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	if b == nil || b.kv == nil {
		return Snapshot{}, ErrNotConfigured
	}
	data, err := b.kv.Get(ctx, SnapshotKey)
	if err != nil {
		return Snapshot{}, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeStorageCorrupt, "decode snapshot", err)
	}
	if snapshot.Version != SnapshotVersion {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeStorageCorrupt, "decode snapshot",
			fmt.Errorf("unsupported snapshot version %d", snapshot.Version))
	}
	snapshot.Player = snapshot.Player.Normalize()
	return snapshot, nil
}

// SaveSnapshot overwrites the snapshot. Version and SavedAt are stamped here.
func (b *Bridge) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	if b == nil || b.kv == nil {
		return ErrNotConfigured
	}
	snapshot.Version = SnapshotVersion
	snapshot.SavedAt = b.now().UTC().UnixMilli()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := b.kv.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadProfile reads the profile document.
func (b *Bridge) LoadProfile(ctx context.Context) (player.Profile, error) {
	if b == nil || b.kv == nil {
		return player.Profile{}, ErrNotConfigured
	}
	data, err := b.kv.Get(ctx, ProfileKey)
	if err != nil {
		return player.Profile{}, err
	}
	var profile player.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return player.Profile{}, apperrors.Wrap(apperrors.CodeStorageCorrupt, "decode profile", err)
	}
	return profile, nil
}

// SaveProfile overwrites the profile document.
func (b *Bridge) SaveProfile(ctx context.Context, profile player.Profile) error {
	if b == nil || b.kv == nil {
		return ErrNotConfigured
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := b.kv.Put(ctx, ProfileKey, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Close closes the backend.
func (b *Bridge) Close() error {
	if b == nil || b.kv == nil {
		return nil
	}
	return b.kv.Close()
}

// IsNotFound reports whether err means nothing was stored.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
