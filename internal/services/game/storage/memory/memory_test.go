package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/flatline/internal/services/game/storage"
)

func TestStorePutGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	value := []byte(`{"a":1}`)
	if err := store.Put(ctx, "k", value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("expected stored copy, got %s", got)
	}
	got[0] = 'y'
	again, _ := store.Get(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Fatalf("expected returned copy, got %s", again)
	}
	if store.Puts() != 1 {
		t.Fatalf("expected 1 put, got %d", store.Puts())
	}
}

func TestStoreMissingKey(t *testing.T) {
	if _, err := New().Get(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreFailPut(t *testing.T) {
	store := New()
	boom := errors.New("boom")
	store.SetFailPut(boom)

	if err := store.Put(context.Background(), "k", []byte("v")); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestStoreRejectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Put(ctx, "k", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestStoreClosed(t *testing.T) {
	store := New()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Put(context.Background(), "k", nil); err == nil {
		t.Fatal("expected error after close")
	}
}
