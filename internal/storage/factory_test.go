package storage

import (
	"context"
	"errors"
	"testing"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new store %q: %v", kind, err)
		}
		if err := store.Init(context.Background()); err != nil {
			t.Fatalf("init: %v", err)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("postgres", "")
	if !errors.Is(err, ErrUnsupportedStore) {
		t.Fatalf("expected ErrUnsupportedStore, got %v", err)
	}
}

func TestNewStoreSQLiteRequiresPath(t *testing.T) {
	if _, err := NewStore(KindSQLite, ""); err == nil {
		t.Fatal("expected error for sqlite store without a path")
	}
}
