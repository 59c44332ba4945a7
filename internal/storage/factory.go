package storage

import (
	"errors"
	"fmt"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

var ErrUnsupportedStore = errors.New("unsupported store kind")

// NewStore opens the run history backend named by kind. An empty kind
// selects the memory store; sqlitePath is only read for KindSQLite.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("%s store requires a database path", KindSQLite)
		}
		return newSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
}

// CloseIfSupported releases backends that hold resources. Memory stores are a no-op.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
