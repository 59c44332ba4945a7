//go:build !sqlite

package storage

import "errors"

func DefaultStoreKind() string {
	return KindMemory
}

func newSQLiteStore(string) (Store, error) {
	return nil, errors.New("sqlite store not compiled in; build with -tags sqlite")
}
