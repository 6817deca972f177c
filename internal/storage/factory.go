package storage

import (
	"errors"
	"fmt"
	"io"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"

	DefaultStoreKind = KindMemory
)

var (
	ErrUnsupportedStore  = errors.New("unsupported store backend")
	ErrSQLiteUnavailable = errors.New("sqlite backend not compiled in; rebuild with -tags sqlite")
)

// NewStore picks a backend by name. The sqlite backend keeps run history
// across processes; the memory backend lives as long as the store value.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("%s store: database path is required", KindSQLite)
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
	}
}

// CloseIfSupported releases backends that hold a handle.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
