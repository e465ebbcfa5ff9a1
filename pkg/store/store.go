/*
Package store provides the key/value settings store used for persisted state.

The engine only needs a small surface: history is serialized under a single
key and rewritten on every change. Two backends are provided: an embedded
badger database for real sessions, and a map-backed store for tests and
ephemeral runs.

	kv, err := store.OpenBadger(dir, false, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	data, err := kv.Get("search-history-data")
	if errors.Is(err, store.ErrNotFound) {
		// nothing persisted yet
	}
*/
package store

import "errors"

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("store: key not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store is a minimal key/value settings store.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}
