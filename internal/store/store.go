// Package store provides the durable key-value layer behind room state.
package store

import "errors"

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a flat key-value store with prefix scans. Implementations must be
// safe for concurrent use; room coordinators write from their own goroutines.
type Store interface {
	// Put writes value under key, replacing any existing value.
	Put(key string, value []byte) error
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// List returns all key-value pairs whose key starts with prefix.
	List(prefix string) (map[string][]byte, error)
	// Close releases underlying resources.
	Close() error
}
