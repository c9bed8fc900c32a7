// Package kvstore provides durable key-value storage for JSON blobs.
//
// The engine persists each read model under its own key and treats the
// stored bytes as an opaque snapshot. Data survives process restarts but
// is not shared across instances; concurrent writers are last-write-wins.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is the durable blob store used by the entitlement and usage engines.
type Store interface {
	// Get returns the stored bytes for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
