// Package snapshot persists the image-free projection of a session's plan.
package snapshot

import (
	"context"
	"errors"
)

// Predefined errors for snapshot stores.
var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("snapshot not found")

	// ErrTooLarge is returned when a record exceeds the storage quota.
	ErrTooLarge = errors.New("snapshot exceeds storage quota")

	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("snapshot is corrupt")
)

// KeyPrefix namespaces snapshot records.
const KeyPrefix = "trip:"

// Key returns the record key for a session.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Store defines the interface for snapshot persistence. Each key holds one
// record that is overwritten wholesale.
type Store interface {
	// Load returns the record for key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the record for key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the record for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
