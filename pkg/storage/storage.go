// Package storage provides durable blob backends for the store's cache
// envelope. Each backend persists exactly one serialized blob under a fixed
// location; there are no other persisted keys.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates no blob has been saved yet.
var ErrNotFound = errors.New("no cached blob found")

// Backend persists a single opaque blob.
type Backend interface {
	// Load returns the saved blob, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the saved blob.
	Save(ctx context.Context, data []byte) error

	// Clear removes the saved blob. Clearing an empty backend is not an error.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
