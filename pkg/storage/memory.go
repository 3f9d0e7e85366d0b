package storage

import (
	"context"
	"sync"
)

// Ensure MemoryBackend implements Backend.
var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend stores the blob in memory. Useful for tests and for running
// with durability disabled.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns the saved blob, or ErrNotFound.
func (b *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.set {
		return nil, ErrNotFound
	}

	out := make([]byte, len(b.data))
	copy(out, b.data)

	return out, nil
}

// Save replaces the saved blob.
func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.set = true

	return nil
}

// Clear removes the saved blob.
func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = nil
	b.set = false

	return nil
}

// Close is a no-op for the memory backend.
func (b *MemoryBackend) Close() error {
	return nil
}
