// Package memory provides an in-process implementation of the cart storage
// port, used in tests and single-node development setups.
package memory

import (
	"context"
	"sync"

	"github.com/leafmart/cartd/internal/domain/cart"
)

var _ cart.Storage = (*Store)(nil)

// Store is a concurrency-safe in-memory key-value blob store.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Get returns the blob stored under key, or cart.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	s.blobs[key] = cp
	s.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}
