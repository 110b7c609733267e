// Package memory provides a map-backed cart.Storage for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/zm-storefront/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage keeps values in process memory.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, cart.ErrNoValue
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(value)
	return nil
}
