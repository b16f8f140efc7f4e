package storage

import (
	"context"

	"github.com/LavishGent/routegov/internal/types"
)

// DisabledStore persists nothing. Every read is a miss and every write
// succeeds, so components run purely in memory.
type DisabledStore struct{}

// NewDisabledStore creates a new disabled store.
func NewDisabledStore() *DisabledStore {
	return &DisabledStore{}
}

// Name returns the backend name.
func (s *DisabledStore) Name() string { return "disabled" }

// IsAvailable returns false as this store is disabled.
func (s *DisabledStore) IsAvailable() bool { return false }

// Get returns ErrNotFound as this store is disabled.
func (s *DisabledStore) Get(ctx context.Context, key string) (string, error) {
	return "", types.ErrNotFound
}

// Set does nothing as this store is disabled.
func (s *DisabledStore) Set(ctx context.Context, key, value string) error { return nil }

// Remove does nothing as this store is disabled.
func (s *DisabledStore) Remove(ctx context.Context, key string) error { return nil }

// Keys returns nothing as this store is disabled.
func (s *DisabledStore) Keys(ctx context.Context, prefix string) ([]string, error) { return nil, nil }

// Close does nothing as this store is disabled.
func (s *DisabledStore) Close() error { return nil }

var _ types.KeyValueStore = (*DisabledStore)(nil)
