package storage

import (
	"context"

	"github.com/LavishGent/routegov/internal/types"
)

// ValidatingStore rejects invalid keys before delegating to the wrapped store.
type ValidatingStore struct {
	types.KeyValueStore
	validator *types.KeyValidator
}

// NewValidatingStore wraps next with key validation.
func NewValidatingStore(next types.KeyValueStore, validator *types.KeyValidator) *ValidatingStore {
	if validator == nil {
		validator = types.DefaultKeyValidator
	}
	return &ValidatingStore{KeyValueStore: next, validator: validator}
}

// Get validates key then reads it.
func (s *ValidatingStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.validator.Validate(key); err != nil {
		return "", err
	}
	return s.KeyValueStore.Get(ctx, key)
}

// Set validates key then writes it.
func (s *ValidatingStore) Set(ctx context.Context, key, value string) error {
	if err := s.validator.Validate(key); err != nil {
		return err
	}
	return s.KeyValueStore.Set(ctx, key, value)
}

// Remove validates key then deletes it.
func (s *ValidatingStore) Remove(ctx context.Context, key string) error {
	if err := s.validator.Validate(key); err != nil {
		return err
	}
	return s.KeyValueStore.Remove(ctx, key)
}

// Unwrap returns the wrapped store.
func (s *ValidatingStore) Unwrap() types.KeyValueStore { return s.KeyValueStore }
