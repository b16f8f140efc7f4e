package storage

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/LavishGent/routegov/internal/types"
)

// MemoryStore is a process-local KeyValueStore. It never evicts: every
// value is state, and a rewrite of the usage log must not cost a
// membership. Its contents are lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed atomic.Bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Name returns the backend name.
func (s *MemoryStore) Name() string { return "memory" }

// IsAvailable returns true until the store is closed.
func (s *MemoryStore) IsAvailable() bool { return !s.closed.Load() }

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", types.ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", types.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Keys lists every key starting with prefix.
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
	return nil
}

var _ types.KeyValueStore = (*MemoryStore)(nil)
