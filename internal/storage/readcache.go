package storage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

// CachedStore keeps recently read values of a durable store in BigCache.
// The wrapped store stays the source of truth: writes go through to it
// first, and anything BigCache evicts is simply read again. Values
// larger than MaxEntrySize, such as the usage log, are never cached.
type CachedStore struct {
	types.KeyValueStore
	cache    *bigcache.BigCache
	maxEntry int
	logger   *slog.Logger

	// fillMu orders cache fills against writes. gen moves on every
	// write so a fill that raced one is dropped.
	fillMu      sync.Mutex
	gen         uint64
	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// NewCachedStore wraps next with a BigCache read cache.
func NewCachedStore(next types.KeyValueStore, cfg config.ReadCacheConfig, logger *slog.Logger) (*CachedStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cs := &CachedStore{
		KeyValueStore: next,
		maxEntry:      cfg.MaxEntrySize,
		logger:        logger.With("component", "read-cache", "backend", next.Name()),
	}
	if cs.maxEntry <= 0 {
		cs.maxEntry = 4 * 1024
	}
	shards := cfg.Shards
	if shards <= 0 {
		shards = 16
	}

	bc, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             shards,
		LifeWindow:         cfg.TTL,
		CleanWindow:        cfg.TTL,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       cs.maxEntry,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: cs.logger},
		OnRemoveWithReason: func(_ string, _ []byte, reason bigcache.RemoveReason) {
			switch reason {
			case bigcache.NoSpace:
				cs.evictions.Add(1)
			case bigcache.Expired:
				cs.expirations.Add(1)
			}
		},
	})
	if err != nil {
		return nil, types.NewStoreError("Open", "", "read-cache", err)
	}
	cs.cache = bc
	return cs, nil
}

// Get serves key from the cache, reading through to the wrapped store
// on a miss. Missing keys are not cached.
func (s *CachedStore) Get(ctx context.Context, key string) (string, error) {
	if data, resp, err := s.cache.GetWithInfo(key); err == nil && resp.EntryStatus != bigcache.Expired {
		s.hits.Add(1)
		return string(data), nil
	}
	s.misses.Add(1)

	s.fillMu.Lock()
	gen := s.gen
	s.fillMu.Unlock()

	value, err := s.KeyValueStore.Get(ctx, key)
	if err != nil {
		return "", err
	}

	s.fillMu.Lock()
	if gen == s.gen {
		s.fill(key, value)
	}
	s.fillMu.Unlock()
	return value, nil
}

// Set writes through to the wrapped store, then caches value.
func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	if err := s.KeyValueStore.Set(ctx, key, value); err != nil {
		_ = s.cache.Delete(key)
		return err
	}
	s.gen++
	s.fill(key, value)
	return nil
}

// Remove deletes key from the wrapped store and the cache.
func (s *CachedStore) Remove(ctx context.Context, key string) error {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	err := s.KeyValueStore.Remove(ctx, key)
	s.gen++
	_ = s.cache.Delete(key)
	return err
}

// fill caches value unless it is too large. Callers hold fillMu.
func (s *CachedStore) fill(key, value string) {
	if len(value) > s.maxEntry {
		_ = s.cache.Delete(key)
		return
	}
	if err := s.cache.Set(key, []byte(value)); err != nil {
		s.logger.Debug("Failed to cache value", "key", key, "error", err)
	}
}

// Stats reports read cache effectiveness.
func (s *CachedStore) Stats() types.CacheStats {
	return types.CacheStats{
		Size:        s.cache.Len(),
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Evictions:   s.evictions.Load(),
		Expirations: s.expirations.Load(),
	}
}

// Unwrap returns the wrapped store.
func (s *CachedStore) Unwrap() types.KeyValueStore { return s.KeyValueStore }

// Close releases the cache and closes the wrapped store.
func (s *CachedStore) Close() error {
	_ = s.cache.Close()
	return s.KeyValueStore.Close()
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: "+format, args...)
}

var _ types.KeyValueStore = (*CachedStore)(nil)
