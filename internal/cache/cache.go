// Package cache provides the in-process response cache: a bounded
// key/value map with per-entry expiry and insertion-order eviction.
package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/types"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultCapacity = 200
	DefaultTTL      = 24 * time.Hour
)

// Options configures a Cache.
type Options struct {
	Capacity   int
	DefaultTTL time.Duration
	Clock      types.Clock
	Logger     *slog.Logger
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// expired reports whether the entry is past its ttl at now. An entry is
// still live at exactly storedAt+ttl.
func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache maps keys to values with per-entry TTL. When full, inserting a
// new key evicts the oldest inserted entry, regardless of how recently
// it was read. Safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	order    *list.List
	items    map[string]*list.Element
	capacity int
	ttl      time.Duration
	clock    types.Clock
	logger   *slog.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// New creates an empty cache.
func New[V any](opts Options) *Cache[V] {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache[V]{
		order:    list.New(),
		items:    make(map[string]*list.Element, opts.Capacity),
		capacity: opts.Capacity,
		ttl:      opts.DefaultTTL,
		clock:    clock.OrReal(opts.Clock),
		logger:   opts.Logger.With("component", "response-cache"),
	}
}

// Get returns the value for key if present and unexpired. An expired
// entry is removed as part of the read.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	e := elem.Value.(*entry[V])
	if e.expired(c.clock.Now()) {
		c.removeElement(elem)
		c.expirations.Add(1)
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Has reports whether Get would return a value. Expired entries are
// removed the same way.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	if elem.Value.(*entry[V]).expired(c.clock.Now()) {
		c.removeElement(elem)
		c.expirations.Add(1)
		return false
	}
	return true
}

// Set stores value under key. A ttl of zero or less uses the default.
// Overwriting a key moves it to the young end of the eviction order.
// Inserting a new key into a full cache evicts exactly one entry: the
// oldest inserted.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[V]{key: key, value: value, storedAt: c.clock.Now(), ttl: ttl}

	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToBack(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			evicted := oldest.Value.(*entry[V]).key
			c.removeElement(oldest)
			c.evictions.Add(1)
			c.logger.Debug("Evicted oldest entry", "key", evicted)
		}
	}

	c.items[key] = c.order.PushBack(e)
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Prune removes every expired entry and returns how many it removed.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry[V]).expired(now) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	if removed > 0 {
		c.expirations.Add(int64(removed))
		c.logger.Debug("Pruned expired entries", "removed", removed)
	}
	return removed
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *Cache[V]) Capacity() int {
	return c.capacity
}

// Keys returns the stored keys from oldest to youngest insertion.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[V]).key)
	}
	return keys
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() types.CacheStats {
	size := c.Len()
	return types.CacheStats{
		Size:         size,
		Capacity:     c.capacity,
		UsagePercent: float64(size) / float64(c.capacity) * 100,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
		Expirations:  c.expirations.Load(),
	}
}

// StartJanitor prunes the cache every interval until stop is closed.
// It returns immediately when interval is not positive.
func (c *Cache[V]) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Prune()
			}
		}
	}()
}

func (c *Cache[V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[V]).key)
}
