// Package cache provides a small TTL cache. Each owner constructs its
// own instance and passes it where needed; there is no process-wide
// cache and no background eviction goroutine. Expired entries are
// dropped lazily on access.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to values with a fixed time-to-live. Safe for
// use by concurrent callers.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given TTL. A non-positive TTL disables
// caching entirely: Get never hits.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the cache's time source. Test use only.
func (c *Cache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value for key, replacing any existing entry.
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate removes key from the cache. Callers invalidate on writes
// so stale metadata never outlives a known change.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, including any not yet lazily
// expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
