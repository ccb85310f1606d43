// Package cache provides the in-process TTL memoization shared by every
// remote-fetching operation. Entries expire lazily at read time; there is
// no background sweep and no persistence across restarts.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	createdAt time.Time
}

// Cache is a keyed TTL store. The clock is injectable so tests can step
// time deterministically.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New returns a cache whose entries are valid for ttl.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock is New with a caller-supplied clock.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, createdAt: c.now()}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrCompute returns the value stored under key when present and
// unexpired. Otherwise it invokes compute, stores the result only when
// compute reports ok, and returns it. An empty upstream answer is never
// cached, so a failing provider is retried on every call instead of
// pinning emptiness for a full TTL window.
//
// compute runs outside the cache lock: two concurrent misses on the same
// key cost one redundant upstream call, nothing worse.
func GetOrCompute[T any](c *Cache, key string, compute func() (T, bool)) (T, bool) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, true
		}
	}
	v, ok := compute()
	if ok {
		c.put(key, v)
	}
	return v, ok
}
