// Package cache provides a small in-memory TTL cache and a Redis-backed
// persistent variant. Expiry is checked lazily on access; expired entries
// are evicted when seen, never swept proactively.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// TTLCache is a process-local map from string key to value with per-entry
// expiry. Safe for concurrent use.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewTTLCache creates an empty cache using the wall clock.
func NewTTLCache() *TTLCache {
	return &TTLCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewTTLCacheWithClock creates a cache with an injected clock for tests.
func NewTTLCacheWithClock(now func() time.Time) *TTLCache {
	return &TTLCache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Set stores value under key with the given time to live.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
}

// Get returns the stored value, or nil and false when the key is absent or
// expired. An expired entry is removed on access.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether key holds an unexpired value.
func (c *TTLCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Clear removes the given key, or every entry when called with no keys.
func (c *TTLCache) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.entries = make(map[string]entry)
		return
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Len returns the number of entries currently stored, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
