package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the minimal key/value surface the persistent cache needs.
// *redis.Client satisfies it through redisKV; tests supply a map-backed fake.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ErrKVMiss is the sentinel a KV returns for an absent key.
var ErrKVMiss = redis.Nil

type redisKV struct {
	client *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// persistedEntry is the serialized envelope written to the backing store.
// StoredAt carries the cache's own max-age check, independent of the
// backing store's TTL.
type persistedEntry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// PersistentCache survives process restarts by serializing entries to a
// durable key/value store. Malformed or missing entries read as a miss,
// never an error: the cache is an optimization, not a source of truth.
type PersistentCache struct {
	kv     KV
	maxAge time.Duration
	prefix string
	now    func() time.Time
}

// NewPersistentCache wraps a Redis client. maxAge bounds entry freshness on
// read regardless of what TTL the entry was written with.
func NewPersistentCache(client *redis.Client, prefix string, maxAge time.Duration) *PersistentCache {
	return NewPersistentCacheKV(redisKV{client: client}, prefix, maxAge)
}

// NewPersistentCacheKV is the injectable constructor used by tests.
func NewPersistentCacheKV(kv KV, prefix string, maxAge time.Duration) *PersistentCache {
	return &PersistentCache{kv: kv, maxAge: maxAge, prefix: prefix, now: time.Now}
}

func (c *PersistentCache) key(k string) string {
	return c.prefix + ":" + k
}

// Set serializes value and writes it with the given TTL. Serialization or
// store failures are swallowed; the next Get simply misses.
func (c *PersistentCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	env, err := json.Marshal(persistedEntry{Value: raw, StoredAt: c.now()})
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, c.key(key), string(env), ttl)
}

// Get unmarshals the stored value into dest and reports whether a fresh
// entry was found. Stale entries are deleted on access.
func (c *PersistentCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.kv.Get(ctx, c.key(key))
	if err != nil {
		return false
	}

	var env persistedEntry
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// Malformed entry: drop it and miss.
		_ = c.kv.Del(ctx, c.key(key))
		return false
	}
	if c.now().Sub(env.StoredAt) > c.maxAge {
		_ = c.kv.Del(ctx, c.key(key))
		return false
	}
	if err := json.Unmarshal(env.Value, dest); err != nil {
		return false
	}
	return true
}

// Clear removes the given key.
func (c *PersistentCache) Clear(ctx context.Context, key string) {
	_ = c.kv.Del(ctx, c.key(key))
}
