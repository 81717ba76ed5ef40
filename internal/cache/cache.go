// Package cache provides a generic read-through, TTL-based cache over small
// JSON documents in the on-device key-value store. Reads return cached data
// if fresher than the TTL, otherwise fetch-then-cache; mutating callers must
// invalidate the corresponding entry synchronously before returning so the
// next read is never stale.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/store"
)

// FetchFunc loads the authoritative value when the cache is cold or stale.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// entry wraps a cached value with its write time for TTL checks.
type entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache is a read-through TTL cache for values of type T.
// Safe for use from the single event loop; it holds no internal locks.
type Cache[T any] struct {
	kv     store.KV
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// New creates a cache whose entries live under prefix in the KV store and
// stay fresh for ttl after each fetch.
func New[T any](kv store.KV, prefix string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		kv:     kv,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetOrFetch returns the cached value for key if fresher than the TTL,
// otherwise calls fetch, stores the result, and returns it. The second
// return value reports whether the value came from cache.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, fetch FetchFunc[T]) (T, bool, error) {
	var cached entry[T]
	err := c.kv.Get(c.prefix+key, &cached)
	if err == nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		return cached.Value, true, nil
	}
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		// Treat a corrupt entry like a miss, but surface real store failures.
		var zero T
		return zero, false, fmt.Errorf("read cache entry %q: %w", key, err)
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if err := c.kv.Set(c.prefix+key, entry[T]{Value: value, FetchedAt: c.now()}); err != nil {
		var zero T
		return zero, false, fmt.Errorf("write cache entry %q: %w", key, err)
	}
	return value, false, nil
}

// Invalidate removes the cached entry for key. Call synchronously from any
// mutating operation before it returns.
func (c *Cache[T]) Invalidate(key string) error {
	return c.kv.Remove(c.prefix + key)
}
