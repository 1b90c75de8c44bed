// Package cache provides the process-wide memo caches used for reference
// data: role names and review types.
package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Config sizes a cache.
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultConfig suits reference tables. Every entry costs 1, so MaxCost is
// the entry capacity.
func DefaultConfig() Config {
	return Config{
		NumCounters: 1 << 17,
		MaxCost:     1 << 13,
		BufferItems: 64,
	}
}

// Cache is a typed memo cache. Entries never expire; Flush drops them all.
// Concurrent writers race benignly: the last write wins.
type Cache[V any] struct {
	c *ristretto.Cache
}

// New creates a cache.
func New[V any](cfg Config) (*Cache[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		// costs are entry counts, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache[V]{c: c}, nil
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	v, ok := c.c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key and waits until it is visible to Get.
func (c *Cache[V]) Set(key string, value V) {
	c.c.Set(key, value, 1)
	c.c.Wait()
}

// Flush removes every entry.
func (c *Cache[V]) Flush() {
	c.c.Clear()
}

// Close releases the cache's background goroutines.
func (c *Cache[V]) Close() {
	c.c.Close()
}
