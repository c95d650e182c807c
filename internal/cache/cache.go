// Package cache memoizes the result of slow, pure computations such as text
// embeddings. Entries expire after a fixed TTL and the number of entries is
// bounded; the least recently used entry is evicted first.
//
// Two goroutines asking for the same missing key at the same time may both
// compute it. The cache only lets callers skip work, so the duplicate call is
// accepted rather than coordinated.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default limits.
const (
	DefaultMaxEntries = 1000
	DefaultTTL        = time.Hour
)

// ErrInvalidConfig is returned by New for non-positive limits.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ComputeFunc produces the value for a missing key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Config holds cache limits.
type Config struct {
	MaxEntries int
	TTL        time.Duration
}

// Cache is a bounded TTL cache keyed by string.
//
// The underlying LRU takes its own lock for each Get and Add. GetOrCompute
// never holds it while the compute function runs.
type Cache[V any] struct {
	entries *expirable.LRU[string, V]
}

// New creates a cache with the given limits.
func New[V any](cfg Config) (*Cache[V], error) {
	if cfg.MaxEntries <= 0 || cfg.TTL <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Cache[V]{
		entries: expirable.NewLRU[string, V](cfg.MaxEntries, nil, cfg.TTL),
	}, nil
}

// GetOrCompute returns the live entry for key or computes, stores and returns
// a new one. A compute error is returned as-is and nothing is stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.entries.Add(key, v)
	return v, nil
}

// Len returns the number of entries, including ones that expired but have
// not been evicted yet.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *Cache[V]) Purge() {
	c.entries.Purge()
}
