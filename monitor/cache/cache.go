// Package cache memoizes on-chain reads per (query, block) with bounded LRU storage.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Key must uniquely identify a read, block number included.
type Key interface {
	comparable
	fmt.Stringer
}

// Cache is safe for concurrent use. Concurrent misses for the same key
// share a single upstream computation.
type Cache[K Key, V any] struct {
	name    string
	entries *lru.Cache[K, V]
	sf      singleflight.Group
}

func New[K Key, V any](name string, size int) (*Cache[K, V], error) {
	entries, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("can't create %s cache: %w", name, err)
	}
	return &Cache[K, V]{
		name:    name,
		entries: entries,
	}, nil
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.entries.Get(key)
}

func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// GetOrCompute returns the cached value for key or computes and stores it.
// compute runs on a context detached from any single caller, so one caller giving up
// never fails the others waiting on the same key. Each caller stops waiting when its
// own ctx is done. Errors are returned to every waiting caller and are never cached.
func (c *Cache[K, V]) GetOrCompute(ctx context.Context, key K, compute func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := c.entries.Get(key); ok {
		ObserveRequest(c.name, "hit")
		return v, nil
	}

	ch := c.sf.DoChan(key.String(), func() (interface{}, error) {
		// another flight may have stored the value after our first lookup
		if v, ok := c.entries.Get(key); ok {
			ObserveRequest(c.name, "singleflight_hit")
			return v, nil
		}
		ObserveRequest(c.name, "miss")
		v, err := compute(context.Background())
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		ObserveRequest(c.name, "abandoned")
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			ObserveRequest(c.name, "singleflight_shared")
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("singleflight returned unexpected type: %T", res.Val)
		}
		return v, nil
	}
}
