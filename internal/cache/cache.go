// Package cache provides a bounded, TTL-based read-through cache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Cache holds at most maxEntries values for ttl each. Concurrent misses for
// the same key share one load.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock
	group      singleflight.Group
	epoch      uint64
}

func New[V any](ttl time.Duration, maxEntries int, clock clockwork.Clock) *Cache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Get returns the cached value for key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, evicting expired entries and then the oldest
// one when the cache is full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, time.Time{})
}

// setLocked stores value until the cache TTL elapses or until, whichever
// comes first. A zero until means the TTL alone applies.
func (c *Cache[V]) setLocked(key string, value V, until time.Time) {
	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	expiresAt := now.Add(c.ttl)
	if !until.IsZero() && until.Before(expiresAt) {
		expiresAt = until
	}
	if !now.Before(expiresAt) {
		delete(c.entries, key)
		return
	}
	c.entries[key] = entry[V]{value: value, storedAt: now, expiresAt: expiresAt}
}

func (c *Cache[V]) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// GetOrLoad returns the cached value or calls load once per key across
// concurrent callers. A load that races with Invalidate is not stored.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	return c.GetOrLoadUntil(ctx, key, func(ctx context.Context) (V, time.Time, error) {
		v, err := load(ctx)
		return v, time.Time{}, err
	})
}

// GetOrLoadUntil is GetOrLoad for values that go stale at a known instant.
// load returns that instant alongside the value; the entry is dropped at it
// even if the TTL has not elapsed. A zero time leaves only the TTL.
func (c *Cache[V]) GetOrLoadUntil(ctx context.Context, key string, load func(context.Context) (V, time.Time, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		v, until, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		if c.epoch == epoch {
			c.setLocked(key, v, until)
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Invalidate drops key so the next read reloads it.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.epoch++
	c.group.Forget(key)
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			c.group.Forget(k)
		}
	}
	c.epoch++
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
