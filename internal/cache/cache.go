// Package cache is a small in-process TTL cache for computed aggregates.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value   any
	expires time.Time
}

// TTL caches values by key for a fixed duration. A zero TTL disables caching.
type TTL struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
	gen     uint64
}

func New(ttl time.Duration) *TTL {
	return &TTL{ttl: ttl, now: time.Now, entries: map[string]entry{}}
}

func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTL) Set(key string, v any) {
	c.mu.Lock()
	c.set(key, v)
	c.mu.Unlock()
}

func (c *TTL) set(key string, v any) {
	if c.ttl <= 0 {
		return
	}
	c.entries[key] = entry{value: v, expires: c.now().Add(c.ttl)}
}

// Generation changes on every Invalidate.
func (c *TTL) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores v only if no Invalidate happened since gen was read.
func (c *TTL) SetIfGeneration(key string, v any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.set(key, v)
	return true
}

// Invalidate drops every entry.
func (c *TTL) Invalidate() {
	c.mu.Lock()
	clear(c.entries)
	c.gen++
	c.mu.Unlock()
}

// Load returns the cached value for key or computes, stores and returns it.
// Concurrent misses may compute more than once. A result computed across an
// Invalidate is returned but not stored.
func Load[V any](c *TTL, key string, fn func() (V, error)) (V, error) {
	var gen uint64
	if c != nil {
		gen = c.Generation()
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(V); ok {
				return typed, nil
			}
		}
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.SetIfGeneration(key, v, gen)
	}
	return v, nil
}
