// Package cache provides a small in-memory TTL cache, used to keep
// postal-code lookups from hammering the upstream API.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

func (i item[T]) expired(now time.Time) bool {
	return now.After(i.deadline)
}

// InMemory is a thread-safe in-memory cache. Every entry lives for the
// TTL given at construction; reads past the deadline miss.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New creates a cache and starts its background sweeper.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached value, or false on a miss or an expired entry.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || it.expired(time.Now()) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores a value under key for the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:    value,
		deadline: time.Now().Add(c.ttl),
	}
}

// Delete evicts a key.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// sweep drops expired entries once per TTL so the map does not grow
// without bound between reads.
func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, it := range c.items {
			if it.expired(now) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
