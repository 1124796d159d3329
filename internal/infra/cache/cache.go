// Package cache provides a small in-memory TTL cache. It fronts the user
// store for session validation, so a hot session does not cost a database
// round trip on every request.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

func (it item[T]) expired(now time.Time) bool {
	return now.After(it.deadline)
}

// InMemory is a thread-safe in-memory cache with a fixed TTL per entry.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New creates an in-memory cache. A background janitor sweeps expired
// entries once per TTL period so abandoned sessions do not pile up.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.janitor()
	return c
}

// Get retrieves a value. Returns false if absent or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || it.expired(time.Now()) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores a value with the configured TTL, replacing any previous entry.
func (c *InMemory[T]) Set(key string, value T) {
	it := item[T]{value: value, deadline: time.Now().Add(c.ttl)}

	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
}

// Delete removes a value. Used on logout to invalidate the session's
// cached user immediately.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *InMemory[T]) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.sweep(time.Now())
	}
}

func (c *InMemory[T]) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
}
