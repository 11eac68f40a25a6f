// Package cache provides a typed in-memory LRU cache with optional TTL.
// It fronts slower status stores (sqlite, redis) so that tool status polls
// from the API do not hit the backend on every request.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Cache defines the interface for a typed cache.
type Cache[V any] interface {
	// Get retrieves a value. The second result is false if the key is
	// missing or expired.
	Get(key string) (V, bool)

	// Set stores a value with a TTL. A ttl of 0 never expires.
	Set(key string, value V, ttl time.Duration)

	// Delete removes a value.
	Delete(key string)

	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed.
	DeletePrefix(prefix string) int

	// Len returns the number of stored items, expired ones included.
	Len() int
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	element   *list.Element
}

// MemoryCache is an LRU cache with per-entry TTL. Safe for concurrent use.
type MemoryCache[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry[V]
	lru      *list.List
	now      func() time.Time
}

// NewMemoryCache creates a cache holding at most capacity items.
// When full, the least recently used item is evicted.
func NewMemoryCache[V any](capacity int) *MemoryCache[V] {
	if capacity <= 0 {
		capacity = 1024
	}

	return &MemoryCache[V]{
		capacity: capacity,
		items:    make(map[string]*entry[V]),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get retrieves a value and marks it as recently used.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}

	if c.expired(e) {
		c.remove(e)
		return zero, false
	}

	c.lru.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value, replacing any previous one for key.
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(e.element)
		return
	}

	if len(c.items) >= c.capacity {
		if back := c.lru.Back(); back != nil {
			c.remove(back.Value.(*entry[V]))
		}
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lru.PushFront(e)
	c.items[key] = e
}

// Delete removes a value.
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
}

// DeletePrefix removes every key with the given prefix.
func (c *MemoryCache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.remove(e)
			removed++
		}
	}
	return removed
}

// Len returns the current number of items.
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of items.
func (c *MemoryCache[V]) Capacity() int {
	return c.capacity
}

// CleanExpired removes expired items and returns how many were removed.
func (c *MemoryCache[V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, e := range c.items {
		if c.expired(e) {
			c.remove(e)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker runs CleanExpired every interval until the returned
// stop function is called.
func (c *MemoryCache[V]) StartCleanupWorker(interval time.Duration) func() {
	stop := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// expired must be called with c.mu held.
func (c *MemoryCache[V]) expired(e *entry[V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// remove must be called with c.mu held.
func (c *MemoryCache[V]) remove(e *entry[V]) {
	delete(c.items, e.key)
	c.lru.Remove(e.element)
}
