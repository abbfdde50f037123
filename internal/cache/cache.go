// Package cache provides a size-bounded TTL cache for upstream price
// and metadata lookups, plus a manager that sweeps expired entries.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is an LRU cache whose entries also expire after a fixed
// duration. Expired entries are kept until swept or overwritten so
// callers can fall back to them when the upstream source is down.
type TTLCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func New[T any](maxSize int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the fresh value for key. Expired entries report a miss.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// GetStale returns the value for key even when expired. The second
// return reports freshness. Used to serve the last known price while a
// refresh against the upstream is failing.
func (c *TTLCache[T]) GetStale(key string) (T, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		return zero, false, false
	}
	e := el.Value.(*entry[T])
	fresh := !time.Now().After(e.expiresAt)
	if fresh {
		c.order.MoveToFront(el)
	}
	return e.value, true, fresh
}

// Set stores value under key with the cache's TTL, evicting the least
// recently used entry when over capacity.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

func (c *TTLCache[T]) remove(el *list.Element) {
	e := el.Value.(*entry[T])
	delete(c.entries, e.key)
	c.order.Remove(el)
}

func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanExpired drops entries whose TTL plus a grace window has passed.
// The grace window preserves recently expired values for stale reads.
func (c *TTLCache[T]) CleanExpired(grace time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-grace)
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry[T]); e.expiresAt.Before(cutoff) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}
