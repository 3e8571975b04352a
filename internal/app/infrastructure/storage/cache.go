package storage

import (
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

// Cache is a bounded in-memory map whose entries expire ttl after they were written.
type Cache[T any] struct {
	outer *otter.Cache[string, T]

	// serializes Add so two writers cannot both see a key as new
	addMu sync.Mutex
}

func NewCache[T any](capacity int, ttl time.Duration) *Cache[T] {
	if capacity <= 0 {
		capacity = 1
	}

	opts := &otter.Options[string, T]{
		MaximumSize:     capacity,
		InitialCapacity: min(capacity, 64),
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, T](ttl)
	}

	return &Cache[T]{outer: otter.Must(opts)}
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

// Add stores val unless key is already present. It reports whether val was stored.
func (c *Cache[T]) Add(key string, val T) bool {
	c.addMu.Lock()
	defer c.addMu.Unlock()

	if _, ok := c.outer.GetIfPresent(key); ok {
		return false
	}
	c.outer.Set(key, val)
	return true
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) ClearKey(key string) {
	c.outer.Invalidate(key)
}

func (c *Cache[T]) ClearAll() {
	c.outer.InvalidateAll()
}

// Values returns a snapshot of every live entry in no particular order.
func (c *Cache[T]) Values() []T {
	out := make([]T, 0, c.outer.EstimatedSize())
	for _, v := range c.outer.All() {
		out = append(out, v)
	}
	return out
}

func (c *Cache[T]) Len() int {
	return c.outer.EstimatedSize()
}
