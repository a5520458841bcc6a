// SPDX-License-Identifier: MIT

// Package cache provides time-bounded key/value caches with a single TTL per
// cache instance.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is the expiry applied to every entry when none is configured.
const DefaultTTL = 300 * time.Second

// Cache stores values for a fixed TTL chosen when the cache is built.
// The TTL is applied at insertion and never refreshed by reads; expired
// entries are reported as absent. Concurrent Sets on one key are last-write-wins.
type Cache[V any] interface {
	// Get retrieves a value. ok is false if the key is missing or expired.
	Get(key string) (V, bool)
	// Set stores a value under key with the cache's TTL.
	Set(key string, value V)
	// Delete removes a value from the cache.
	Delete(key string)
	// Clear removes all values from the cache.
	Clear()
	// Stats returns cache statistics.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of stored entries, expired or not
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryCache is an in-memory Cache guarded by a RWMutex.
type MemoryCache[V any] struct {
	ttl time.Duration
	now Clock

	mu      sync.RWMutex
	entries map[string]*entry[V]

	hits, misses, sets, evictions atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// Option customises a MemoryCache.
type Option func(*options)

type options struct {
	clock           Clock
	cleanupInterval time.Duration
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithCleanupInterval starts a janitor goroutine that sweeps expired entries.
// Expiry is enforced on read regardless; the janitor only bounds memory.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// NewMemoryCache creates an in-memory cache whose entries live for ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryCache[V any](ttl time.Duration, opts ...Option) *MemoryCache[V] {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &MemoryCache[V]{
		ttl:     ttl,
		now:     o.clock,
		entries: make(map[string]*entry[V]),
		stop:    make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go c.janitor(o.cleanupInterval)
	}
	return c
}

// TTL returns the expiry applied to every entry.
func (c *MemoryCache[V]) TTL() time.Duration { return c.ttl }

// Get retrieves a value from the cache.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.expired(c.now()) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores a value in the cache.
func (c *MemoryCache[V]) Set(key string, value V) {
	e := &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	c.sets.Add(1)
}

// Delete removes a value from the cache.
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all values from the cache.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry[V])
	c.mu.Unlock()
}

// Stats returns cache statistics.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// DeleteExpired removes all expired entries and returns how many were dropped.
func (c *MemoryCache[V]) DeleteExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.evictions.Add(int64(count))
	return count
}

// Stop stops the background janitor. It is safe to call more than once.
func (c *MemoryCache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}

// NoOpCache never stores anything (useful for disabling caching).
type NoOpCache[V any] struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache[V any]() NoOpCache[V] { return NoOpCache[V]{} }

func (NoOpCache[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}
func (NoOpCache[V]) Set(string, V) {}
func (NoOpCache[V]) Delete(string) {}
func (NoOpCache[V]) Clear()        {}
func (NoOpCache[V]) Stats() Stats  { return Stats{} }
