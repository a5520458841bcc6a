// SPDX-License-Identifier: MIT

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache[string](5 * time.Minute)

	c.Set("key1", "value1")

	val, ok := c.Get("key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, "value1", val)

	_, ok = c.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent key")
}

func TestMemoryCache_ExpiryBoundary(t *testing.T) {
	const ttl = 300 * time.Second
	const eps = time.Millisecond

	clock := newFakeClock()
	c := NewMemoryCache[int](ttl, WithClock(clock.Now))

	c.Set("stream-naruto-episode-1", 42)

	clock.Advance(ttl - eps)
	val, ok := c.Get("stream-naruto-episode-1")
	require.True(t, ok, "entry must be present just before TTL")
	assert.Equal(t, 42, val)

	clock.Advance(2 * eps)
	_, ok = c.Get("stream-naruto-episode-1")
	assert.False(t, ok, "entry must be absent just after TTL")
}

func TestMemoryCache_ReadDoesNotRefreshTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[string](time.Minute, WithClock(clock.Now))

	c.Set("k", "v")
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		_, ok := c.Get("k")
		require.True(t, ok)
	}

	clock.Advance(11 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok, "reads must not extend expiry")
}

func TestMemoryCache_OverwriteResetsExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[string](time.Minute, WithClock(clock.Now))

	c.Set("k", "first")
	clock.Advance(50 * time.Second)
	c.Set("k", "second")
	clock.Advance(50 * time.Second)

	val, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", val, "last write wins")
}

func TestMemoryCache_DefaultTTL(t *testing.T) {
	c := NewMemoryCache[string](0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache[string](time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Delete("key1")
	_, ok := c.Get("key1")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Stats().CurrentSize)

	c.Clear()
	assert.Equal(t, 0, c.Stats().CurrentSize)
	_, ok = c.Get("key2")
	assert.False(t, ok)
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache[string](time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	c.Get("key1")
	c.Get("key1")
	c.Get("nonexistent")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, 2, stats.CurrentSize)
}

func TestMemoryCache_DeleteExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[string](time.Minute, WithClock(clock.Now))

	c.Set("old1", "a")
	c.Set("old2", "b")
	clock.Advance(30 * time.Second)
	c.Set("fresh", "c")
	clock.Advance(31 * time.Second)

	assert.Equal(t, 2, c.DeleteExpired())
	stats := c.Stats()
	assert.Equal(t, 1, stats.CurrentSize)
	assert.Equal(t, int64(2), stats.Evictions)
}

func TestMemoryCache_Janitor(t *testing.T) {
	c := NewMemoryCache[string](30*time.Millisecond, WithCleanupInterval(20*time.Millisecond))
	defer c.Stop()

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	assert.Eventually(t, func() bool {
		return c.Stats().CurrentSize == 0
	}, time.Second, 10*time.Millisecond, "janitor should remove expired entries")
	assert.Greater(t, c.Stats().Evictions, int64(0))

	c.Stop() // idempotent
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache[int](time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := "key-" + strconv.Itoa(i%4)
				c.Set(key, w)
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 4, c.Stats().CurrentSize)
	assert.Equal(t, int64(8*200), c.Stats().Sets)
}

func TestNoOpCache(t *testing.T) {
	var c Cache[string] = NewNoOpCache[string]()

	c.Set("key", "value")
	_, ok := c.Get("key")
	assert.False(t, ok, "NoOpCache should never return values")

	c.Delete("key")
	c.Clear()
	assert.Equal(t, Stats{}, c.Stats())
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	c := NewMemoryCache[string](time.Minute)
	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
