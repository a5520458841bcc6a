// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Sources []string          `json:"sources"`
	Headers map[string]string `json:"headers"`
}

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisCache[payload]) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, newRedisCache[payload](client, "anirelay:", ttl, zerolog.Nop())
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t, 5*time.Minute)

	want := payload{Sources: []string{"default"}, Headers: map[string]string{"Referer": "https://example.org"}}
	c.Set("stream-a", want)

	got, ok := c.Get("stream-a")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists("anirelay:stream-a"), "keys are namespaced by prefix")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t, time.Minute)

	got, ok := c.Get("nonexistent")
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, c := setupMiniRedis(t, 300*time.Second)

	c.Set("ttl-key", payload{Sources: []string{"720p"}})
	assert.Equal(t, 300*time.Second, mr.TTL("anirelay:ttl-key"))

	mr.FastForward(299 * time.Second)
	_, ok := c.Get("ttl-key")
	require.True(t, ok, "value must be present before TTL")

	mr.FastForward(2 * time.Second)
	_, ok = c.Get("ttl-key")
	assert.False(t, ok, "value must be absent after TTL")
}

func TestRedisCache_CorruptValueIsMiss(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)

	require.NoError(t, mr.Set("anirelay:bad", "{not json"))
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)
	require.NoError(t, mr.Set("foreign", "untouched"))

	c.Set("k1", payload{})
	c.Set("k2", payload{})
	c.Set("k3", payload{})

	c.Delete("k1")
	_, ok := c.Get("k1")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.True(t, mr.Exists("foreign"), "clear must only touch prefixed keys")
}

func TestRedisCache_HealthCheck(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)

	assert.NoError(t, c.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestNewRedisCache_ConnectionFailure(t *testing.T) {
	_, err := NewRedisCache[payload](RedisConfig{Addr: "127.0.0.1:1"}, time.Minute, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewRedisCache_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache[payload](RedisConfig{Addr: mr.Addr(), Prefix: "x:"}, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	var _ Cache[payload] = c
	c.Set("a", payload{Sources: []string{"s"}})
	assert.True(t, mr.Exists("x:a"))
}
