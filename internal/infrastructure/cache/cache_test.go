package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type summary struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func newMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// both backends must satisfy the same contract
func forEachBackend(t *testing.T, fn func(t *testing.T, c Cache)) {
	t.Run("redis", func(t *testing.T) {
		c, _ := newRedisCache(t)
		fn(t, c)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, newMemoryCache(t))
	})
}

func TestCache_GetSet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, c Cache) {
		ctx := context.Background()

		var got summary
		found, err := c.Get(ctx, "missing", &got)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, c.Set(ctx, Key("pipeline", "t1"), summary{Stage: "meeting", Count: 3}, time.Minute))

		found, err = c.Get(ctx, Key("pipeline", "t1"), &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, summary{Stage: "meeting", Count: 3}, got)
	})
}

func TestCache_DeleteAndPrefix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, c Cache) {
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "crm:pipeline:t1", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "crm:news:t1:a", 2, time.Minute))
		require.NoError(t, c.Set(ctx, "crm:news:t1:b", 3, time.Minute))
		require.NoError(t, c.Set(ctx, "crm:news:t2:a", 4, time.Minute))

		require.NoError(t, c.DeletePrefix(ctx, "crm:news:t1:"))
		require.NoError(t, c.Delete(ctx, "crm:pipeline:t1"))
		require.NoError(t, c.Delete(ctx))

		var v int
		for _, k := range []string{"crm:pipeline:t1", "crm:news:t1:a", "crm:news:t1:b"} {
			found, err := c.Get(ctx, k, &v)
			require.NoError(t, err)
			assert.False(t, found, k)
		}
		found, err := c.Get(ctx, "crm:news:t2:a", &v)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 4, v)
	})
}

func TestCache_SetNX(t *testing.T) {
	forEachBackend(t, func(t *testing.T, c Cache) {
		ctx := context.Background()
		ok, err := c.SetNX(ctx, "crm:webhook:wamid.1", true, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.SetNX(ctx, "crm:webhook:wamid.1", true, time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Second))

	mr.FastForward(2 * time.Second)

	var v string
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()

	var v string
	_, err := c.Get(context.Background(), "k", &v)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestMemoryCache_ExpiryAndJanitor(t *testing.T) {
	c := newMemoryCache(t)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", 1, time.Second))
	require.NoError(t, c.Set(ctx, "forever", 2, 0))

	now = now.Add(2 * time.Second)

	var v int
	found, err := c.Get(ctx, "short", &v)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := c.SetNX(ctx, "short", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be claimed again")

	now = now.Add(2 * time.Minute)
	c.evictExpired()
	assert.Equal(t, 1, c.Len())
}

func TestNew_FallsBackToMemory(t *testing.T) {
	c, client := New(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.Nil(t, client)
	_, isMemory := c.(*MemoryCache)
	assert.True(t, isMemory)

	mr := miniredis.RunT(t)
	c, client = New(config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}, zap.NewNop())
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	_, isRedis := c.(*RedisCache)
	assert.True(t, isRedis)
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}
