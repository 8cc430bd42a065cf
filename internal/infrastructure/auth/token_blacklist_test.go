package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBlacklist(t *testing.T) (*auth.RedisTokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisTokenBlacklist(client), mr
}

func TestRedisTokenBlacklist_Revoke(t *testing.T) {
	bl, mr := newRedisBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisTokenBlacklist_RevokeUser(t *testing.T) {
	bl, _ := newRedisBlacklist(t)
	ctx := context.Background()
	userID := uuid.New()

	revoked, err := bl.IsUserRevoked(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.RevokeUser(ctx, userID, time.Hour))

	revoked, err = bl.IsUserRevoked(ctx, userID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsUserRevoked(ctx, userID, time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = bl.IsUserRevoked(ctx, uuid.New(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisTokenBlacklist_RedisDown(t *testing.T) {
	bl, mr := newRedisBlacklist(t)
	mr.Close()

	_, err := bl.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestInMemoryTokenBlacklist(t *testing.T) {
	bl := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, bl.Revoke(ctx, "jti-short", time.Millisecond))
	require.NoError(t, bl.Revoke(ctx, "jti-expired", 0))

	revoked, _ := bl.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	time.Sleep(5 * time.Millisecond)
	revoked, _ = bl.IsRevoked(ctx, "jti-short")
	assert.False(t, revoked)

	revoked, _ = bl.IsRevoked(ctx, "jti-expired")
	assert.False(t, revoked)

	userID := uuid.New()
	require.NoError(t, bl.RevokeUser(ctx, userID, time.Hour))
	revoked, _ = bl.IsUserRevoked(ctx, userID, time.Now().Add(-time.Hour))
	assert.True(t, revoked)
	revoked, _ = bl.IsUserRevoked(ctx, userID, time.Now().Add(2*time.Second))
	assert.False(t, revoked)
}
