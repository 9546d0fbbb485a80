package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCheckAndSetRateLimit(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	allowed, err := CheckAndSetRateLimit(ctx, client, 1, "message", 2*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = CheckAndSetRateLimit(ctx, client, 1, "message", 2*time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	// other users and actions have their own windows
	allowed, err = CheckAndSetRateLimit(ctx, client, 2, "message", 2*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(3 * time.Second)

	allowed, err = CheckAndSetRateLimit(ctx, client, 1, "message", 2*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)

	require.NoError(t, Guard(ctx, client, 5, "message", 10*time.Second))

	err := Guard(ctx, client, 5, "message", 10*time.Second)
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rlErr.RetryAfter, 10*time.Second)

	require.NoError(t, ClearRateLimit(ctx, client, 5, "message"))
	assert.NoError(t, Guard(ctx, client, 5, "message", 10*time.Second))
}

func TestNilClientDisablesLimiting(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.NoError(t, Guard(ctx, nil, 1, "message", time.Minute))
	}
	ttl, err := GetRateLimitTTL(ctx, nil, 1, "message")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}
