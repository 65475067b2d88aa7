package ratelimit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := newMiniredis(t)
	limiter := NewRedis(client, 2, 25*time.Millisecond, nil, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	first, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 3, third.Count)

	assert.True(t, limiter.Allow(ctx, "user-2"), "keys are independent")

	mr.FastForward(30 * time.Millisecond)
	reset, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, reset.Allowed)
	assert.Equal(t, 1, reset.Count)
}

func TestRedisLimiter_Defaults(t *testing.T) {
	limiter := NewRedis(nil, 0, 0, nil, slog.New(slog.DiscardHandler))
	assert.Equal(t, time.Minute, limiter.window)
	assert.Equal(t, 1, limiter.limit)
}

type denyAll struct{ calls int }

func (d *denyAll) Allow(context.Context, string) bool {
	d.calls++
	return false
}

func TestRedisLimiter_FallbackWhenUnavailable(t *testing.T) {
	mr, client := newMiniredis(t)
	fallback := &denyAll{}
	limiter := NewRedis(client, 5, time.Minute, fallback, slog.New(slog.DiscardHandler))

	mr.Close()

	assert.False(t, limiter.Allow(context.Background(), "user-1"))
	assert.Equal(t, 1, fallback.calls)
}

func TestRedisLimiter_NoFallbackFailsOpen(t *testing.T) {
	mr, client := newMiniredis(t)
	limiter := NewRedis(client, 1, time.Minute, nil, slog.New(slog.DiscardHandler))
	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "user-1"))
}
