package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 1, 3, 3, 3},
		{"exceeding burst blocks", 1, 2, 5, 2},
		{"single token", 1, 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow(context.Background(), "user-1") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "a"))
	assert.False(t, rl.Allow(ctx, "a"))
	assert.True(t, rl.Allow(ctx, "b"))
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(1000, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for range 3 {
		assert.NoError(t, rl.Wait(ctx, "k"))
	}
}

func TestKeyedRateLimiter_WaitCanceled(t *testing.T) {
	rl := New(0.001, 1)
	defer rl.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, rl.Allow(ctx, "k"))
	cancel()
	assert.Error(t, rl.Wait(ctx, "k"))
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(2)
	defer rl.Stop()
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "u"))
	assert.True(t, rl.Allow(ctx, "u"))
	assert.False(t, rl.Allow(ctx, "u"))
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow(context.Background(), "old")
	assert.Equal(t, 1, rl.size())

	rl.evictIdle(time.Now().Add(idleTTL + time.Second))
	assert.Zero(t, rl.size())
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
