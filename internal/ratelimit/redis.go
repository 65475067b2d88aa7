package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter, starting the window on
// the first hit, and returns the count and remaining window in milliseconds.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

const redisTimeout = 2 * time.Second

// RedisLimiter is a fixed-window counter in Redis, shared by every replica.
// When Redis is unavailable it falls back to the in-process limiter.
type RedisLimiter struct {
	client   redis.UniversalClient
	window   time.Duration
	limit    int
	prefix   string
	fallback Limiter
	logger   *slog.Logger
}

// NewRedis creates a limiter allowing limit requests per key per window.
func NewRedis(client redis.UniversalClient, limit int, window time.Duration, fallback Limiter, logger *slog.Logger) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 1
	}
	return &RedisLimiter{
		client:   client,
		window:   window,
		limit:    limit,
		prefix:   "talesmith:rl:",
		fallback: fallback,
		logger:   logger,
	}
}

// Decision is the result of one fixed-window check.
type Decision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

// Allow reports whether a request for key may proceed.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	d, err := l.Check(ctx, key)
	if err != nil {
		l.logger.Warn("redis rate limiter unavailable, using fallback", "error", err)
		if l.fallback != nil {
			return l.fallback.Allow(ctx, key)
		}
		return true
	}
	return d.Allowed
}

// Check counts one request for key and returns the window state.
func (l *RedisLimiter) Check(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	vals, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}

	count := int(vals[0])
	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	return Decision{
		Allowed:   count <= l.limit,
		Count:     count,
		Remaining: max(l.limit-count, 0),
		ResetAt:   time.Now().UTC().Add(ttl),
	}, nil
}
