package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter bounds request rates per key. The assistant routes use it to
// keep generative-backend spend in check.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
	Reset(ctx context.Context, key string) error
	WithLimit(maxAttempts int64, window time.Duration) RateLimiter
}

// RedisRateLimiter counts requests in fixed windows backed by Redis.
type RedisRateLimiter struct {
	client      *redis.Client
	prefix      string
	window      time.Duration
	maxAttempts int64
}

func NewRedisRateLimiter(client *redis.Client, window time.Duration, maxAttempts int64) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		prefix:      "ratelimit:",
		window:      window,
		maxAttempts: maxAttempts,
	}
}

// WithLimit derives a limiter with different bounds sharing the backend.
func (rl *RedisRateLimiter) WithLimit(maxAttempts int64, window time.Duration) RateLimiter {
	return &RedisRateLimiter{
		client:      rl.client,
		prefix:      rl.prefix,
		window:      window,
		maxAttempts: maxAttempts,
	}
}

// Allow reports whether the key may proceed, plus the remaining budget and
// window reset time.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	redisKey := rl.prefix + key
	windowStart := time.Now().Truncate(rl.window)

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireAt(ctx, redisKey, windowStart.Add(rl.window))

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limiter error: %w", err)
	}

	count := incr.Val()
	remaining := rl.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.maxAttempts, int(remaining), windowStart.Add(rl.window), nil
}

// Reset clears the counter for a key.
func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, rl.prefix+key).Err()
}
