package lock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Quota is the outcome of one rate limit check
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RedisRateLimiter counts requests per identifier over a sliding window
// kept in a Redis sorted set
type RedisRateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRedisRateLimiter creates a limiter allowing maxRequests per window
func NewRedisRateLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow records one request for identifier and reports whether it fits
func (l *RedisRateLimiter) Allow(ctx context.Context, identifier string) (Quota, error) {
	key := "ratelimit:" + identifier
	now := l.now()
	windowStart := now.Add(-l.window)

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, l.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return Quota{}, fmt.Errorf("failed to check rate limit: %w", err)
	}

	count := int(countCmd.Val())
	remaining := l.maxRequests - count - 1
	if remaining < 0 {
		remaining = 0
	}

	return Quota{
		Allowed:   count < l.maxRequests,
		Limit:     l.maxRequests,
		Remaining: remaining,
		Reset:     now.Add(l.window),
	}, nil
}
