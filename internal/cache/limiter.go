package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts attempts per key in a fixed window.
type AttemptLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

func NewAttemptLimiter(client *redis.Client, prefix string, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, prefix: prefix, max: max, window: window}
}

// Allow records an attempt and reports whether it is within the limit.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	fullKey := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("limiter incr: %w", err)
	}
	return incr.Val() <= int64(l.max), nil
}

// Reset clears the counter after a successful attempt.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
