package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares the fixed-window counters across instances. Same
// semantics as MemoryLimiter; the window lives as a key TTL.
type RedisLimiter struct {
	client  *redis.Client
	window  time.Duration
	ceiling int
	prefix  string
}

func NewRedisLimiter(client *redis.Client, window time.Duration, ceiling int) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		window:  window,
		ceiling: ceiling,
		prefix:  "ratelimit:",
	}
}

func (l *RedisLimiter) Consume(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// Key exists without a TTL (expire raced a crash); restore it.
		ttl = l.window
		if err := l.client.Expire(ctx, k, ttl).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(l.ceiling) {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Decision{Allowed: true, Remaining: l.ceiling - int(count), ResetAt: resetAt}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
