package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// RedisLimiter is a fixed-window limiter sharing its counters through Redis,
// so every instance behind a load balancer sees the same windows. Counters
// use INCR with the window set as TTL on first increment.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	prefix string
}

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(addr, password string, db int, prefix string, rule Rule) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisLimiter{client: client, rule: rule, prefix: prefix}, nil
}

// Allow counts the request against the key's current window. Redis errors
// fail open so a store outage cannot drop webhooks.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn("Rate limit store unavailable, failing open", zap.Error(err))
		return Result{Allowed: true, Limit: l.rule.MaxRequests, Remaining: l.rule.MaxRequests}, nil
	}

	count := incr.Val()
	windowTTL := ttl.Val()
	if windowTTL < 0 {
		// First request in the window; start the clock.
		windowTTL = l.rule.Window
		if err := l.client.Expire(ctx, redisKey, l.rule.Window).Err(); err != nil {
			logger.FromContext(ctx).Warn("Failed to set rate limit window TTL", zap.Error(err))
		}
	}

	remaining := l.rule.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(l.rule.MaxRequests),
		Limit:     l.rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   utils.Now().Add(windowTTL),
	}, nil
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
