package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter with a fixed window counter in Redis, so
// multiple engine instances sharing one embedding API quota stay under it
// collectively.
type RedisLimiter struct {
	client *redis.Client
	logger *slog.Logger
	limit  int64
	window time.Duration
}

// NewRedisLimiter creates a limiter allowing limit requests per key per
// window, coordinated through the given Redis client. The caller owns the
// client; Close does not close it.
func NewRedisLimiter(client *redis.Client, logger *slog.Logger, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		logger: logger,
		limit:  limit,
		window: window,
	}
}

// Allow increments the current window's counter for key and permits the
// request while the counter is within the limit. The counter expires with
// the window, so an idle key costs nothing.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().UnixNano()/int64(r.window))

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis incr %s: %w", key, err)
	}

	count := incr.Val()
	if count > r.limit {
		r.logger.Debug("ratelimit: key over limit", "key", key, "count", count, "limit", r.limit)
		return false, nil
	}
	return true, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *RedisLimiter) Close() error { return nil }
