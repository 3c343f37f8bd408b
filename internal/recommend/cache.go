package recommend

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached recommendation stays valid.
// Recommendations are date-sensitive, so the TTL is short.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores serialized recommendation results. Implementations must
// treat every failure as a miss; caching is an optimization, never a
// correctness dependency.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
}

// RedisCache implements Cache on a Redis client with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed cache. A non-positive ttl falls
// back to DefaultCacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached payload for key. Redis errors degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "recommendation cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	return payload, true
}

// Set stores the payload under key. Redis errors are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "recommendation cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
