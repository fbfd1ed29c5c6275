package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// RedisCache wraps a Redis client for string caching and atomic counters.
type RedisCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisCache connects to Redis using the given URL and verifies the
// connection with a ping.
func NewRedisCache(ctx context.Context, redisURL string, log zerolog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "parse redis url", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindCache, "ping redis", err)
	}

	log.Info().Str("component", "cache").Msg("connected to redis")
	return &RedisCache{client: client, log: log}, nil
}

// Get fetches a value. The second return is false on a cache miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, apperrors.Wrap(apperrors.KindCache, "get "+key, err)
	}
	return value, true, nil
}

// Set stores a value with the given TTL. A zero TTL stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindCache, "set "+key, err)
	}
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (c *RedisCache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindCache, "del "+key, err)
	}
	return nil
}

// Incr atomically increments a counter and returns the new value.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindCache, "incr "+key, err)
	}
	return count, nil
}

// Expire sets the TTL on an existing key.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindCache, "expire "+key, err)
	}
	return nil
}

// TTL reports the remaining lifetime of a key.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindCache, "ttl "+key, err)
	}
	return ttl, nil
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
