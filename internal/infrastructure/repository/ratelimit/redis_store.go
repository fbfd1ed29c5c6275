package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/ratelimit"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/cache"
)

// RedisStore keeps fixed-window counters in Redis. The window boundary
// rides on key TTL; the first increment of a fresh key arms the expiry.
type RedisStore struct {
	cache *cache.RedisCache
	log   zerolog.Logger
}

// NewRedisStore builds a Redis counter store.
func NewRedisStore(c *cache.RedisCache, log zerolog.Logger) *RedisStore {
	return &RedisStore{cache: c, log: log}
}

// Increment bumps the window counter and returns the new count plus the
// time until the window resets.
func (s *RedisStore) Increment(ctx context.Context, identifier, limitType string, window time.Duration) (int64, time.Duration, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", identifier, limitType)

	count, err := s.cache.Incr(ctx, key)
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.cache.Expire(ctx, key, window); err != nil {
			// Counter exists without expiry now; surface the error so the
			// caller can fall back rather than keep a window that never resets.
			return 0, 0, err
		}
		return count, window, nil
	}

	remaining, err := s.cache.TTL(ctx, key)
	if err != nil || remaining < 0 {
		// TTL lookup is advisory; a lost expiry still bounds retries.
		remaining = window
	}
	return count, remaining, nil
}

var _ ratelimit.CounterStore = (*RedisStore)(nil)
