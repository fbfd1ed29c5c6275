package ratelimit

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/domain/ratelimit"
)

// PostgresStore is the durable fallback counter store. A single upsert
// increments the window counter atomically; rows whose window already
// expired are reset in the same statement.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore builds a Postgres counter store.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertCounterSQL = `
INSERT INTO rate_limits (identifier, limit_type, count, window_start, expires_at, created_at, updated_at)
VALUES (?, ?, 1, ?, ?, ?, ?)
ON CONFLICT (identifier, limit_type) DO UPDATE SET
    count        = CASE WHEN rate_limits.expires_at <= EXCLUDED.window_start THEN 1 ELSE rate_limits.count + 1 END,
    window_start = CASE WHEN rate_limits.expires_at <= EXCLUDED.window_start THEN EXCLUDED.window_start ELSE rate_limits.window_start END,
    expires_at   = CASE WHEN rate_limits.expires_at <= EXCLUDED.window_start THEN EXCLUDED.expires_at ELSE rate_limits.expires_at END,
    updated_at   = EXCLUDED.updated_at
RETURNING count, expires_at`

// Increment bumps the window counter and returns the new count plus the
// time until the window resets.
func (s *PostgresStore) Increment(ctx context.Context, identifier, limitType string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now().UTC()

	var row struct {
		Count     int64
		ExpiresAt time.Time
	}
	if err := s.db.WithContext(ctx).
		Raw(upsertCounterSQL, identifier, limitType, now, now.Add(window), now, now).
		Scan(&row).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.KindDatabase, "increment rate counter", err)
	}

	remaining := row.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return row.Count, remaining, nil
}

var _ ratelimit.CounterStore = (*PostgresStore)(nil)
