package entities

import (
	"time"
)

// RateLimitCounter is the durable fallback store for rate-limit windows,
// used when Redis is unreachable. Expired rows are logically absent;
// cleanup is storage hygiene, not a correctness requirement.
type RateLimitCounter struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Identifier  string    `gorm:"type:varchar(64);uniqueIndex:idx_rate_limit_identifier_type;not null"`
	LimitType   string    `gorm:"type:varchar(20);uniqueIndex:idx_rate_limit_identifier_type;not null"`
	Count       int       `gorm:"not null;default:0"`
	WindowStart time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
}

// TableName specifies the table name for RateLimitCounter.
func (RateLimitCounter) TableName() string {
	return "rate_limits"
}
