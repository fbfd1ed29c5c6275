package conversation

import (
	"context"
	"time"
)

// Repository persists conversation records.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	// FindActiveByPhone returns the single active conversation for the
	// phone, or a NotFound error.
	FindActiveByPhone(ctx context.Context, phone string) (*Conversation, error)
	// Touch updates last_activity after a message append.
	Touch(ctx context.Context, id uint, at time.Time) error
	SetMentionedBooks(ctx context.Context, id uint, books []string) error
	UpdateStatus(ctx context.Context, id uint, status Status) error
}

// MessageRepository persists individual messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	// ListRecent returns up to `limit` most recent messages for the
	// conversation, ordered oldest to newest.
	ListRecent(ctx context.Context, conversationID uint, limit int) ([]Message, error)
	CountByConversation(ctx context.Context, conversationID uint) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status DeliveryStatus) error
}

// Cache is the ephemeral context store. A false `ok` is an ordinary miss;
// a non-nil error means the cache itself is unreachable.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
