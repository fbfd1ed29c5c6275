package conversation

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/database/entities"
)

// MessageRepository persists individual messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository builds a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts the message record.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "create message", err)
	}
	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	return nil
}

// ListRecent returns up to `limit` most recent messages for the
// conversation, ordered oldest to newest.
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindDatabase, "list recent messages", err)
	}

	// Query returns newest first; callers want chronological order.
	result := make([]domain.Message, len(rows))
	for i := range rows {
		result[len(rows)-1-i] = *rows[i].EtoD()
	}
	return result, nil
}

// CountByConversation counts all messages in the conversation.
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.KindDatabase, "count messages", err)
	}
	return count, nil
}

// UpdateStatus records delivery progress for a message.
func (r *MessageRepository) UpdateStatus(ctx context.Context, id uint, status domain.DeliveryStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "update message status", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("message not found: %d", id))
	}
	return nil
}

var _ domain.MessageRepository = (*MessageRepository)(nil)
