package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/database/entities"
)

// Repository persists conversation records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "create conversation", err)
	}
	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindActiveByPhone fetches the single active conversation for the phone.
func (r *Repository) FindActiveByPhone(ctx context.Context, phone string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND status = ?", phone, domain.StatusActive).
		Order("created_at DESC").
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("no active conversation: %s", phone))
		}
		return nil, apperrors.Wrap(apperrors.KindDatabase, "fetch active conversation", err)
	}
	return entity.EtoD(), nil
}

// Touch updates last_activity for the conversation.
func (r *Repository) Touch(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("last_activity", at)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "touch conversation", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("conversation not found: %d", id))
	}
	return nil
}

// SetMentionedBooks replaces the mentioned-entity list.
func (r *Repository) SetMentionedBooks(ctx context.Context, id uint, books []string) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("mentioned_books", entities.StringList(books)).Error; err != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "set mentioned books", err)
	}
	return nil
}

// UpdateStatus transitions the conversation lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id uint, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "update conversation status", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("conversation not found: %d", id))
	}
	return nil
}

var _ domain.Repository = (*Repository)(nil)
