package entities

import (
	"time"

	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
)

// Message represents the database schema for messages. Rows are append-only;
// only the delivery status is ever updated.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string                      `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint                        `gorm:"index:idx_message_conversation_created;not null"`
	Direction      conversation.Direction      `gorm:"type:varchar(10);not null"`
	Content        string                      `gorm:"type:text;not null"`
	Status         conversation.DeliveryStatus `gorm:"type:varchar(12);not null;default:'pending'"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts the database entity to the domain model.
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Direction:      m.Direction,
		Content:        m.Content,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from the domain model.
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Direction:      m.Direction,
		Content:        m.Content,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
}
