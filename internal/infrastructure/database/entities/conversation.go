package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
)

// Conversation represents the database schema for conversations.
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string              `gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerID     uint                `gorm:"index;not null"`
	Phone          string              `gorm:"type:varchar(20);index:idx_conversation_phone_status;not null"`
	Status         conversation.Status `gorm:"type:varchar(20);index:idx_conversation_phone_status;not null;default:'active'"`
	LastActivity   time.Time           `gorm:"not null"`
	Metadata       JSONMap             `gorm:"type:jsonb"`
	MentionedBooks StringList          `gorm:"type:jsonb"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// JSONMap is a custom type for map[string]string stored as JSON.
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringList is a custom type for []string stored as JSON.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// EtoD converts the database entity to the domain model.
func (c *Conversation) EtoD() *conversation.Conversation {
	metadata := make(map[string]string)
	if c.Metadata != nil {
		metadata = c.Metadata
	}
	return &conversation.Conversation{
		ID:             c.ID,
		PublicID:       c.PublicID,
		CustomerID:     c.CustomerID,
		Phone:          c.Phone,
		Status:         c.Status,
		LastActivity:   c.LastActivity,
		Metadata:       metadata,
		MentionedBooks: c.MentionedBooks,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from the domain model.
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:             c.ID,
		PublicID:       c.PublicID,
		CustomerID:     c.CustomerID,
		Phone:          c.Phone,
		Status:         c.Status,
		LastActivity:   c.LastActivity,
		Metadata:       c.Metadata,
		MentionedBooks: c.MentionedBooks,
	}
}
