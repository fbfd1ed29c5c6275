package conversation

import (
	"time"
)

// Status tracks the lifecycle of a conversation. At most one conversation
// per phone is active at any time.
type Status string

const (
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
	StatusTimeout Status = "timeout"
)

// Direction indicates who sent a message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// DeliveryStatus tracks transport delivery of a message. Messages are
// append-only; only this field is ever updated.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Role is the conversational role a message maps to when handed to the
// response generator.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleFor maps a message direction to its generator role.
func RoleFor(direction Direction) Role {
	if direction == DirectionOutbound {
		return RoleAssistant
	}
	return RoleUser
}

// Conversation is a thread of messages owned by one customer.
type Conversation struct {
	ID             uint              `json:"-"`
	PublicID       string            `json:"id"`
	CustomerID     uint              `json:"-"`
	Phone          string            `json:"phone"`
	Status         Status            `json:"status"`
	LastActivity   time.Time         `json:"last_activity"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	MentionedBooks []string          `json:"mentioned_books,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Message is one inbound or outbound text within a conversation.
type Message struct {
	ID             uint           `json:"-"`
	PublicID       string         `json:"id"`
	ConversationID uint           `json:"-"`
	Direction      Direction      `json:"direction"`
	Content        string         `json:"content"`
	Status         DeliveryStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ContextMessage is one entry of the bounded history window handed to the
// response generator.
type ContextMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the ephemeral, cacheable view of a conversation: the customer,
// the active conversation and a chronological window of at most N recent
// messages. The window is always a suffix of the full message history.
type Context struct {
	CustomerID           uint              `json:"customer_id"`
	CustomerPublicID     string            `json:"customer_public_id"`
	CustomerName         *string           `json:"customer_name,omitempty"`
	Phone                string            `json:"phone"`
	ConversationID       uint              `json:"conversation_id"`
	ConversationPublicID string            `json:"conversation_public_id"`
	Messages             []ContextMessage  `json:"messages"`
	LastActivity         time.Time         `json:"last_activity"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	MentionedBooks       []string          `json:"mentioned_books,omitempty"`
}

// AppendMessage adds one entry to the window and trims it to the last
// `limit` entries.
func (c *Context) AppendMessage(msg ContextMessage, limit int) {
	c.Messages = append(c.Messages, msg)
	if limit > 0 && len(c.Messages) > limit {
		c.Messages = c.Messages[len(c.Messages)-limit:]
	}
	if msg.Timestamp.After(c.LastActivity) {
		c.LastActivity = msg.Timestamp
	}
}

// History returns the window minus the final entry, which is the message
// that triggered the current delivery.
func (c *Context) History() []ContextMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[:len(c.Messages)-1]
}

// Summary is the operator-facing digest of a phone's conversation state.
type Summary struct {
	Exists         bool       `json:"exists"`
	ConversationID string     `json:"conversation_id,omitempty"`
	MessageCount   int        `json:"message_count"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
}
