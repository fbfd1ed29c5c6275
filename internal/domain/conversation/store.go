package conversation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/customer"
	"github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

const cacheKeyPrefix = "conversation:"

// Store is the cache-aside manager for conversation contexts. The durable
// store is the source of truth; the cache is written only after a durable
// write commits, so it can lag but never overtake. Cache failures degrade
// to the durable store and are logged, never surfaced.
//
// Concurrent appends for the same phone are not serialized: two
// near-simultaneous deliveries can interleave load/append and reorder the
// cached window. The durable history stays correct and the cache rebuilds
// from it on the next miss.
type Store struct {
	customers     customer.Repository
	conversations Repository
	messages      MessageRepository
	cache         Cache
	ttl           time.Duration
	window        int
	log           zerolog.Logger
}

// NewStore builds a conversation store with a window of `window` messages
// and a cache TTL of `ttl`.
func NewStore(
	customers customer.Repository,
	conversations Repository,
	messages MessageRepository,
	cache Cache,
	ttl time.Duration,
	window int,
	log zerolog.Logger,
) *Store {
	if window <= 0 {
		window = 10
	}
	return &Store{
		customers:     customers,
		conversations: conversations,
		messages:      messages,
		cache:         cache,
		ttl:           ttl,
		window:        window,
		log:           log.With().Str("component", "conversation-store").Logger(),
	}
}

// Window returns the configured context window size.
func (s *Store) Window() int {
	return s.window
}

// Load returns the context for the phone, from cache when possible. A
// NotFound error means no active conversation exists.
func (s *Store) Load(ctx context.Context, phone string) (*Context, error) {
	if cached := s.fromCache(ctx, phone); cached != nil {
		return cached, nil
	}
	return s.loadDurable(ctx, phone)
}

// Append records a message for the phone, creating the customer and an
// active conversation on first contact. The durable write commits before
// the cache is updated. The returned message carries the persisted ID so
// callers can track delivery status.
func (s *Store) Append(ctx context.Context, phone, content string, direction Direction, metadata map[string]string) (*Context, *Message, error) {
	convCtx, err := s.Load(ctx, phone)
	if err != nil {
		if !errors.Is(err, errors.KindNotFound) {
			return nil, nil, err
		}
		convCtx, err = s.create(ctx, phone)
		if err != nil {
			return nil, nil, err
		}
	}

	now := time.Now().UTC()
	status := DeliveryPending
	if direction == DirectionInbound {
		// Inbound texts have already reached us.
		status = DeliveryDelivered
	}

	msg := &Message{
		PublicID:       newPublicID("msg"),
		ConversationID: convCtx.ConversationID,
		Direction:      direction,
		Content:        content,
		Status:         status,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, nil, err
	}
	if err := s.conversations.Touch(ctx, convCtx.ConversationID, now); err != nil {
		return nil, nil, err
	}

	for k, v := range metadata {
		if convCtx.Metadata == nil {
			convCtx.Metadata = make(map[string]string)
		}
		convCtx.Metadata[k] = v
	}
	convCtx.AppendMessage(ContextMessage{
		Role:      RoleFor(direction),
		Content:   content,
		Timestamp: now,
	}, s.window)

	s.writeCache(ctx, convCtx)
	return convCtx, msg, nil
}

// UpdateMessageStatus records transport progress for an outbound message.
func (s *Store) UpdateMessageStatus(ctx context.Context, messageID uint, status DeliveryStatus) error {
	return s.messages.UpdateStatus(ctx, messageID, status)
}

// RecordMentions persists book titles the customer discussed and refreshes
// the cached context.
func (s *Store) RecordMentions(ctx context.Context, convCtx *Context, books []string) error {
	if len(books) == 0 {
		return nil
	}
	merged := mergeMentions(convCtx.MentionedBooks, books)
	if err := s.conversations.SetMentionedBooks(ctx, convCtx.ConversationID, merged); err != nil {
		return err
	}
	convCtx.MentionedBooks = merged
	s.writeCache(ctx, convCtx)
	return nil
}

// Invalidate drops the cached context for the phone.
func (s *Store) Invalidate(ctx context.Context, phone string) error {
	if err := s.cache.Del(ctx, cacheKeyPrefix+phone); err != nil {
		return errors.Wrap(errors.KindCache, "invalidate context cache", err)
	}
	return nil
}

// End closes the active conversation for the phone and invalidates its
// cached context.
func (s *Store) End(ctx context.Context, phone string) error {
	convCtx, err := s.loadDurable(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.conversations.UpdateStatus(ctx, convCtx.ConversationID, StatusEnded); err != nil {
		return err
	}
	if err := s.Invalidate(ctx, phone); err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msg("invalidate after end failed")
	}
	return nil
}

// Summary reports the conversation state for the phone. MessageCount comes
// from the durable store, not the bounded window.
func (s *Store) Summary(ctx context.Context, phone string) (*Summary, error) {
	convCtx, err := s.Load(ctx, phone)
	if err != nil {
		if errors.Is(err, errors.KindNotFound) {
			return &Summary{Exists: false}, nil
		}
		return nil, err
	}

	count, err := s.messages.CountByConversation(ctx, convCtx.ConversationID)
	if err != nil {
		return nil, err
	}

	last := convCtx.LastActivity
	return &Summary{
		Exists:         true,
		ConversationID: convCtx.ConversationPublicID,
		MessageCount:   int(count),
		LastActivity:   &last,
	}, nil
}

func (s *Store) fromCache(ctx context.Context, phone string) *Context {
	raw, ok, err := s.cache.Get(ctx, cacheKeyPrefix+phone)
	if err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msg("context cache unreachable, falling back to database")
		return nil
	}
	if !ok {
		return nil
	}

	var convCtx Context
	if err := json.Unmarshal([]byte(raw), &convCtx); err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msg("discarding undecodable cached context")
		return nil
	}
	return &convCtx
}

func (s *Store) loadDurable(ctx context.Context, phone string) (*Context, error) {
	conv, err := s.conversations.FindActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	cust, err := s.customers.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListRecent(ctx, conv.ID, s.window)
	if err != nil {
		return nil, err
	}

	window := make([]ContextMessage, 0, len(msgs))
	for _, m := range msgs {
		window = append(window, ContextMessage{
			Role:      RoleFor(m.Direction),
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}

	convCtx := &Context{
		CustomerID:           cust.ID,
		CustomerPublicID:     cust.PublicID,
		CustomerName:         cust.Name,
		Phone:                phone,
		ConversationID:       conv.ID,
		ConversationPublicID: conv.PublicID,
		Messages:             window,
		LastActivity:         conv.LastActivity,
		Metadata:             conv.Metadata,
		MentionedBooks:       conv.MentionedBooks,
	}

	s.writeCache(ctx, convCtx)
	return convCtx, nil
}

func (s *Store) create(ctx context.Context, phone string) (*Context, error) {
	cust, err := s.customers.FindByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, errors.KindNotFound) {
			return nil, err
		}
		cust = &customer.Customer{
			PublicID: newPublicID("cus"),
			Phone:    phone,
		}
		if err := s.customers.Create(ctx, cust); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	conv := &Conversation{
		PublicID:     newPublicID("conv"),
		CustomerID:   cust.ID,
		Phone:        phone,
		Status:       StatusActive,
		LastActivity: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	return &Context{
		CustomerID:           cust.ID,
		CustomerPublicID:     cust.PublicID,
		CustomerName:         cust.Name,
		Phone:                phone,
		ConversationID:       conv.ID,
		ConversationPublicID: conv.PublicID,
		Messages:             []ContextMessage{},
		LastActivity:         now,
	}, nil
}

func (s *Store) writeCache(ctx context.Context, convCtx *Context) {
	payload, err := json.Marshal(convCtx)
	if err != nil {
		s.log.Error().Err(err).Str("phone", convCtx.Phone).Msg("marshal context for cache")
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+convCtx.Phone, string(payload), s.ttl); err != nil {
		s.log.Warn().Err(err).Str("phone", convCtx.Phone).Msg("context cache write failed, durable copy is authoritative")
	}
}

func mergeMentions(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, lists := range [][]string{existing, incoming} {
		for _, title := range lists {
			if _, dup := seen[title]; dup || title == "" {
				continue
			}
			seen[title] = struct{}{}
			merged = append(merged, title)
		}
	}
	return merged
}

func newPublicID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
