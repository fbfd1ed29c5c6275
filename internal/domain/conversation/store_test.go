package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/customer"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// backend is a shared in-memory stand-in for the durable store and the
// cache, with failure toggles.
type backend struct {
	customers     map[string]*customer.Customer
	conversations map[uint]*Conversation
	messages      []*Message
	cacheData     map[string]string
	nextID        uint

	cacheErr     error
	msgCreateErr error
	durableReads int
}

func newBackend() *backend {
	return &backend{
		customers:     map[string]*customer.Customer{},
		conversations: map[uint]*Conversation{},
		cacheData:     map[string]string{},
	}
}

func (b *backend) id() uint {
	b.nextID++
	return b.nextID
}

type fakeCustomers struct{ b *backend }

func (f fakeCustomers) Create(_ context.Context, c *customer.Customer) error {
	c.ID = f.b.id()
	f.b.customers[c.Phone] = c
	return nil
}

func (f fakeCustomers) FindByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	f.b.durableReads++
	c, ok := f.b.customers[phone]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "customer not found")
	}
	return c, nil
}

type fakeConversations struct{ b *backend }

func (f fakeConversations) Create(_ context.Context, conv *Conversation) error {
	conv.ID = f.b.id()
	f.b.conversations[conv.ID] = conv
	return nil
}

func (f fakeConversations) FindActiveByPhone(_ context.Context, phone string) (*Conversation, error) {
	f.b.durableReads++
	for _, conv := range f.b.conversations {
		if conv.Phone == phone && conv.Status == StatusActive {
			return conv, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, "no active conversation")
}

func (f fakeConversations) Touch(_ context.Context, id uint, at time.Time) error {
	conv, ok := f.b.conversations[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "conversation not found")
	}
	conv.LastActivity = at
	return nil
}

func (f fakeConversations) SetMentionedBooks(_ context.Context, id uint, books []string) error {
	conv, ok := f.b.conversations[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "conversation not found")
	}
	conv.MentionedBooks = books
	return nil
}

func (f fakeConversations) UpdateStatus(_ context.Context, id uint, status Status) error {
	conv, ok := f.b.conversations[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "conversation not found")
	}
	conv.Status = status
	return nil
}

type fakeMessages struct{ b *backend }

func (f fakeMessages) Create(_ context.Context, msg *Message) error {
	if f.b.msgCreateErr != nil {
		return f.b.msgCreateErr
	}
	msg.ID = f.b.id()
	f.b.messages = append(f.b.messages, msg)
	return nil
}

func (f fakeMessages) ListRecent(_ context.Context, conversationID uint, limit int) ([]Message, error) {
	f.b.durableReads++
	var all []Message
	for _, m := range f.b.messages {
		if m.ConversationID == conversationID {
			all = append(all, *m)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f fakeMessages) CountByConversation(_ context.Context, conversationID uint) (int64, error) {
	var count int64
	for _, m := range f.b.messages {
		if m.ConversationID == conversationID {
			count++
		}
	}
	return count, nil
}

func (f fakeMessages) UpdateStatus(_ context.Context, id uint, status DeliveryStatus) error {
	for _, m := range f.b.messages {
		if m.ID == id {
			m.Status = status
			return nil
		}
	}
	return apperrors.New(apperrors.KindNotFound, "message not found")
}

type fakeCache struct{ b *backend }

func (f fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if f.b.cacheErr != nil {
		return "", false, f.b.cacheErr
	}
	v, ok := f.b.cacheData[key]
	return v, ok, nil
}

func (f fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.b.cacheErr != nil {
		return f.b.cacheErr
	}
	f.b.cacheData[key] = value
	return nil
}

func (f fakeCache) Del(_ context.Context, key string) error {
	if f.b.cacheErr != nil {
		return f.b.cacheErr
	}
	delete(f.b.cacheData, key)
	return nil
}

func newTestStore(b *backend, window int) *Store {
	return NewStore(fakeCustomers{b}, fakeConversations{b}, fakeMessages{b}, fakeCache{b}, time.Minute, window, zerolog.Nop())
}

const testPhone = "15551234567"

func TestAppendCreatesCustomerAndConversation(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	convCtx, msg, err := store.Append(context.Background(), testPhone, "Do you have Dune?", DirectionInbound, nil)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if _, ok := b.customers[testPhone]; !ok {
		t.Fatal("customer was not created")
	}
	if len(b.conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(b.conversations))
	}
	if len(b.messages) != 1 || b.messages[0].Content != "Do you have Dune?" {
		t.Fatalf("message not persisted: %#v", b.messages)
	}
	if msg.Status != DeliveryDelivered {
		t.Fatalf("inbound message status = %s, want delivered", msg.Status)
	}
	if len(convCtx.Messages) != 1 || convCtx.Messages[0].Role != RoleUser {
		t.Fatalf("unexpected context window: %#v", convCtx.Messages)
	}
}

func TestAppendTrimsWindow(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 3)

	var convCtx *Context
	var err error
	for i := 0; i < 4; i++ {
		convCtx, _, err = store.Append(context.Background(), testPhone, fmt.Sprintf("message %d", i), DirectionInbound, nil)
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	if len(convCtx.Messages) != 3 {
		t.Fatalf("window size = %d, want 3", len(convCtx.Messages))
	}
	if convCtx.Messages[0].Content != "message 1" {
		t.Fatalf("oldest entry not dropped: %q", convCtx.Messages[0].Content)
	}
	if convCtx.Messages[2].Content != "message 3" {
		t.Fatalf("newest entry missing: %q", convCtx.Messages[2].Content)
	}
	// Durable history keeps everything; only the window is bounded.
	if len(b.messages) != 4 {
		t.Fatalf("durable message count = %d, want 4", len(b.messages))
	}
}

func TestLoadServesFromCache(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	if _, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	b.durableReads = 0
	convCtx, err := store.Load(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if b.durableReads != 0 {
		t.Fatalf("expected cache hit, saw %d durable reads", b.durableReads)
	}
	if len(convCtx.Messages) != 1 || convCtx.Messages[0].Content != "hello" {
		t.Fatalf("cached context wrong: %#v", convCtx.Messages)
	}
}

func TestLoadCacheMissRebuildsFromDatabase(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	if _, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Invalidate(context.Background(), testPhone); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	b.durableReads = 0
	convCtx, err := store.Load(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if b.durableReads == 0 {
		t.Fatal("expected durable reads after invalidation")
	}
	if len(convCtx.Messages) != 1 || convCtx.Messages[0].Content != "hello" {
		t.Fatalf("rebuilt context wrong: %#v", convCtx.Messages)
	}

	// Rebuild must repopulate the cache.
	if _, ok := b.cacheData[cacheKeyPrefix+testPhone]; !ok {
		t.Fatal("cache was not repopulated after rebuild")
	}
}

func TestCacheFailureDegradesToDatabase(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	b.cacheErr = apperrors.New(apperrors.KindCache, "redis unreachable")

	convCtx, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil)
	if err != nil {
		t.Fatalf("append should survive cache failure, got %v", err)
	}
	if len(convCtx.Messages) != 1 {
		t.Fatalf("unexpected window: %#v", convCtx.Messages)
	}

	loaded, err := store.Load(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("load should fall back to database, got %v", err)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Content != "hello" {
		t.Fatalf("fallback context wrong: %#v", loaded.Messages)
	}
}

func TestCacheNotWrittenWhenDurableWriteFails(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	b.msgCreateErr = apperrors.New(apperrors.KindDatabase, "insert failed")

	_, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil)
	if err == nil {
		t.Fatal("expected append to fail")
	}
	if _, ok := b.cacheData[cacheKeyPrefix+testPhone]; ok {
		t.Fatal("cache written despite durable write failure")
	}
}

func TestLoadUnknownPhoneReturnsNotFound(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	_, err := store.Load(context.Background(), "19998887777")
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestEndClosesConversationAndInvalidatesCache(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	convCtx, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := store.End(context.Background(), testPhone); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if b.conversations[convCtx.ConversationID].Status != StatusEnded {
		t.Fatalf("conversation status = %s, want ended", b.conversations[convCtx.ConversationID].Status)
	}
	if _, ok := b.cacheData[cacheKeyPrefix+testPhone]; ok {
		t.Fatal("cache entry survived end")
	}

	// A new message after end starts a fresh conversation.
	fresh, _, err := store.Append(context.Background(), testPhone, "back again", DirectionInbound, nil)
	if err != nil {
		t.Fatalf("append after end failed: %v", err)
	}
	if fresh.ConversationID == convCtx.ConversationID {
		t.Fatal("expected a new conversation after end")
	}
}

func TestSummary(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	summary, err := store.Summary(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Exists {
		t.Fatal("expected no conversation to exist")
	}

	if _, _, err := store.Append(context.Background(), testPhone, "hi", DirectionInbound, nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, _, err := store.Append(context.Background(), testPhone, "hello there", DirectionOutbound, nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	summary, err = store.Summary(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !summary.Exists || summary.MessageCount != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.LastActivity == nil {
		t.Fatal("expected last activity to be set")
	}
}

func TestRecordMentionsDeduplicates(t *testing.T) {
	b := newBackend()
	store := newTestStore(b, 10)

	convCtx, _, err := store.Append(context.Background(), testPhone, "hello", DirectionInbound, nil)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := store.RecordMentions(context.Background(), convCtx, []string{"Dune", "Hyperion"}); err != nil {
		t.Fatalf("record mentions failed: %v", err)
	}
	if err := store.RecordMentions(context.Background(), convCtx, []string{"Dune", "Solaris"}); err != nil {
		t.Fatalf("record mentions failed: %v", err)
	}

	got := b.conversations[convCtx.ConversationID].MentionedBooks
	want := []string{"Dune", "Hyperion", "Solaris"}
	if len(got) != len(want) {
		t.Fatalf("mentioned books = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mentioned books = %#v, want %#v", got, want)
		}
	}
}
