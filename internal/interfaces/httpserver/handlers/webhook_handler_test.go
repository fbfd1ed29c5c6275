package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/domain/ratelimit"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
	"github.com/inkwell-books/sms-concierge/internal/webhook"
)

type stubVerifier struct {
	verifyFn func(rawBody []byte, signature, timestamp string) error
}

func (s *stubVerifier) Verify(rawBody []byte, signature, timestamp string) error {
	if s.verifyFn == nil {
		return nil
	}
	return s.verifyFn(rawBody, signature, timestamp)
}

type stubLimiter struct {
	checkFn func(ctx context.Context, identifier string) (ratelimit.Decision, error)
}

func (s *stubLimiter) Check(ctx context.Context, identifier string) (ratelimit.Decision, error) {
	if s.checkFn == nil {
		return ratelimit.Decision{Allowed: true}, nil
	}
	return s.checkFn(ctx, identifier)
}

func newTestRouter(verifier SignatureVerifier, limiter RateChecker, q queue.TaskQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebhookHandler(verifier, limiter, q, zerolog.Nop())
	router.POST("/webhook/sms", handler.HandleInbound)
	return router
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(webhook.InboundPayload{
		ID:         "msg-1",
		Type:       "message.received",
		From:       webhook.Endpoint{Type: "phone", Endpoint: "+15551234567"},
		To:         webhook.Endpoint{Type: "phone", Endpoint: "+15550001111"},
		Message:    "Do you have Dune?",
		ReceivedAt: "2026-08-24T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body
}

func postWebhook(router *gin.Engine, body []byte, withHeaders bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", bytes.NewReader(body))
	if withHeaders {
		req.Header.Set(webhook.HeaderSignature, "sig")
		req.Header.Set(webhook.HeaderTimestamp, "1700000000")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleInboundAccepted(t *testing.T) {
	q := queue.NewMemoryQueue(4)
	router := newTestRouter(&stubVerifier{}, &stubLimiter{}, q)

	rec := postWebhook(router, validBody(t), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "Inbound message received" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	task, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("no task enqueued: %v", err)
	}
	if task.Phone != "15551234567" {
		t.Fatalf("task phone = %q, want normalized 15551234567", task.Phone)
	}
	if task.Payload.Message != "Do you have Dune?" {
		t.Fatalf("task payload wrong: %#v", task.Payload)
	}
}

func TestHandleInboundMissingHeaders(t *testing.T) {
	q := queue.NewMemoryQueue(4)
	router := newTestRouter(&stubVerifier{}, &stubLimiter{}, q)

	rec := postWebhook(router, validBody(t), false)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if q.Depth() != 0 {
		t.Fatal("nothing should be enqueued")
	}
}

func TestHandleInboundInvalidSignature(t *testing.T) {
	verifier := &stubVerifier{
		verifyFn: func(_ []byte, _, _ string) error {
			return apperrors.New(apperrors.KindAuthentication, "signature mismatch")
		},
	}
	q := queue.NewMemoryQueue(4)
	router := newTestRouter(verifier, &stubLimiter{}, q)

	rec := postWebhook(router, validBody(t), true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if q.Depth() != 0 {
		t.Fatal("nothing should be enqueued")
	}
}

func TestHandleInboundMissingSecret(t *testing.T) {
	verifier := &stubVerifier{
		verifyFn: func(_ []byte, _, _ string) error {
			return apperrors.New(apperrors.KindConfiguration, "webhook secret is not configured")
		},
	}
	router := newTestRouter(verifier, &stubLimiter{}, queue.NewMemoryQueue(4))

	rec := postWebhook(router, validBody(t), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleInboundRateLimited(t *testing.T) {
	var gotIdentifier string
	limiter := &stubLimiter{
		checkFn: func(_ context.Context, identifier string) (ratelimit.Decision, error) {
			gotIdentifier = identifier
			return ratelimit.Decision{Violated: ratelimit.TypeSustained, RetryAfter: 30 * time.Second}, nil
		},
	}
	q := queue.NewMemoryQueue(4)
	router := newTestRouter(&stubVerifier{}, limiter, q)

	rec := postWebhook(router, validBody(t), true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if gotIdentifier != "15551234567" {
		t.Fatalf("identifier = %q, want normalized phone", gotIdentifier)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After = %q, want 30", got)
	}
	if q.Depth() != 0 {
		t.Fatal("nothing should be enqueued")
	}
}

func TestHandleInboundMalformedPayload(t *testing.T) {
	q := queue.NewMemoryQueue(4)
	router := newTestRouter(&stubVerifier{}, &stubLimiter{}, q)

	rec := postWebhook(router, []byte("{not json"), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleInboundMissingField(t *testing.T) {
	body, _ := json.Marshal(webhook.InboundPayload{
		From: webhook.Endpoint{Type: "phone", Endpoint: "+15551234567"},
		// Message intentionally blank.
	})
	router := newTestRouter(&stubVerifier{}, &stubLimiter{}, queue.NewMemoryQueue(4))

	rec := postWebhook(router, body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleInboundRateCheckPrecedesValidation(t *testing.T) {
	// A malformed body from a limited client must still yield 429, not 400.
	limiter := &stubLimiter{
		checkFn: func(_ context.Context, _ string) (ratelimit.Decision, error) {
			return ratelimit.Decision{Violated: ratelimit.TypeBurst, RetryAfter: time.Minute}, nil
		},
	}
	router := newTestRouter(&stubVerifier{}, limiter, queue.NewMemoryQueue(4))

	rec := postWebhook(router, []byte("{not json"), true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestHandleInboundQueueFull(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	router := newTestRouter(&stubVerifier{}, &stubLimiter{}, q)

	if rec := postWebhook(router, validBody(t), true); rec.Code != http.StatusOK {
		t.Fatalf("first request should be accepted, got %d", rec.Code)
	}
	rec := postWebhook(router, validBody(t), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when queue is full", rec.Code)
	}
}
