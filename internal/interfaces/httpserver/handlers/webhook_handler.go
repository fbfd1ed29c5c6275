package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/domain/ratelimit"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/metrics"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
	"github.com/inkwell-books/sms-concierge/internal/interfaces/httpserver/responses"
	"github.com/inkwell-books/sms-concierge/internal/utils/phone"
	"github.com/inkwell-books/sms-concierge/internal/webhook"
)

const acceptedMessage = "Inbound message received"

// SignatureVerifier authenticates the raw webhook body.
type SignatureVerifier interface {
	Verify(rawBody []byte, signature, timestamp string) error
}

// RateChecker decides whether an identifier may proceed.
type RateChecker interface {
	Check(ctx context.Context, identifier string) (ratelimit.Decision, error)
}

// WebhookHandler is the ingress gateway for inbound SMS webhooks. The
// synchronous path only verifies, rate-checks, parses and enqueues; the
// expensive work happens in the background workers.
type WebhookHandler struct {
	verifier SignatureVerifier
	limiter  RateChecker
	queue    queue.TaskQueue
	log      zerolog.Logger
}

// NewWebhookHandler builds the ingress handler.
func NewWebhookHandler(verifier SignatureVerifier, limiter RateChecker, q queue.TaskQueue, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		limiter:  limiter,
		queue:    q,
		log:      log.With().Str("component", "webhook-handler").Logger(),
	}
}

// HandleInbound processes POST /webhook/sms.
func (h *WebhookHandler) HandleInbound(c *gin.Context) {
	signature := c.GetHeader(webhook.HeaderSignature)
	timestamp := c.GetHeader(webhook.HeaderTimestamp)
	if signature == "" || timestamp == "" {
		metrics.WebhookRequests.WithLabelValues("missing_header").Inc()
		responses.ErrorWithStatus(c, http.StatusUnprocessableEntity, "missing signature or timestamp header")
		return
	}

	rawBody, err := c.GetRawData()
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid_payload").Inc()
		responses.ErrorWithStatus(c, http.StatusBadRequest, "unreadable request body")
		return
	}

	if err := h.verifier.Verify(rawBody, signature, timestamp); err != nil {
		outcome := "auth_failed"
		if apperrors.Is(err, apperrors.KindConfiguration) {
			outcome = "misconfigured"
		}
		metrics.WebhookRequests.WithLabelValues(outcome).Inc()
		h.log.Warn().Err(err).Str("remote", c.ClientIP()).Msg("webhook rejected")
		responses.Error(c, err)
		return
	}

	// The rate-limit identifier is the sender phone when the body parses,
	// otherwise the client IP so malformed floods are still limited.
	var payload webhook.InboundPayload
	parseErr := json.Unmarshal(rawBody, &payload)

	identifier := phone.Normalize(payload.From.Endpoint)
	if identifier == "" {
		identifier = c.ClientIP()
	}

	decision, err := h.limiter.Check(c.Request.Context(), identifier)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("rate limit check failed")
		responses.ErrorWithStatus(c, http.StatusInternalServerError, "rate limit check failed")
		return
	}
	if !decision.Allowed {
		metrics.WebhookRequests.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitRejections.WithLabelValues(decision.Violated).Inc()
		c.Header("Retry-After", formatSeconds(decision.RetryAfter))
		c.JSON(http.StatusTooManyRequests, responses.ErrorResponse{
			Error:      "rate limit exceeded",
			RetryAfter: int(decision.RetryAfter.Seconds()),
		})
		return
	}

	if parseErr != nil {
		metrics.WebhookRequests.WithLabelValues("invalid_payload").Inc()
		responses.ErrorWithStatus(c, http.StatusBadRequest, "malformed payload")
		return
	}
	if field, ok := payload.Validate(); !ok {
		metrics.WebhookRequests.WithLabelValues("invalid_payload").Inc()
		responses.ErrorWithStatus(c, http.StatusBadRequest, "missing field: "+field)
		return
	}

	task := queue.Task{
		ID:         uuid.NewString(),
		Phone:      phone.Normalize(payload.From.Endpoint),
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
		metrics.WebhookRequests.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("enqueue failed")
		responses.ErrorWithStatus(c, http.StatusInternalServerError, "could not accept message")
		return
	}
	metrics.QueueDepth.Set(float64(h.queue.Depth()))

	metrics.WebhookRequests.WithLabelValues("accepted").Inc()
	h.log.Info().Str("task_id", task.ID).Str("phone", task.Phone).Msg("inbound message accepted")
	responses.Message(c, acceptedMessage)
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
