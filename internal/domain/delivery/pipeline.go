// Package delivery runs the background half of the message flow: persist
// the inbound message, generate a reply, and send it back in segments.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/metrics"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
	"github.com/inkwell-books/sms-concierge/internal/sms"
)

// Text sent when a delivery fails terminally. Kept inside the GSM-7
// repertoire so it never needs substitution or splitting.
const apologyText = "Sorry, we hit a snag answering your message. Please text us again in a moment."

// ConversationStore is the slice of the store the pipeline needs.
type ConversationStore interface {
	Append(ctx context.Context, phone, content string, direction conversation.Direction, metadata map[string]string) (*conversation.Context, *conversation.Message, error)
	UpdateMessageStatus(ctx context.Context, messageID uint, status conversation.DeliveryStatus) error
	RecordMentions(ctx context.Context, convCtx *conversation.Context, books []string) error
}

// Generator produces the assistant reply for an inbound message.
type Generator interface {
	Generate(ctx context.Context, message string, history []conversation.ContextMessage, customerContext map[string]string) (string, error)
}

// Transport sends one message body to the recipients.
type Transport interface {
	Send(ctx context.Context, body string, to []string) error
}

// Catalog matches catalog titles mentioned in a reply. Optional.
type Catalog interface {
	MatchTitles(ctx context.Context, text string) ([]string, error)
}

// Pipeline processes one enqueued inbound message end to end. A failure
// after enqueueing is terminal for that delivery: the pipeline logs it
// and sends a single best-effort fallback notice, never an automatic
// retry, so a flaky generator cannot double-charge or double-reply.
type Pipeline struct {
	store         ConversationStore
	generator     Generator
	transport     Transport
	catalog       Catalog
	segmentLength int
	now           func() time.Time
	log           zerolog.Logger
}

// NewPipeline builds a delivery pipeline. catalog may be nil.
func NewPipeline(store ConversationStore, generator Generator, transport Transport, catalog Catalog, segmentLength int, log zerolog.Logger) *Pipeline {
	if segmentLength <= 0 {
		segmentLength = sms.DefaultSegmentLength
	}
	return &Pipeline{
		store:         store,
		generator:     generator,
		transport:     transport,
		catalog:       catalog,
		segmentLength: segmentLength,
		now:           time.Now,
		log:           log.With().Str("component", "delivery-pipeline").Logger(),
	}
}

// Process handles one task. The returned error is for logging and
// metrics only; the caller must not retry.
func (p *Pipeline) Process(ctx context.Context, task queue.Task) error {
	log := p.log.With().Str("task_id", task.ID).Str("phone", task.Phone).Logger()

	convCtx, _, err := p.store.Append(ctx, task.Phone, task.Payload.Message, conversation.DirectionInbound, inboundMetadata(task))
	if err != nil {
		return p.fail(ctx, log, task.Phone, apperrors.Wrap(apperrors.KindDatabase, "append inbound message", err))
	}

	// History excludes the message just appended; the generator receives
	// it separately as the current turn.
	history := convCtx.History()

	start := p.now()
	reply, err := p.generator.Generate(ctx, task.Payload.Message, history, p.customerContext(convCtx))
	metrics.GenerationDuration.Observe(p.now().Sub(start).Seconds())
	if err != nil {
		return p.fail(ctx, log, task.Phone, err)
	}

	convCtx, outbound, err := p.store.Append(ctx, task.Phone, reply, conversation.DirectionOutbound, nil)
	if err != nil {
		return p.fail(ctx, log, task.Phone, apperrors.Wrap(apperrors.KindDatabase, "append outbound message", err))
	}

	p.recordMentions(ctx, log, convCtx, reply)

	chunks := sms.Split(sms.ToGSM7(reply), p.segmentLength)
	metrics.SegmentsPerReply.Observe(float64(len(chunks)))

	for i, chunk := range chunks {
		if err := p.transport.Send(ctx, chunk, []string{task.Phone}); err != nil {
			if statusErr := p.store.UpdateMessageStatus(ctx, outbound.ID, conversation.DeliveryFailed); statusErr != nil {
				log.Error().Err(statusErr).Msg("mark outbound message failed")
			}
			return p.fail(ctx, log, task.Phone,
				apperrors.Wrap(apperrors.KindTransport, fmt.Sprintf("send chunk %d of %d", i+1, len(chunks)), err))
		}
	}

	if err := p.store.UpdateMessageStatus(ctx, outbound.ID, conversation.DeliverySent); err != nil {
		log.Error().Err(err).Msg("mark outbound message sent")
	}

	metrics.Deliveries.WithLabelValues("sent").Inc()
	log.Info().Int("segments", len(chunks)).Msg("delivery complete")
	return nil
}

// fail logs the terminal error, counts it, and sends one best-effort
// apology to the sender. The apology failing is logged and swallowed.
func (p *Pipeline) fail(ctx context.Context, log zerolog.Logger, phone string, err error) error {
	metrics.Deliveries.WithLabelValues("failed").Inc()
	log.Error().Err(err).Msg("delivery failed")

	if sendErr := p.transport.Send(ctx, apologyText, []string{phone}); sendErr != nil {
		log.Warn().Err(sendErr).Msg("apology message not delivered")
	}
	return err
}

func (p *Pipeline) recordMentions(ctx context.Context, log zerolog.Logger, convCtx *conversation.Context, reply string) {
	if p.catalog == nil {
		return
	}

	titles, err := p.catalog.MatchTitles(ctx, reply)
	if err != nil {
		log.Warn().Err(err).Msg("catalog lookup failed")
		return
	}
	if len(titles) == 0 {
		return
	}
	if err := p.store.RecordMentions(ctx, convCtx, titles); err != nil {
		log.Warn().Err(err).Msg("record mentioned titles failed")
	}
}

// customerContext builds the flat key-value map handed to the generator.
func (p *Pipeline) customerContext(convCtx *conversation.Context) map[string]string {
	now := p.now()
	m := map[string]string{
		"customer_id":  convCtx.CustomerPublicID,
		"phone":        convCtx.Phone,
		"current_time": now.Format("15:04"),
		"current_date": now.Format("2006-01-02"),
		"day_of_week":  now.Weekday().String(),
	}
	if convCtx.CustomerName != nil && *convCtx.CustomerName != "" {
		m["name"] = *convCtx.CustomerName
	}
	return m
}

func inboundMetadata(task queue.Task) map[string]string {
	m := map[string]string{}
	if task.Payload.ID != "" {
		m["provider_message_id"] = task.Payload.ID
	}
	if task.Payload.ReceivedAt != "" {
		m["provider_received_at"] = task.Payload.ReceivedAt
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
