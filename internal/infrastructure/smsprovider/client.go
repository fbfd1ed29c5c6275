// Package smsprovider sends outbound messages through the external SMS
// gateway.
package smsprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	FromNumber string
	Timeout    time.Duration
}

// Client posts messages to the SMS gateway HTTP API.
type Client struct {
	client     *resty.Client
	fromNumber string
	log        zerolog.Logger
}

// NewClient builds an SMS gateway client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Client{
		client:     client,
		fromNumber: cfg.FromNumber,
		log:        log.With().Str("component", "sms-provider").Logger(),
	}
}

type sendRequest struct {
	Body string   `json:"body"`
	To   []string `json:"to"`
	From string   `json:"from"`
}

// SendResult is the gateway's acknowledgement for one message.
type SendResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Send delivers one message body to the recipients. Phone numbers must
// already be normalized to digit-only international form.
func (c *Client) Send(ctx context.Context, body string, to []string) (*SendResult, error) {
	var result SendResult
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(sendRequest{Body: body, To: to, From: c.fromNumber}).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "send sms", err)
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.KindTransport, fmt.Sprintf("sms gateway error: %s", resp.Status()))
	}

	c.log.Debug().Str("message_id", result.ID).Str("status", result.Status).Msg("sms accepted by gateway")
	return &result, nil
}
