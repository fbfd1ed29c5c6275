// Package llmprovider calls the external chat-completion API that
// writes the assistant replies.
package llmprovider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// Config holds the connection settings for the completion API.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	client       *resty.Client
	model        string
	systemPrompt string
	log          zerolog.Logger
}

// NewClient builds a completion client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Client{
		client:       client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		log:          log.With().Str("component", "llm-provider").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces a reply to the inbound message given the bounded
// conversation history and the flat customer context map.
func (c *Client) Generate(ctx context.Context, message string, history []conversation.ContextMessage, customerContext map[string]string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: c.systemPrompt + "\n\n" + renderContext(customerContext),
	})
	for _, h := range history {
		messages = append(messages, chatMessage{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	var result chatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{Model: c.model, Messages: messages}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindGeneration, "call completion api", err)
	}
	if resp.IsError() {
		detail := resp.Status()
		if result.Error != nil && result.Error.Message != "" {
			detail = result.Error.Message
		}
		return "", apperrors.New(apperrors.KindGeneration, fmt.Sprintf("completion api error: %s", detail))
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", apperrors.New(apperrors.KindGeneration, "completion api returned no content")
	}

	reply := strings.TrimSpace(result.Choices[0].Message.Content)
	c.log.Debug().Int("history_len", len(history)).Int("reply_len", len(reply)).Msg("generated reply")
	return reply, nil
}

// renderContext flattens the customer context map into prompt lines with
// a stable key order.
func renderContext(customerContext map[string]string) string {
	if len(customerContext) == 0 {
		return ""
	}

	keys := make([]string, 0, len(customerContext))
	for k := range customerContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Customer context:")
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(customerContext[k])
	}
	return b.String()
}
