// Package catalog looks up store inventory so replies can be annotated
// with the titles they mention.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// Client queries the bookstore catalog API.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewClient builds a catalog client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		log: log.With().Str("component", "catalog").Logger(),
	}
}

type matchRequest struct {
	Text string `json:"text"`
}

type matchResponse struct {
	Titles []string `json:"titles"`
}

// MatchTitles returns the catalog titles mentioned in the text. An empty
// slice means no matches.
func (c *Client) MatchTitles(ctx context.Context, text string) ([]string, error) {
	var result matchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(matchRequest{Text: text}).
		SetResult(&result).
		Post("/v1/titles/match")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "match catalog titles", err)
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.KindTransport, fmt.Sprintf("catalog api error: %s", resp.Status()))
	}
	return result.Titles, nil
}
