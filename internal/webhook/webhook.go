// Package webhook defines the inbound SMS webhook contract and the
// request authentication that guards it.
package webhook

import "strings"

// Header names the sender signs requests with.
const (
	HeaderSignature = "x-signature"
	HeaderTimestamp = "x-timestamp"
)

// Endpoint identifies one side of an SMS exchange.
type Endpoint struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

// InboundPayload is the webhook body posted by the SMS provider.
// Unknown fields are ignored.
type InboundPayload struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	From       Endpoint `json:"from"`
	To         Endpoint `json:"to"`
	Message    string   `json:"message"`
	ReceivedAt string   `json:"received_at"`
}

// Validate reports whether the payload carries the fields the pipeline
// needs. Returns the name of the first missing field.
func (p *InboundPayload) Validate() (string, bool) {
	if strings.TrimSpace(p.From.Endpoint) == "" {
		return "from.endpoint", false
	}
	if strings.TrimSpace(p.Message) == "" {
		return "message", false
	}
	return "", true
}
