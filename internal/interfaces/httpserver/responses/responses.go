// Package responses holds the shared HTTP response envelopes.
package responses

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// MessageResponse acknowledges a successful request.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// Message writes a 200 acknowledgement.
func Message(c *gin.Context, msg string) {
	c.JSON(200, MessageResponse{Message: msg})
}

// Error writes the status derived from the error's kind.
func Error(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(apperrors.KindOf(err)), ErrorResponse{Error: err.Error()})
}

// ErrorWithStatus writes an explicit status.
func ErrorWithStatus(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}
