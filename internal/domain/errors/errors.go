// Package errors defines the error taxonomy shared across the gateway and
// the delivery pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises a failure so callers can decide how to react without
// inspecting message strings.
type Kind string

const (
	KindAuthentication Kind = "AUTHENTICATION"
	KindRateLimit      Kind = "RATE_LIMIT"
	KindValidation     Kind = "VALIDATION"
	KindConfiguration  Kind = "CONFIGURATION"
	KindCache          Kind = "CACHE"
	KindDatabase       Kind = "DATABASE"
	KindNotFound       Kind = "NOT_FOUND"
	KindTransport      Kind = "TRANSPORT"
	KindGeneration     Kind = "GENERATION"
	KindInternal       Kind = "INTERNAL"
)

// Error carries a kind, a human readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a typed error around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// HTTPStatus maps error kinds to the status codes the webhook caller sees.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindTransport, KindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
