// Package queue hands parsed inbound messages from the webhook path to
// the background delivery workers.
package queue

import (
	"context"
	"time"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/webhook"
)

// ErrClosed is returned once the queue has been shut down.
var ErrClosed = apperrors.New(apperrors.KindInternal, "task queue is closed")

// Task is one inbound message awaiting delivery processing.
type Task struct {
	ID         string
	Phone      string
	Payload    webhook.InboundPayload
	EnqueuedAt time.Time
}

// TaskQueue decouples webhook acknowledgement from delivery work.
type TaskQueue interface {
	// Enqueue hands off a task without blocking the request path. A full
	// queue returns an error instead of waiting.
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (Task, error)
	// Depth reports the number of waiting tasks.
	Depth() int
	// Close stops the queue. Enqueue after Close returns an error.
	Close()
}
