package queue

import (
	"context"
	"sync"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// MemoryQueue is a bounded in-process queue backed by a buffered channel.
// Tasks are lost on process exit; the webhook caller has already been
// acknowledged by then, which matches acknowledge-then-process semantics.
type MemoryQueue struct {
	tasks  chan Task
	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue builds a queue holding at most size tasks.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{tasks: make(chan Task, size)}
}

// Enqueue adds a task. It fails fast when the queue is full or closed so
// the request path never blocks on slow workers. The mutex is held across
// the send so a concurrent Close cannot close the channel between the
// closed check and the send.
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "enqueue task", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return apperrors.New(apperrors.KindInternal, "task queue is full")
	}
}

// Dequeue blocks until a task arrives, the queue closes, or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task, ok := <-q.tasks:
		if !ok {
			return Task{}, ErrClosed
		}
		return task, nil
	case <-ctx.Done():
		return Task{}, apperrors.Wrap(apperrors.KindInternal, "dequeue task", ctx.Err())
	}
}

// Depth reports the number of buffered tasks.
func (q *MemoryQueue) Depth() int {
	return len(q.tasks)
}

// Close stops the queue. Buffered tasks remain consumable by Dequeue.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
}
