package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/delivery"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/metrics"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
)

// worker consumes tasks one at a time. It blocks on the queue rather
// than polling.
type worker struct {
	id          int
	queue       queue.TaskQueue
	pipeline    *delivery.Pipeline
	taskTimeout time.Duration
	log         zerolog.Logger
}

func newWorker(id int, q queue.TaskQueue, pipeline *delivery.Pipeline, taskTimeout time.Duration, log zerolog.Logger) *worker {
	return &worker{
		id:          id,
		queue:       q,
		pipeline:    pipeline,
		taskTimeout: taskTimeout,
		log:         log.With().Int("worker_id", id).Logger(),
	}
}

func (w *worker) run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			return
		}
		metrics.QueueDepth.Set(float64(w.queue.Depth()))

		w.process(ctx, task)
	}
}

func (w *worker) process(ctx context.Context, task queue.Task) {
	taskCtx := ctx
	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}

	// Pipeline failures are terminal and already logged with context;
	// the worker moves on to the next task.
	_ = w.pipeline.Process(taskCtx, task)
}
