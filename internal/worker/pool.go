package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/delivery"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/queue"
)

const shutdownGrace = 30 * time.Second

// Pool runs a fixed set of delivery workers against the task queue.
type Pool struct {
	queue       queue.TaskQueue
	pipeline    *delivery.Pipeline
	workerCount int
	taskTimeout time.Duration
	log         zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool builds a worker pool.
func NewPool(q queue.TaskQueue, pipeline *delivery.Pipeline, workerCount int, taskTimeout time.Duration, log zerolog.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		queue:       q,
		pipeline:    pipeline,
		workerCount: workerCount,
		taskTimeout: taskTimeout,
		log:         log.With().Str("component", "worker-pool").Logger(),
	}
}

// Start launches the workers. They run until Stop is called.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workerCount; i++ {
		w := newWorker(i, p.queue, p.pipeline, p.taskTimeout, p.log)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(ctx)
		}()
	}
	p.log.Info().Int("workers", p.workerCount).Msg("worker pool started")
}

// Stop signals the workers and waits for in-flight tasks, bounded by the
// shutdown grace period.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("worker pool stopped")
	case <-time.After(shutdownGrace):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}
