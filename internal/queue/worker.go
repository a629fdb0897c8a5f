package queue

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// Handler processes one job's payload. An error causes the queue to apply
// the backoff/retry policy in Store.Fail.
type Handler func(ctx context.Context, job *Job) error

// WorkerPool polls one named queue with a configurable number of
// concurrent goroutines, using a ticker-poll loop with a graceful
// sleep-drain on shutdown.
type WorkerPool struct {
	store       *Store
	queue       Name
	handler     Handler
	concurrency int
	pollInterval time.Duration
	logger      arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool builds a pool that dequeues from queueName and dispatches
// to handler.
func NewWorkerPool(parent context.Context, store *Store, queueName Name, concurrency int, pollInterval time.Duration, handler Handler, logger arbor.ILogger) *WorkerPool {
	ctx, cancel := context.WithCancel(parent)
	return &WorkerPool{
		store:        store,
		queue:        queueName,
		handler:      handler,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the worker goroutines. Non-blocking.
func (wp *WorkerPool) Start() {
	wp.logger.Info().Str("queue", string(wp.queue)).Int("concurrency", wp.concurrency).Msg("starting worker pool")
	for i := 0; i < wp.concurrency; i++ {
		go wp.loop(i)
	}
}

// Stop cancels the pool context and gives in-flight handlers a brief
// window to finish before returning: cancel, then a short drain sleep.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	time.Sleep(500 * time.Millisecond)
	wp.logger.Info().Str("queue", string(wp.queue)).Msg("worker pool stopped")
}

func (wp *WorkerPool) loop(workerID int) {
	stagger := (wp.pollInterval / time.Duration(wp.concurrency)) * time.Duration(workerID)
	if stagger > 0 {
		time.Sleep(stagger)
	}

	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case <-ticker.C:
			wp.processOne(workerID)
		}
	}
}

func (wp *WorkerPool) processOne(workerID int) {
	job, err := wp.store.Dequeue(wp.ctx, wp.queue)
	if err != nil {
		if err != ErrNoJob {
			wp.logger.Warn().Err(err).Int("worker_id", workerID).Str("queue", string(wp.queue)).Msg("dequeue failed")
		}
		return
	}

	start := time.Now()
	handlerErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errFromPanic(r)
			}
		}()
		return wp.handler(wp.ctx, job)
	}()
	duration := time.Since(start)

	if handlerErr != nil {
		wp.logger.Error().Err(handlerErr).Str("job_id", job.ID).Str("queue", string(wp.queue)).Dur("duration", duration).Msg("job handler failed")
		if err := wp.store.Fail(wp.ctx, job.ID, handlerErr); err != nil {
			wp.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to record job failure")
		}
		return
	}

	wp.logger.Info().Str("job_id", job.ID).Str("queue", string(wp.queue)).Dur("duration", duration).Msg("job completed")
	if err := wp.store.Complete(wp.ctx, job.ID); err != nil {
		wp.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job completed")
	}
}
