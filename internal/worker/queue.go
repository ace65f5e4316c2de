// Package worker runs pipeline jobs on a fixed pool of goroutines fed by a buffered channel.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maigenai/fingenius/internal/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueClosed = errors.New("processing queue is shutting down")
	ErrQueueFull   = errors.New("processing queue is full")
)

type Runner interface {
	Run(ctx context.Context, documentID uuid.UUID) pipeline.Outcome
}

type Queue struct {
	runner  Runner
	logger  *zap.Logger
	workers int
	timeout time.Duration

	jobs   chan uuid.UUID
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.jobs = make(chan uuid.UUID, n)
		}
	}
}

// WithJobTimeout bounds a single run; zero leaves runs unbounded.
func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers immediately.
func NewQueue(runner Runner, logger *zap.Logger, opts ...Option) *Queue {
	q := &Queue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		jobs:    make(chan uuid.UUID, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		q.group = &errgroup.Group{}
		for i := 0; i < q.workers; i++ {
			workerID := i + 1
			q.group.Go(func() error {
				q.logger.Debug("Worker started", zap.Int("worker_id", workerID))
				for id := range q.jobs {
					q.process(workerID, id)
				}
				q.logger.Debug("Worker stopped", zap.Int("worker_id", workerID))
				return nil
			})
		}
	})
}

func (q *Queue) process(workerID int, id uuid.UUID) {
	ctx := q.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	out := q.runner.Run(ctx, id)
	if out.Err != nil {
		q.logger.Error("Processing failed",
			zap.Int("worker_id", workerID),
			zap.String("document_id", id.String()),
			zap.String("status", string(out.Status)),
			zap.Error(out.Err),
		)
		return
	}
	q.logger.Info("Processed document",
		zap.Int("worker_id", workerID),
		zap.String("document_id", id.String()),
	)
}

// Enqueue hands the document to the pool without waiting for processing.
func (q *Queue) Enqueue(_ context.Context, documentID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- documentID:
		q.logger.Info("Queued document for processing", zap.String("document_id", documentID.String()))
		return nil
	default:
		q.logger.Warn("Queue full, rejecting document", zap.String("document_id", documentID.String()))
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued jobs. If ctx ends first, running
// jobs are cancelled; their documents still end up failed.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.group.Wait()
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("Queue drained, shutdown complete")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		q.logger.Warn("Shutdown interrupted, in-flight jobs cancelled")
		return ctx.Err()
	}
}
