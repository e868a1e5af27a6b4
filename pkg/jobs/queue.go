package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrQueueClosed is returned when a job is offered to a queue that is not accepting work.
	ErrQueueClosed = errors.New("queue closed")
	// ErrQueueFull is returned by Enqueue when the buffer has no free slot.
	ErrQueueFull = errors.New("queue full")
)

// Job is one unit of deferred work, typically a post-commit side effect.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A non-nil error schedules a retry.
type Handler func(context.Context, Job) error

// DeadLetterFunc observes jobs that will not be attempted again.
type DeadLetterFunc func(Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	DrainTimeout  time.Duration
	Logger        *zap.Logger
	OnDeadLetter  DeadLetterFunc
}

type queueState int

const (
	stateIdle queueState = iota
	stateRunning
	stateStopping
)

// Queue dispatches jobs to a fixed worker pool. Failed jobs are retried with exponential
// backoff. Stop drains jobs already buffered; jobs still waiting for a retry are dead-lettered.
// Nothing is persisted, so a process crash loses buffered jobs.
type Queue struct {
	name   string
	handle Handler
	cfg    QueueConfig
	logger *zap.Logger

	jobs     chan Job
	stopping chan struct{}

	mu    sync.RWMutex
	state queueState

	runCtx       context.Context
	cancelRun    context.CancelFunc
	retryCtx     context.Context
	cancelRetry  context.CancelFunc
	workerGroup  sync.WaitGroup
	pendingRetry sync.WaitGroup
	senders      sync.WaitGroup
}

// NewQueue builds an idle queue; call Start before enqueueing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:     name,
		handle:   handler,
		cfg:      cfg,
		logger:   cfg.Logger.With(zap.String("queue", name)),
		jobs:     make(chan Job, cfg.BufferSize),
		stopping: make(chan struct{}),
	}
}

// Start launches the workers. Calling it again is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.runCtx, q.cancelRun = context.WithCancel(ctx)
	q.retryCtx, q.cancelRetry = context.WithCancel(q.runCtx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.workerGroup.Add(1)
		go q.worker(i + 1)
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, dead-letters jobs waiting for a retry, then lets the workers finish the
// buffered jobs. Handlers still running after DrainTimeout see their context cancelled.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateStopping
	close(q.stopping)
	q.mu.Unlock()

	q.cancelRetry()
	q.pendingRetry.Wait()
	q.senders.Wait()
	close(q.jobs)

	drained := make(chan struct{})
	go func() {
		q.workerGroup.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(q.cfg.DrainTimeout):
		q.logger.Warn("queue drain timed out", zap.Int("pending", len(q.jobs)))
		q.cancelRun()
		<-drained
	}
	q.cancelRun()
	q.logger.Info("queue stopped")
}

// Enqueue offers a job to the workers without waiting. When the buffer is full the job is
// dead-lettered and ErrQueueFull returned, so callers never stall on slow handlers.
func (q *Queue) Enqueue(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	err := q.push(job, false)
	if errors.Is(err, ErrQueueFull) {
		q.logger.Warn("queue full, job dropped", zap.String("job_id", job.ID), zap.String("type", job.Type))
		q.deadLetter(job, err)
	}
	return err
}

// Pending reports how many jobs are buffered and not yet picked up.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// push hands job to the workers. Only retries wait for a free slot.
func (q *Queue) push(job Job, wait bool) error {
	q.mu.RLock()
	if q.state != stateRunning {
		q.mu.RUnlock()
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	q.senders.Add(1)
	q.mu.RUnlock()
	defer q.senders.Done()

	if !wait {
		select {
		case q.jobs <- job:
			return nil
		default:
			return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
		}
	}
	select {
	case q.jobs <- job:
		return nil
	case <-q.stopping:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
}

func (q *Queue) worker(id int) {
	defer q.workerGroup.Done()
	for job := range q.jobs {
		err := q.handle(q.runCtx, job)
		if err == nil {
			continue
		}
		q.logger.Debug("job handler failed", zap.Int("worker", id), zap.String("job_id", job.ID), zap.Error(err))
		q.retry(job, err)
	}
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(cause))
		q.deadLetter(job, cause)
		return
	}

	q.mu.RLock()
	if q.state != stateRunning {
		q.mu.RUnlock()
		q.deadLetter(job, fmt.Errorf("queue %s stopping: %w", q.name, cause))
		return
	}
	q.pendingRetry.Add(1)
	q.mu.RUnlock()

	delay := q.backoff(job.Attempt)
	q.logger.Warn("job failed, retrying",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)

	go func() {
		defer q.pendingRetry.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.retryCtx.Done():
			q.deadLetter(job, fmt.Errorf("queue %s stopped before retry: %w", q.name, cause))
		case <-timer.C:
			if err := q.push(job, true); err != nil {
				q.deadLetter(job, err)
			}
		}
	}()
}

// backoff doubles RetryDelay for each attempt after the first, capped at MaxRetryDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return delay
}

func (q *Queue) deadLetter(job Job, err error) {
	if q.cfg.OnDeadLetter != nil {
		q.cfg.OnDeadLetter(job, err)
	}
}
