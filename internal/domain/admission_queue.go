package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidbz/kiln/internal/observability"
)

// Job is one admitted generation.
type Job struct {
	Fingerprint    Fingerprint
	Payload        RequestPayload
	CompletionType CompletionType
	Sequence       uint64
	EnqueuedAt     time.Time

	// ctx keeps the request's logging values but not its cancellation:
	// a started generation always runs to completion.
	ctx context.Context //nolint:containedctx // carried across the queue boundary
}

// AdmissionQueue is a bounded FIFO drained by a single worker, the only
// caller into the generators and therefore into the engine.
type AdmissionQueue struct {
	mu       sync.Mutex
	jobs     chan *Job
	sequence uint64
	stopped  bool
	running  atomic.Bool

	cache      *ResponseCache
	generators GeneratorRegistry
}

// NewAdmissionQueue creates a queue holding at most cfg.Capacity waiting jobs.
func NewAdmissionQueue(cfg *QueueConfig, cache *ResponseCache, generators GeneratorRegistry) (*AdmissionQueue, error) {
	if cfg == nil || cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: queue capacity must be positive", ErrConfiguration)
	}
	if cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if generators == nil {
		return nil, errors.New("generator registry cannot be nil")
	}

	return &AdmissionQueue{
		mu:         sync.Mutex{},
		jobs:       make(chan *Job, cfg.Capacity),
		cache:      cache,
		generators: generators,
	}, nil
}

// Enqueue admits a job for a fingerprint the caller claimed with BeginPending.
// It never blocks: a full queue fails with ErrAdmission.
func (q *AdmissionQueue) Enqueue(ctx context.Context, fp Fingerprint, payload RequestPayload) (*Job, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return nil, ErrWorkerStopped
	}

	job := &Job{
		Fingerprint:    fp,
		Payload:        payload,
		CompletionType: payload.CompletionType(),
		Sequence:       q.sequence + 1,
		EnqueuedAt:     time.Now(),
		ctx:            context.WithoutCancel(ctx),
	}

	select {
	case q.jobs <- job:
		q.sequence = job.Sequence
		return job, nil
	default:
		return nil, ErrAdmission
	}
}

// Depth returns the number of jobs waiting for the worker.
func (q *AdmissionQueue) Depth() int {
	return len(q.jobs)
}

// Capacity returns the queue bound.
func (q *AdmissionQueue) Capacity() int {
	return cap(q.jobs)
}

// Run is the worker loop. It processes one job at a time until ctx ends, then
// fails every job still queued with ErrWorkerStopped.
func (q *AdmissionQueue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return errors.New("admission worker already running")
	}

	logger := observability.FromContext(ctx)
	logger.Info("admission worker started", observability.Int("capacity", q.Capacity()))

	for {
		// Shutdown wins over queued work.
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case job := <-q.jobs:
			q.process(job)
		}
	}

	dropped := q.stop()
	logger.Info("admission worker stopped", observability.Int("dropped_jobs", dropped))
	return nil
}

func (q *AdmissionQueue) stop() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true

	dropped := 0
	for {
		select {
		case job := <-q.jobs:
			q.cache.Fail(job.Fingerprint, ErrWorkerStopped)
			dropped++
		default:
			return dropped
		}
	}
}

func (q *AdmissionQueue) process(job *Job) {
	logger := observability.FromContext(job.ctx)
	started := time.Now()

	logger.Debug("job started",
		observability.Uint64("sequence", job.Sequence),
		observability.Duration("queued_for", started.Sub(job.EnqueuedAt)))

	response, err := q.execute(job)
	if err != nil {
		q.cache.Fail(job.Fingerprint, err)
		logger.Warn("job failed, result not cached",
			observability.Uint64("sequence", job.Sequence),
			observability.Error(err))
		return
	}

	q.cache.Complete(job.Fingerprint, response)
	logger.Info("job completed",
		observability.Uint64("sequence", job.Sequence),
		observability.Duration("generation_time", time.Since(started)))
}

// execute runs the job's generator. Every failure surfaces as ErrGeneration.
func (q *AdmissionQueue) execute(job *Job) (response APIResponse, err error) {
	ctx := job.ctx
	logger := observability.FromContext(ctx)

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("generator panicked", observability.Any("panic", recovered))
			logger.Debug("full stacktrace", observability.Stack("stacktrace"))
			response, err = nil, ErrGeneration
		}
	}()

	generator, err := q.generators.Get(ctx, job.CompletionType)
	if err != nil {
		logger.Error("no generator for job", observability.Error(err))
		return nil, ErrGeneration
	}

	response, err = generator.Generate(ctx, job.Payload)
	if err != nil {
		if !errors.Is(err, ErrGeneration) {
			logger.Error("generator returned unexpected error", observability.Error(err))
		}
		return nil, ErrGeneration
	}
	if response == nil {
		return nil, ErrGeneration
	}

	return response, nil
}
