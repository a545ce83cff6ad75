package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers   int
	QueueSize int
	// JobTimeout bounds a single job on top of the plan's own budget.
	JobTimeout time.Duration
}

type queuedJob struct {
	job  *Job
	spec *spec.PlanSpec
}

// Pool runs plans on a fixed set of workers fed by a bounded queue. Workers
// share nothing but the store and the publisher.
type Pool struct {
	planner *Planner
	store   JobStore
	events  EventPublisher
	logger  *slog.Logger
	cfg     PoolConfig

	queue  chan queuedJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool. A nil store uses memory; a nil publisher drops
// events.
func NewPool(p *Planner, store JobStore, events EventPublisher, cfg PoolConfig, logger *slog.Logger) *Pool {
	if store == nil {
		store = NewMemoryStore()
	}
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 4
	}
	return &Pool{
		planner: p,
		store:   store,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		queue:   make(chan queuedJob, cfg.QueueSize),
	}
}

// Start launches the workers. Cancelling ctx aborts running jobs, which
// finish with partial results.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			for item := range p.queue {
				p.run(ctx, worker, item)
			}
		}(i)
	}
	p.logger.Info("worker pool started", "workers", p.cfg.Workers, "queue", p.cfg.QueueSize)
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit validates s and queues it. Invalid plans are rejected with an
// *InputError before a job is created.
func (p *Pool) Submit(ctx context.Context, s *spec.PlanSpec) (*Job, error) {
	if report := validation.ValidateSchema(s); !report.Valid {
		return nil, &InputError{Report: report}
	}

	job := &Job{
		ID:          uuid.NewString(),
		Name:        s.Name,
		Status:      JobQueued,
		SubmittedAt: time.Now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	if err := p.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	// The worker owns job once it is queued.
	snapshot := *job
	select {
	case p.queue <- queuedJob{job: job, spec: s}:
	default:
		job.Status = JobFailed
		job.Error = ErrQueueFull.Error()
		_ = p.store.Save(ctx, job)
		return nil, ErrQueueFull
	}
	return &snapshot, nil
}

// Get returns the current state of a job.
func (p *Pool) Get(ctx context.Context, id string) (*Job, error) {
	return p.store.Get(ctx, id)
}

func (p *Pool) run(ctx context.Context, worker int, item queuedJob) {
	job := item.job
	logger := p.logger.With("job_id", job.ID, "worker", worker)

	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	started := time.Now().UTC()
	job.Status = JobRunning
	job.StartedAt = &started
	p.save(ctx, job, logger)

	progress := func(e packing.Event) {
		if err := p.events.PublishProgress(ctx, job.ID, e); err != nil {
			logger.Debug("progress publish failed", "error", err)
		}
		if e.Kind == packing.EventTierCompleted {
			job.Progress = &e
			p.save(ctx, job, logger)
		}
	}

	res, err := p.planner.PlanWithProgress(ctx, item.spec, progress)
	finished := time.Now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		logger.Warn("job failed", "error", err)
	} else {
		job.Status = JobSucceeded
		job.Result = res
	}
	// The store may outlive ctx; persist the terminal state regardless.
	p.save(context.WithoutCancel(ctx), job, logger)
}

func (p *Pool) save(ctx context.Context, job *Job, logger *slog.Logger) {
	if err := p.store.Save(ctx, job); err != nil {
		logger.Error("saving job", "status", job.Status, "error", err)
	}
	if err := p.events.PublishStatus(ctx, job); err != nil {
		logger.Debug("status publish failed", "error", err)
	}
}
