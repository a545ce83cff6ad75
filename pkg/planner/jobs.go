package planner

import (
	"context"
	"sync"
	"time"

	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/result"
)

// JobStatus is the lifecycle state of an asynchronous plan.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is an asynchronous planning request and its outcome.
type Job struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name,omitempty"`
	Status      JobStatus              `json:"status"`
	SubmittedAt time.Time              `json:"submitted_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
	Progress    *packing.Event         `json:"progress,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Result      *result.PlanningResult `json:"result,omitempty"`
}

// JobStore persists job state.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}

// EventPublisher broadcasts job progress.
type EventPublisher interface {
	PublishProgress(ctx context.Context, jobID string, e packing.Event) error
	PublishStatus(ctx context.Context, job *Job) error
}

// MemoryStore is an in-process JobStore.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

// Save stores a copy of job.
func (m *MemoryStore) Save(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

// Get returns a copy of the stored job.
func (m *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &j, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishProgress(context.Context, string, packing.Event) error { return nil }
func (nopPublisher) PublishStatus(context.Context, *Job) error                    { return nil }
