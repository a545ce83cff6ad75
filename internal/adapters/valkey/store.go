package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/ChicagoDave/polyplanner/pkg/planner"
)

// JobStore implements planner.JobStore on Valkey (Redis-compatible).
// Jobs are stored as JSON and expire after the configured TTL.
type JobStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// New connects to addr. A zero ttl keeps jobs until deleted.
func New(addr, prefix string, ttl time.Duration) (*JobStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &JobStore{client: client, prefix: prefix, ttl: ttl}, nil
}

// Key returns the storage key for a job ID.
func (s *JobStore) Key(id string) string {
	return s.prefix + id
}

// Save writes job, replacing any previous state.
func (s *JobStore) Save(ctx context.Context, job *planner.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	key := s.Key(job.ID)
	var setErr error
	if s.ttl > 0 {
		setErr = s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Ex(s.ttl).Build()).Error()
	} else {
		setErr = s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Build()).Error()
	}
	if setErr != nil {
		return fmt.Errorf("save job %s: %w", job.ID, setErr)
	}
	return nil
}

// Get loads a job. Missing keys map to planner.ErrJobNotFound.
func (s *JobStore) Get(ctx context.Context, id string) (*planner.Job, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(s.Key(id)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, planner.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var job planner.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Close releases the client.
func (s *JobStore) Close() {
	s.client.Close()
}
