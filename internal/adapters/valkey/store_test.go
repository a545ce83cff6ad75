package valkey

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/pkg/planner"
)

func TestKey(t *testing.T) {
	s := &JobStore{prefix: "polyplanner:job:"}
	assert.Equal(t, "polyplanner:job:abc", s.Key("abc"))
}

// Requires a running server; set POLYPLANNER_TEST_VALKEY_ADDR to enable.
func TestJobStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("POLYPLANNER_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("POLYPLANNER_TEST_VALKEY_ADDR not set")
	}
	store, err := New(addr, "polyplanner-test:", time.Minute)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	job := &planner.Job{ID: uuid.NewString(), Name: "north field", Status: planner.JobQueued, SubmittedAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Name, got.Name)
	assert.Equal(t, planner.JobQueued, got.Status)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, planner.ErrJobNotFound)
}
