package planner

import (
	"errors"

	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

// ErrJobNotFound is returned by job stores for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueFull is returned when the pool cannot accept another job.
var ErrQueueFull = errors.New("job queue is full")

// ErrPoolClosed is returned when submitting to a stopped pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// InputError reports a plan request that failed schema validation. No
// computation is done for such requests.
type InputError struct {
	Report *validation.Report
}

func (e *InputError) Error() string {
	if err := e.Report.Err(); err != nil {
		return "invalid plan: " + err.Error()
	}
	return "invalid plan"
}

// IsInputError reports whether err wraps an *InputError and returns it.
func IsInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
