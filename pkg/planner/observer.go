package planner

import (
	"time"

	"github.com/ChicagoDave/polyplanner/pkg/result"
)

// Observer receives pipeline outcomes for metrics.
type Observer interface {
	PlanCompleted(res *result.PlanningResult, elapsed time.Duration)
	PlanRejected()
	TerrainDegraded()
}

type nopObserver struct{}

func (nopObserver) PlanCompleted(*result.PlanningResult, time.Duration) {}
func (nopObserver) PlanRejected()                                      {}
func (nopObserver) TerrainDegraded()                                   {}
