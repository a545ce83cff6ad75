package planner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
)

// squareSpec returns a plan for a 200 m square centered on (lat, 0).
func squareSpec(lat float64) *spec.PlanSpec {
	s := spec.Default()
	s.Name = "square"
	dLat := 100 / geo.MetersPerDegree
	dLng := 100 / (geo.MetersPerDegree * math.Cos(geo.Deg2Rad(lat)))
	s.Boundary = []geo.GeoPoint{
		{Lat: lat - dLat, Lng: -dLng},
		{Lat: lat - dLat, Lng: dLng},
		{Lat: lat + dLat, Lng: dLng},
		{Lat: lat + dLat, Lng: -dLng},
	}
	return &s
}

type countingObserver struct {
	mu        sync.Mutex
	completed int
	rejected  int
	degraded  int
}

func (o *countingObserver) PlanCompleted(*result.PlanningResult, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed++
}

func (o *countingObserver) PlanRejected() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected++
}

func (o *countingObserver) TerrainDegraded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degraded++
}

func TestPlanEquatorialSquare(t *testing.T) {
	obs := &countingObserver{}
	res, err := New(WithObserver(obs)).Plan(context.Background(), squareSpec(0))
	require.NoError(t, err)

	require.NotEmpty(t, res.Structures)
	assert.Greater(t, res.CoveragePercentage, 60.0)
	assert.Equal(t, packing.TerminationExhausted, res.TerminationReason)
	assert.True(t, res.Validation.Valid, res.Validation.Summary)
	assert.False(t, res.Degraded)
	assert.Equal(t, 100.0, res.BuildableAreaPercentage)
	assert.Equal(t, 1, obs.completed)
}

func TestPlanPolarParcelKeepsNorthSouth(t *testing.T) {
	res, err := New().Plan(context.Background(), squareSpec(70))
	require.NoError(t, err)

	require.NotEmpty(t, res.Structures)
	assert.Equal(t, 0.0, res.Orientation.AllowedDeviationDegrees)
	for _, s := range res.Structures {
		assert.Equal(t, 0.0, s.RotationDegrees, s.ID)
	}
}

func TestPlanInvalidSpec(t *testing.T) {
	s := squareSpec(0)
	s.Boundary = s.Boundary[:2]
	obs := &countingObserver{}

	res, err := New(WithObserver(obs)).Plan(context.Background(), s)
	require.Error(t, err)
	assert.Nil(t, res)

	ie, ok := IsInputError(err)
	require.True(t, ok)
	assert.False(t, ie.Report.Valid)
	assert.Contains(t, err.Error(), "invalid plan")
	assert.Equal(t, 1, obs.rejected)
	assert.Zero(t, obs.completed)
}

func TestPlanFullyExcludedParcel(t *testing.T) {
	s := squareSpec(0)
	d := 150 / geo.MetersPerDegree
	s.Exclusions = []spec.Exclusion{{
		Name: "reservoir",
		Kind: "water",
		Polygon: []geo.GeoPoint{
			{Lat: -d, Lng: -d}, {Lat: -d, Lng: d}, {Lat: d, Lng: d}, {Lat: d, Lng: -d},
		},
	}}

	res, err := New().Plan(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, res.Structures)
	assert.Equal(t, packing.TerminationNoValidOrientation, res.TerminationReason)
	require.Len(t, res.RestrictedZones, 1)
	assert.Equal(t, "reservoir", res.RestrictedZones[0].ID)
}

func TestPlanTerrainWaterIsAvoided(t *testing.T) {
	s := squareSpec(0)
	s.Constraints.TerrainEnabled = true
	s.Terrain.SourceURL = "http://unused.invalid"
	pr := geo.ProjectorFor(s.Boundary)
	src := terrain.FuncSource{
		ElevationFunc: func(geo.GeoPoint) (float64, error) { return 50, nil },
		LandCoverFunc: func(g geo.GeoPoint) (terrain.LandCover, error) {
			if pr.ToLocal(g).X < -40 {
				return terrain.LandCoverWater, nil
			}
			return terrain.LandCoverCropland, nil
		},
	}

	res, err := New(WithTerrainSource(src)).Plan(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	require.NotEmpty(t, res.RestrictedZones)
	assert.Equal(t, "water", res.RestrictedZones[0].Kind)
	assert.Less(t, res.BuildableAreaPercentage, 100.0)
	require.NotEmpty(t, res.Structures)
	assert.True(t, res.Validation.Valid, res.Validation.Summary)
	for _, st := range res.Structures {
		for _, p := range st.LocalFootprint {
			assert.Greater(t, p.X, -40.0, st.ID)
		}
	}
}

func TestPlanTerrainFailureDegrades(t *testing.T) {
	s := squareSpec(0)
	s.Constraints.TerrainEnabled = true
	s.Terrain.MaxRetries = 0
	src := terrain.FuncSource{
		ElevationFunc: func(geo.GeoPoint) (float64, error) { return 0, errors.New("service down") },
	}
	obs := &countingObserver{}

	res, err := New(WithTerrainSource(src), WithObserver(obs)).Plan(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.DegradedReason)
	assert.NotEmpty(t, res.Structures)
	assert.Equal(t, 1, obs.degraded)
}

func TestPlanWithoutSolarUsesAlignedOrientations(t *testing.T) {
	s := squareSpec(30)
	s.Constraints.SolarEnabled = false
	res, err := New().Plan(context.Background(), s)
	require.NoError(t, err)

	require.NotEmpty(t, res.Orientations)
	for _, o := range res.Orientations {
		assert.True(t, o.Angle >= 0 && o.Angle < 180, "angle %v", o.Angle)
	}
}

func TestPlanReportsProgress(t *testing.T) {
	var events []packing.Event
	res, err := New().PlanWithProgress(context.Background(), squareSpec(0), func(e packing.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	placed := 0
	for _, e := range events {
		if e.Kind == packing.EventStructurePlaced {
			placed++
		}
	}
	assert.Equal(t, len(res.Structures), placed)
}

func TestPlanTargetCoverage(t *testing.T) {
	s := squareSpec(0)
	s.Optimizer.TargetCoverage = 0.2
	res, err := New().Plan(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, packing.TerminationAreaBudgetReached, res.TerminationReason)
	assert.GreaterOrEqual(t, res.CoveragePercentage, 19.0)
}
