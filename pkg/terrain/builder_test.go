package terrain

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.RetryInterval = time.Millisecond
	s.FetchTimeout = 2 * time.Second
	s.RoadMaxWidth = 25
	return s
}

// square200 returns a projector at the origin and a 200 m square boundary.
func square200() (*geo.Projector, geo.Polygon) {
	return geo.NewProjector(geo.GeoPoint{}), geo.Rect(-100, -100, 100, 100)
}

func localSource(pr *geo.Projector, elev func(geo.Point2D) float64, cover func(geo.Point2D) LandCover) FuncSource {
	return FuncSource{
		ElevationFunc: func(g geo.GeoPoint) (float64, error) {
			if elev == nil {
				return 100, nil
			}
			return elev(pr.ToLocal(g)), nil
		},
		LandCoverFunc: func(g geo.GeoPoint) (LandCover, error) {
			if cover == nil {
				return LandCoverCropland, nil
			}
			return cover(pr.ToLocal(g)), nil
		},
	}
}

func TestBuildWithoutSourceIsDegraded(t *testing.T) {
	pr, boundary := square200()
	res := NewBuilder(nil, testSettings(), nil).Build(context.Background(), pr, boundary)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Zones)
	assert.Equal(t, 100.0, res.Stats.BuildableAreaPercentage)
}

func TestBuildFlatCropland(t *testing.T) {
	pr, boundary := square200()
	res := NewBuilder(localSource(pr, nil, nil), testSettings(), nil).Build(context.Background(), pr, boundary)

	require.False(t, res.Degraded)
	assert.Empty(t, res.Zones)
	assert.Equal(t, 400, res.Stats.SampleCount)
	assert.Equal(t, 100.0, res.Stats.BuildableAreaPercentage)
	assert.InDelta(t, 0, res.Stats.AverageSlope, 1e-9)
	assert.Equal(t, 100.0, res.Stats.ElevationMin)
	assert.Equal(t, 100.0, res.Stats.ElevationMax)
}

func TestBuildWaterStripe(t *testing.T) {
	pr, boundary := square200()
	cover := func(p geo.Point2D) LandCover {
		if p.X < -50 {
			return LandCoverWater
		}
		return LandCoverCropland
	}
	res := NewBuilder(localSource(pr, nil, cover), testSettings(), nil).Build(context.Background(), pr, boundary)

	require.Len(t, res.Zones, 1)
	z := res.Zones[0]
	assert.Equal(t, KindWater, z.Kind)
	assert.Equal(t, "water_1", z.ID)
	assert.Equal(t, 100, z.SampleCount)
	assert.Equal(t, 1.0, z.Severity)
	assert.Len(t, z.Parts, 20, "one merged run per grid row")
	// Each run spans five 10 m cells and is offset 10 m on every side.
	assert.InDelta(t, 70*30, z.Parts[0].Area(), 1e-6)
	assert.True(t, z.Parts[0].IsCounterClockwise())
	assert.InDelta(t, 75, res.Stats.BuildableAreaPercentage, 1e-9)

	// Samples reach x = -55; the cell edge plus one spacing of buffer reaches -40.
	ix := NewZoneIndex(res.Zones)
	assert.False(t, ix.Clear(geo.Rect(-45, -10, -35, 10), 0))
	assert.False(t, ix.Clear(geo.Rect(-39, -10, -30, 10), 2))
	assert.True(t, ix.Clear(geo.Rect(-37, -10, -30, 10), 2))
}

func TestBuildSteepSlope(t *testing.T) {
	pr, boundary := square200()
	tan30 := math.Tan(30 * math.Pi / 180)
	elev := func(p geo.Point2D) float64 { return 500 + p.X*tan30 }
	res := NewBuilder(localSource(pr, elev, nil), testSettings(), nil).Build(context.Background(), pr, boundary)

	require.Len(t, res.Zones, 1)
	assert.Equal(t, KindSteepSlope, res.Zones[0].Kind)
	assert.Equal(t, 0.0, res.Stats.BuildableAreaPercentage)
	assert.InDelta(t, 30, res.Stats.AverageSlope, 0.01)
	assert.Less(t, res.Stats.ElevationMin, res.Stats.ElevationMax)
	assert.InDelta(t, 30.0/30.0, res.Zones[0].Severity, 0.01)
}

func TestBuildRoadHeuristic(t *testing.T) {
	pr, boundary := square200()
	cover := func(p geo.Point2D) LandCover {
		switch {
		case math.Abs(p.Y) < 6:
			return LandCoverImpervious
		case p.X > 40 && p.Y > 40:
			return LandCoverImpervious
		}
		return LandCoverGrassland
	}
	res := NewBuilder(localSource(pr, nil, cover), testSettings(), nil).Build(context.Background(), pr, boundary)

	require.Len(t, res.Zones, 1, "only the narrow strip is a road")
	assert.Equal(t, KindRoad, res.Zones[0].Kind)
	assert.Equal(t, 40, res.Zones[0].SampleCount)
	assert.InDelta(t, 90, res.Stats.BuildableAreaPercentage, 1e-9)
}

func TestBuildRetriesThenDegrades(t *testing.T) {
	pr, boundary := square200()
	var calls atomic.Int32
	src := FuncSource{
		ElevationFunc: func(geo.GeoPoint) (float64, error) {
			calls.Add(1)
			return 0, errors.New("upstream unavailable")
		},
	}
	settings := testSettings()
	settings.MaxRetries = 2
	res := NewBuilder(src, settings, nil).Build(context.Background(), pr, boundary)

	assert.True(t, res.Degraded)
	assert.Contains(t, res.DegradedReason, "upstream unavailable")
	assert.Empty(t, res.Zones)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestBuildHardTimeout(t *testing.T) {
	pr, boundary := square200()
	src := blockingSource{}
	settings := testSettings()
	settings.FetchTimeout = 50 * time.Millisecond

	start := time.Now()
	res := NewBuilder(src, settings, nil).Build(context.Background(), pr, boundary)
	assert.True(t, res.Degraded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type blockingSource struct{}

func (blockingSource) FetchSamples(ctx context.Context, _ []geo.GeoPoint) ([]RawSample, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingSource) FetchElevation(ctx context.Context, _ geo.GeoPoint) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (blockingSource) FetchLandCover(ctx context.Context, _ geo.GeoPoint) (LandCover, error) {
	<-ctx.Done()
	return LandCoverUnknown, ctx.Err()
}

func TestBuildCoarsensLargeParcels(t *testing.T) {
	pr := geo.NewProjector(geo.GeoPoint{})
	boundary := geo.Rect(-1000, -1000, 1000, 1000)
	settings := testSettings()
	settings.MaxSamples = 400
	res := NewBuilder(localSource(pr, nil, nil), settings, nil).Build(context.Background(), pr, boundary)
	assert.InDelta(t, 100, res.Spacing, 1e-9)
	assert.LessOrEqual(t, res.Stats.SampleCount, 400)
}

func TestHTTPSourceBatch(t *testing.T) {
	pr, boundary := square200()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.Equal(t, "/api/v1/lookup", r.URL.Path)
		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := lookupResponse{Results: make([]lookupResult, len(req.Locations))}
		for i, loc := range req.Locations {
			elev := 42.0
			cover := "cropland"
			if pr.ToLocal(geo.GeoPoint{Lat: loc.Latitude, Lng: loc.Longitude}).X > 50 {
				cover = "forest"
			}
			out.Results[i] = lookupResult{Latitude: loc.Latitude, Longitude: loc.Longitude, Elevation: &elev, LandCover: cover}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	res := NewBuilder(NewHTTPSource(srv.URL, time.Second), testSettings(), nil).Build(context.Background(), pr, boundary)
	require.False(t, res.Degraded)
	require.Len(t, res.Zones, 1)
	assert.Equal(t, KindForest, res.Zones[0].Kind)
	assert.Equal(t, int32(1), requests.Load(), "batch source fetches once per build")
}

func TestHTTPSourceClientErrorIsNotRetried(t *testing.T) {
	pr, boundary := square200()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "bad locations", http.StatusBadRequest)
	}))
	defer srv.Close()

	res := NewBuilder(NewHTTPSource(srv.URL, time.Second), testSettings(), nil).Build(context.Background(), pr, boundary)
	assert.True(t, res.Degraded)
	assert.Equal(t, int32(1), requests.Load())
}

func TestHTTPSourceServerErrorIsRetried(t *testing.T) {
	pr, boundary := square200()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	settings := testSettings()
	settings.MaxRetries = 2
	res := NewBuilder(NewHTTPSource(srv.URL, time.Second), settings, nil).Build(context.Background(), pr, boundary)
	assert.True(t, res.Degraded)
	assert.Equal(t, int32(3), requests.Load())
}

func TestParseLandCover(t *testing.T) {
	assert.Equal(t, LandCoverWater, ParseLandCover(" Wetland "))
	assert.Equal(t, LandCoverImpervious, ParseLandCover("built_up"))
	assert.Equal(t, LandCoverUnknown, ParseLandCover("moon rock"))
}
