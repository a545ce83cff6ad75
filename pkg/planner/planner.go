// Package planner runs the placement pipeline: schema validation,
// projection, terrain classification, packing and aggregation. It also
// provides a worker pool for asynchronous jobs.
package planner

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

const tracerName = "github.com/ChicagoDave/polyplanner/pkg/planner"

// joinGrace is added to the terrain fetch timeout when waiting for the
// terrain goroutine.
const joinGrace = 2 * time.Second

// Planner runs planning requests. It holds no per-request state and is safe
// for concurrent use.
type Planner struct {
	logger     *slog.Logger
	source     terrain.DataSource
	terrainURL string
	observer   Observer
	tracer     trace.Tracer
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithTerrainSource sets the data source used for every request, overriding
// the request's source_url.
func WithTerrainSource(src terrain.DataSource) Option {
	return func(p *Planner) { p.source = src }
}

// WithDefaultTerrainURL sets the lookup service used by requests that do
// not name a source_url.
func WithDefaultTerrainURL(url string) Option {
	return func(p *Planner) { p.terrainURL = url }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Planner) { p.observer = o }
}

// WithTracer sets the tracer. The global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(p *Planner) { p.tracer = t }
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{logger: slog.Default(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	return p
}

// Plan runs the whole pipeline synchronously.
func (p *Planner) Plan(ctx context.Context, s *spec.PlanSpec) (*result.PlanningResult, error) {
	return p.PlanWithProgress(ctx, s, nil)
}

// PlanWithProgress is Plan with an optimizer progress callback. The callback
// is invoked from a single goroutine.
func (p *Planner) PlanWithProgress(ctx context.Context, s *spec.PlanSpec, progress func(packing.Event)) (*result.PlanningResult, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "planner.Plan", trace.WithAttributes(attribute.String("plan.name", s.Name)))
	defer span.End()

	report := validation.ValidateSchema(s)
	if !report.Valid {
		p.observer.PlanRejected()
		span.SetStatus(codes.Error, "invalid plan")
		return nil, &InputError{Report: report}
	}

	ring := geo.NormalizeRing(s.Boundary)
	pr := geo.ProjectorFor(ring)
	local := pr.PolygonToLocal(ring).EnsureCCW()
	logger := p.logger.With("plan", s.Name)

	// Terrain runs alongside orientation setup.
	terrainCh := make(chan *terrain.Result, 1)
	var settings terrain.Settings
	if s.Constraints.TerrainEnabled {
		settings = p.terrainSettings(s)
		builder := terrain.NewBuilder(p.sourceFor(s), settings, logger)
		go func() {
			tctx, tspan := p.tracer.Start(ctx, "terrain.Build")
			defer tspan.End()
			res := builder.Build(tctx, pr, local)
			tspan.SetAttributes(attribute.Int("terrain.zones", len(res.Zones)), attribute.Bool("terrain.degraded", res.Degraded))
			terrainCh <- res
		}()
	}

	window := solar.Window(pr.Center.Lat)
	var orientations []float64
	if s.Constraints.SolarEnabled {
		orientations = solar.SuggestedOrientations(pr.Center.Lat)
	} else {
		orientations = packing.AlignedOrientations(local)
	}
	zones := terrain.FromExclusions(pr, s.Exclusions)

	var terr *terrain.Result
	if s.Constraints.TerrainEnabled {
		terr = p.joinTerrain(ctx, terrainCh, settings.FetchTimeout+joinGrace, logger)
		if terr.Degraded {
			p.observer.TerrainDegraded()
		}
		zones = append(append([]terrain.Zone{}, terr.Zones...), zones...)
	}

	octx, ospan := p.tracer.Start(ctx, "packing.Optimize",
		trace.WithAttributes(attribute.Int("packing.orientations", len(orientations)), attribute.Int("packing.zones", len(zones))))
	layout := packing.Optimize(octx, packing.Input{
		Boundary:     local,
		Zones:        zones,
		Structure:    s.Structure,
		Orientations: orientations,
		Budget: packing.Budget{
			MaxDuration:   time.Duration(s.Optimizer.MaxDurationSeconds * float64(time.Second)),
			MaxIterations: s.Optimizer.MaxIterations,
		},
		TargetCoverage: s.Optimizer.TargetCoverage,
		Progress:       progress,
	})
	ospan.SetAttributes(
		attribute.Int("packing.structures", len(layout.Structures)),
		attribute.String("packing.termination", string(layout.Termination)))
	ospan.End()

	_, aspan := p.tracer.Start(ctx, "result.Aggregate")
	res := result.Aggregate(result.Input{
		Name:          s.Name,
		Projector:     pr,
		Boundary:      ring,
		LocalBoundary: local,
		Layout:        layout,
		Zones:         zones,
		Terrain:       terr,
		Structure:     s.Structure,
		Window:        window,
		SolarEnabled:  s.Constraints.SolarEnabled,
	})
	aspan.End()

	// Schema warnings travel with the placement findings.
	report.Merge(res.Validation)
	res.Validation = report

	elapsed := time.Since(start)
	p.observer.PlanCompleted(res, elapsed)
	span.SetAttributes(
		attribute.Float64("plan.coverage_pct", res.CoveragePercentage),
		attribute.String("plan.termination", string(res.TerminationReason)))

	logger.Info("plan completed",
		"structures", len(res.Structures),
		"coverage_pct", res.CoveragePercentage,
		"termination", res.TerminationReason,
		"degraded", res.Degraded,
		"elapsed", elapsed)
	return res, nil
}

// joinTerrain waits for the terrain goroutine, falling back to a degraded
// result after timeout or cancellation.
func (p *Planner) joinTerrain(ctx context.Context, ch <-chan *terrain.Result, timeout time.Duration, logger *slog.Logger) *terrain.Result {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res
	case <-timer.C:
		logger.Warn("terrain build did not finish in time, continuing without terrain constraints", "timeout", timeout)
		return degraded("terrain build timed out")
	case <-ctx.Done():
		return degraded(ctx.Err().Error())
	}
}

func degraded(reason string) *terrain.Result {
	return &terrain.Result{
		Zones:          []terrain.Zone{},
		Stats:          terrain.Stats{BuildableAreaPercentage: 100},
		Degraded:       true,
		DegradedReason: reason,
	}
}

func (p *Planner) terrainSettings(s *spec.PlanSpec) terrain.Settings {
	settings := terrain.DefaultSettings()
	t := s.Terrain
	if t.Resolution > 0 {
		settings.Resolution = t.Resolution
	}
	if t.MaxSamples > 0 {
		settings.MaxSamples = t.MaxSamples
	}
	if t.TimeoutSeconds > 0 {
		settings.FetchTimeout = time.Duration(t.TimeoutSeconds * float64(time.Second))
	}
	if t.MaxRetries >= 0 {
		settings.MaxRetries = t.MaxRetries
	}
	if t.RoadMaxWidth > 0 {
		settings.RoadMaxWidth = t.RoadMaxWidth
	}
	if s.Constraints.MaxSlope > 0 {
		settings.MaxSlopeDegrees = s.Constraints.MaxSlope
	}
	return settings
}

func (p *Planner) sourceFor(s *spec.PlanSpec) terrain.DataSource {
	if p.source != nil {
		return p.source
	}
	url := s.Terrain.SourceURL
	if url == "" {
		url = p.terrainURL
	}
	if url == "" {
		return nil
	}
	timeout := time.Duration(s.Terrain.TimeoutSeconds * float64(time.Second))
	return terrain.NewHTTPSource(url, timeout)
}
