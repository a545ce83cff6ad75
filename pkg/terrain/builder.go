package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// Settings controls sampling density, classification thresholds and the
// fetch retry policy.
type Settings struct {
	// Resolution is the preferred sample spacing in meters.
	Resolution float64
	// MaxSamples caps the grid size; spacing is coarsened to respect it.
	MaxSamples      int
	MaxSlopeDegrees float64
	// FetchTimeout is the hard limit on the whole data fetch.
	FetchTimeout  time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	// RoadMaxWidth is the widest impervious strip still treated as a road.
	RoadMaxWidth float64
}

// DefaultSettings returns the settings used when a plan leaves terrain
// options unset.
func DefaultSettings() Settings {
	return Settings{
		Resolution:      10,
		MaxSamples:      2500,
		MaxSlopeDegrees: 15,
		FetchTimeout:    10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   250 * time.Millisecond,
		RoadMaxWidth:    20,
	}
}

// Builder turns elevation and land-cover data into restricted zones.
type Builder struct {
	source   DataSource
	settings Settings
	logger   *slog.Logger
}

// NewBuilder creates a builder. A nil source makes every build degraded.
func NewBuilder(source DataSource, settings Settings, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, settings: settings, logger: logger}
}

// Build samples the boundary interior and classifies it. Data-source
// failures never surface as errors: the result is marked degraded and
// carries no zones.
func (b *Builder) Build(ctx context.Context, pr *geo.Projector, boundary geo.Polygon) *Result {
	if b.source == nil {
		b.logger.Warn("no terrain data source configured, continuing without terrain constraints")
		return degradedResult("no terrain data source configured")
	}

	g := newGrid(boundary, b.settings)
	if len(g.samples) == 0 {
		return &Result{Zones: []Zone{}, Stats: Stats{BuildableAreaPercentage: 100}, Spacing: g.spacing}
	}
	for k := range g.samples {
		g.samples[k].geo = pr.ToGeo(g.samples[k].local)
	}

	start := time.Now()
	if err := b.fetch(ctx, g); err != nil {
		b.logger.Warn("terrain data unavailable, continuing without terrain constraints",
			"error", err,
			"samples", len(g.samples),
			"elapsed", time.Since(start))
		return degradedResult(err.Error())
	}

	g.computeSlopes()
	b.classify(g)
	zones := b.buildZones(g)
	stats := g.stats()

	b.logger.Debug("terrain classified",
		"samples", stats.SampleCount,
		"spacing_m", g.spacing,
		"zones", len(zones),
		"buildable_pct", stats.BuildableAreaPercentage)

	return &Result{Zones: zones, Stats: stats, Spacing: g.spacing}
}

func (b *Builder) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if b.settings.RetryInterval > 0 {
		eb.InitialInterval = b.settings.RetryInterval
	}
	retries := b.settings.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// fetch fills elevation and land cover for every sample, using a single
// batch call when the source supports it.
func (b *Builder) fetch(ctx context.Context, g *grid) error {
	if b.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.settings.FetchTimeout)
		defer cancel()
	}

	if batch, ok := b.source.(BatchSource); ok {
		pts := make([]geo.GeoPoint, len(g.samples))
		for k := range g.samples {
			pts[k] = g.samples[k].geo
		}
		var raw []RawSample
		err := backoff.Retry(func() error {
			var err error
			raw, err = batch.FetchSamples(ctx, pts)
			return err
		}, b.retryPolicy(ctx))
		if err != nil {
			return fmt.Errorf("fetching %d terrain samples: %w", len(pts), err)
		}
		if len(raw) != len(pts) {
			return fmt.Errorf("terrain source returned %d samples for %d points", len(raw), len(pts))
		}
		for k := range raw {
			g.samples[k].elevation = raw[k].Elevation
			g.samples[k].cover = raw[k].LandCover
		}
		return nil
	}

	for k := range g.samples {
		s := &g.samples[k]
		err := backoff.Retry(func() error {
			elev, err := b.source.FetchElevation(ctx, s.geo)
			if err != nil {
				return err
			}
			cover, err := b.source.FetchLandCover(ctx, s.geo)
			if err != nil {
				return err
			}
			s.elevation, s.cover = elev, cover
			return nil
		}, b.retryPolicy(ctx))
		if err != nil {
			return fmt.Errorf("fetching terrain sample %v: %w", s.geo, err)
		}
	}
	return nil
}

type sample struct {
	i, j      int
	local     geo.Point2D
	geo       geo.GeoPoint
	elevation float64
	cover     LandCover
	slope     float64
	kind      Kind
}

// grid holds the samples that fall inside the boundary, addressable by
// their (i, j) cell.
type grid struct {
	nx, ny  int
	origin  geo.Point2D
	spacing float64
	index   []int
	samples []sample
}

func newGrid(boundary geo.Polygon, s Settings) *grid {
	minP, maxP := boundary.BoundingBox()
	w, h := maxP.X-minP.X, maxP.Y-minP.Y

	spacing := s.Resolution
	if spacing <= 0 {
		spacing = DefaultSettings().Resolution
	}
	if s.MaxSamples > 0 {
		if need := math.Sqrt(w * h / float64(s.MaxSamples)); need > spacing {
			spacing = need
		}
	}

	nx := int(math.Max(1, math.Ceil(w/spacing)))
	ny := int(math.Max(1, math.Ceil(h/spacing)))
	g := &grid{
		nx:      nx,
		ny:      ny,
		origin:  geo.Pt(minP.X+spacing/2, minP.Y+spacing/2),
		spacing: spacing,
		index:   make([]int, nx*ny),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			g.index[j*nx+i] = -1
			p := g.center(i, j)
			if boundary.Contains(p) {
				g.index[j*nx+i] = len(g.samples)
				g.samples = append(g.samples, sample{i: i, j: j, local: p})
			}
		}
	}
	return g
}

func (g *grid) center(i, j int) geo.Point2D {
	return geo.Pt(g.origin.X+float64(i)*g.spacing, g.origin.Y+float64(j)*g.spacing)
}

func (g *grid) at(i, j int) *sample {
	if i < 0 || j < 0 || i >= g.nx || j >= g.ny {
		return nil
	}
	k := g.index[j*g.nx+i]
	if k < 0 {
		return nil
	}
	return &g.samples[k]
}

// computeSlopes sets each sample's slope in degrees from central
// differences, falling back to one-sided differences at the edges.
func (g *grid) computeSlopes() {
	for k := range g.samples {
		s := &g.samples[k]
		dx := g.gradient(s, 1, 0)
		dy := g.gradient(s, 0, 1)
		s.slope = geo.Rad2Deg(math.Atan(math.Hypot(dx, dy)))
	}
}

func (g *grid) gradient(s *sample, di, dj int) float64 {
	fwd := g.at(s.i+di, s.j+dj)
	back := g.at(s.i-di, s.j-dj)
	switch {
	case fwd != nil && back != nil:
		return (fwd.elevation - back.elevation) / (2 * g.spacing)
	case fwd != nil:
		return (fwd.elevation - s.elevation) / g.spacing
	case back != nil:
		return (s.elevation - back.elevation) / g.spacing
	}
	return 0
}

func (g *grid) stats() Stats {
	st := Stats{SampleCount: len(g.samples)}
	if len(g.samples) == 0 {
		st.BuildableAreaPercentage = 100
		return st
	}
	buildable := 0
	slopeSum := 0.0
	st.ElevationMin = math.Inf(1)
	st.ElevationMax = math.Inf(-1)
	for _, s := range g.samples {
		if s.kind == "" {
			buildable++
		}
		slopeSum += s.slope
		st.ElevationMin = math.Min(st.ElevationMin, s.elevation)
		st.ElevationMax = math.Max(st.ElevationMax, s.elevation)
	}
	n := float64(len(g.samples))
	st.BuildableAreaPercentage = float64(buildable) / n * 100
	st.AverageSlope = slopeSum / n
	return st
}
