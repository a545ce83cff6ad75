package validation

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
)

// ExclusionKinds lists the restricted-zone kinds a plan may declare.
var ExclusionKinds = map[string]bool{
	"water":       true,
	"forest":      true,
	"road":        true,
	"steep_slope": true,
}

// ValidateSchema performs schema validation on a parsed PlanSpec.
// It checks structural correctness before any computation.
func ValidateSchema(s *spec.PlanSpec) *Report {
	r := NewReport()

	validateBoundary(s, r)
	validateStructure(s, r)
	validateConstraints(s, r)
	validateTerrain(s, r)
	validateOptimizer(s, r)
	validateExclusions(s, r)

	return r
}

func validateBoundary(s *spec.PlanSpec, r *Report) {
	ring := s.Boundary
	if len(ring) < 3 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "boundary must have at least 3 points",
			SpecPath:    "boundary",
			ActualValue: len(ring),
			Expected:    ">= 3",
		})
		return
	}

	ok := true
	for i, p := range ring {
		path := fmt.Sprintf("boundary[%d]", i)
		if !p.IsFinite() {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  "boundary coordinates must be finite",
				SpecPath: path,
			})
			ok = false
			continue
		}
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "boundary coordinate out of range",
				SpecPath:    path,
				ActualValue: p,
				Expected:    "lat in [-90,90], lng in [-180,180]",
			})
			ok = false
		}
	}
	if !ok {
		return
	}

	area := geo.PolygonAreaSqm(ring)
	if !(area > 0) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "boundary area must be greater than 0",
			SpecPath:    "boundary",
			ActualValue: area,
			Expected:    "> 0",
		})
		return
	}

	local := geo.ProjectorFor(ring).PolygonToLocal(ring)
	if !local.IsSimple() {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "boundary must not self-intersect",
			SpecPath:    "boundary",
			Suggestions: []string{"Reorder the vertices so edges only meet at shared corners"},
		})
		return
	}

	r.AddInfo(Result{
		Level:       LevelSchema,
		Message:     fmt.Sprintf("boundary encloses %.0f m²", area),
		SpecPath:    "boundary",
		ActualValue: area,
	})
}

func validateStructure(s *spec.PlanSpec, r *Report) {
	st := s.Structure
	positive := []struct {
		path  string
		value float64
	}{
		{"structure.min_side", st.MinSide},
		{"structure.max_side", st.MaxSide},
		{"structure.block_width", st.BlockWidth},
		{"structure.block_height", st.BlockHeight},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s must be a positive number", f.path),
				SpecPath:    f.path,
				ActualValue: f.value,
				Expected:    "> 0",
			})
		}
	}

	nonNegative := []struct {
		path  string
		value float64
	}{
		{"structure.gutter_width", st.GutterWidth},
		{"structure.gap", st.Gap},
	}
	for _, f := range nonNegative {
		if !(f.value >= 0) || math.IsInf(f.value, 0) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s must be non-negative", f.path),
				SpecPath:    f.path,
				ActualValue: f.value,
				Expected:    ">= 0",
			})
		}
	}

	if st.MinSide > st.MaxSide {
		r.AddError(Result{
			Level:        LevelSchema,
			Message:      "min_side must not exceed max_side",
			SpecPath:     "structure.min_side",
			ActualValue:  st.MinSide,
			ConflictWith: "structure.max_side",
		})
	}

	if st.BlockWidth > st.MaxSide || st.BlockHeight > st.MaxSide {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     "a single block is larger than max_side; no structure can be placed",
			SpecPath:    "structure",
			Suggestions: []string{"Increase max_side or reduce the block size"},
		})
	}
}

func validateConstraints(s *spec.PlanSpec, r *Report) {
	c := s.Constraints
	if c.TerrainEnabled && !(c.MaxSlope > 0 && c.MaxSlope < 90) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "max_slope must be between 0 and 90 degrees when terrain is enabled",
			SpecPath:    "constraints.max_slope",
			ActualValue: c.MaxSlope,
			Expected:    "(0, 90)",
		})
	}
}

func validateTerrain(s *spec.PlanSpec, r *Report) {
	if !s.Constraints.TerrainEnabled {
		return
	}
	t := s.Terrain
	if !(t.Resolution > 0) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "terrain.resolution must be positive",
			SpecPath:    "terrain.resolution",
			ActualValue: t.Resolution,
			Expected:    "> 0",
		})
	}
	if t.MaxSamples <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "terrain.max_samples must be positive",
			SpecPath:    "terrain.max_samples",
			ActualValue: t.MaxSamples,
			Expected:    "> 0",
		})
	}
	if t.MaxRetries < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "terrain.max_retries must be non-negative",
			SpecPath:    "terrain.max_retries",
			ActualValue: t.MaxRetries,
			Expected:    ">= 0",
		})
	}
	if t.SourceURL == "" {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     "terrain is enabled but no source_url is configured; terrain will run degraded",
			SpecPath:    "terrain.source_url",
			Suggestions: []string{"Set terrain.source_url or disable constraints.terrain_enabled"},
		})
	}
}

func validateOptimizer(s *spec.PlanSpec, r *Report) {
	o := s.Optimizer
	if o.MaxDurationSeconds < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "optimizer.max_duration_seconds must be non-negative",
			SpecPath:    "optimizer.max_duration_seconds",
			ActualValue: o.MaxDurationSeconds,
			Expected:    ">= 0",
		})
	}
	if o.MaxIterations < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "optimizer.max_iterations must be non-negative",
			SpecPath:    "optimizer.max_iterations",
			ActualValue: o.MaxIterations,
			Expected:    ">= 0",
		})
	}
	if o.TargetCoverage < 0 || o.TargetCoverage > 1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "optimizer.target_coverage must be a fraction between 0 and 1",
			SpecPath:    "optimizer.target_coverage",
			ActualValue: o.TargetCoverage,
			Expected:    "[0, 1]",
		})
	}
}

func validateExclusions(s *spec.PlanSpec, r *Report) {
	for i, ex := range s.Exclusions {
		path := fmt.Sprintf("exclusions[%d]", i)
		if !ExclusionKinds[ex.Kind] {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("unknown exclusion kind %q", ex.Kind),
				SpecPath:    path + ".kind",
				ActualValue: ex.Kind,
				Expected:    "water, forest, road or steep_slope",
			})
		}
		if len(ex.Polygon) < 3 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "exclusion polygon must have at least 3 points",
				SpecPath:    path + ".polygon",
				ActualValue: len(ex.Polygon),
				Expected:    ">= 3",
			})
			continue
		}
		for _, p := range ex.Polygon {
			if !p.IsFinite() {
				r.AddError(Result{
					Level:    LevelSchema,
					Message:  "exclusion coordinates must be finite",
					SpecPath: path + ".polygon",
				})
				break
			}
		}
	}
}
