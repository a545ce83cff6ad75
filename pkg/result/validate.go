package result

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

// Validate checks a finished layout against the placement rules: unique IDs,
// containment with gutter, zone clearance, pairwise separation, sizing and
// the solar orientation window.
func Validate(
	layout *packing.Layout,
	boundary geo.Polygon,
	zones []terrain.Zone,
	st spec.StructureSpec,
	window solar.OrientationWindow,
	solarEnabled bool,
) *validation.Report {
	r := validation.NewReport()

	if layout == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelPlacement,
			Message: "layout is nil",
		})
		return r
	}

	boundary = boundary.EnsureCCW()
	validateStructureIDs(layout, r)
	validateContainment(layout, boundary, st, r)
	validateZoneClearance(layout, zones, st, r)
	validateSeparation(layout, st, r)
	validateSizes(layout, st, r)
	if solarEnabled {
		validateOrientation(layout, window, r)
	}

	if r.Valid {
		r.AddInfo(validation.Result{
			Level:       validation.LevelPlacement,
			Message:     fmt.Sprintf("%d structures satisfy placement rules", len(layout.Structures)),
			ActualValue: len(layout.Structures),
		})
	}
	return r
}

func structurePath(i int, field string) string {
	if field == "" {
		return fmt.Sprintf("structures[%d]", i)
	}
	return fmt.Sprintf("structures[%d].%s", i, field)
}

func validateStructureIDs(layout *packing.Layout, r *validation.Report) {
	seen := make(map[string]int, len(layout.Structures))

	for i, s := range layout.Structures {
		if s.ID == "" {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure at index %d has empty ID", i),
				SpecPath:    structurePath(i, "id"),
				ActualValue: "",
				Expected:    "non-empty string",
			})
			continue
		}
		if prev, exists := seen[s.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("duplicate structure ID %q at indices %d and %d", s.ID, prev, i),
				SpecPath:    structurePath(i, "id"),
				ActualValue: s.ID,
			})
		}
		seen[s.ID] = i
	}
}

func validateContainment(layout *packing.Layout, boundary geo.Polygon, st spec.StructureSpec, r *validation.Report) {
	for i, s := range layout.Structures {
		if !boundary.ContainsPolygon(s.Footprint) {
			outside := s.Footprint.Area() - geo.ClipToConvex(boundary, s.Footprint.EnsureCCW()).Area()
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q extends outside the boundary", s.ID),
				SpecPath:    structurePath(i, "footprint"),
				Subject:     s.ID,
				ActualValue: math.Max(outside, 0),
				Expected:    "footprint inside boundary",
			})
			continue
		}
		if st.GutterWidth <= 0 {
			continue
		}
		if c := geo.EdgeClearance(s.Footprint, boundary); c < st.GutterWidth-geo.Epsilon {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q is %.3fm from the boundary", s.ID, c),
				SpecPath:    structurePath(i, "footprint"),
				Subject:     s.ID,
				ActualValue: c,
				Expected:    fmt.Sprintf(">= %.3f (gutter_width)", st.GutterWidth),
			})
		}
	}
}

func validateZoneClearance(layout *packing.Layout, zones []terrain.Zone, st spec.StructureSpec, r *validation.Report) {
	if len(zones) == 0 {
		return
	}
	ix := terrain.NewZoneIndex(zones)
	for i, s := range layout.Structures {
		for _, c := range ix.Conflicts(s.Footprint, st.GutterWidth) {
			r.AddError(validation.Result{
				Level:        validation.LevelPlacement,
				Message:      fmt.Sprintf("structure %q is %.3fm from %s zone %q", s.ID, c.Distance, c.Kind, c.ZoneID),
				SpecPath:     structurePath(i, "footprint"),
				Subject:      s.ID,
				ActualValue:  c.Distance,
				Expected:     fmt.Sprintf("> 0 and >= %.3f (gutter_width)", st.GutterWidth),
				ConflictWith: c.ZoneID,
			})
		}
	}
}

func validateSeparation(layout *packing.Layout, st spec.StructureSpec, r *validation.Report) {
	structs := layout.Structures
	for i := range structs {
		a := structs[i]
		minA, maxA := a.Footprint.BoundingBox()
		for j := i + 1; j < len(structs); j++ {
			b := structs[j]
			minB, maxB := b.Footprint.BoundingBox()
			if minB.X > maxA.X+st.Gap || minA.X > maxB.X+st.Gap ||
				minB.Y > maxA.Y+st.Gap || minA.Y > maxB.Y+st.Gap {
				continue
			}
			if geo.ConvexOverlap(a.Footprint, b.Footprint) {
				r.AddError(validation.Result{
					Level:        validation.LevelPlacement,
					Message:      fmt.Sprintf("structures %q and %q overlap", a.ID, b.ID),
					SpecPath:     structurePath(j, "footprint"),
					Subject:      b.ID,
					ConflictWith: a.ID,
				})
				continue
			}
			if st.Gap <= 0 {
				continue
			}
			if d := geo.Distance(a.Footprint, b.Footprint); d < st.Gap-geo.Epsilon {
				r.AddError(validation.Result{
					Level:        validation.LevelPlacement,
					Message:      fmt.Sprintf("structures %q and %q are %.3fm apart", a.ID, b.ID, d),
					SpecPath:     structurePath(j, "footprint"),
					Subject:      b.ID,
					ActualValue:  d,
					Expected:     fmt.Sprintf(">= %.3f (gap)", st.Gap),
					ConflictWith: a.ID,
				})
			}
		}
	}
}

func validateSizes(layout *packing.Layout, st spec.StructureSpec, r *validation.Report) {
	for i, s := range layout.Structures {
		if s.ShortSide() < st.MinSide-geo.Epsilon {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q short side %.2fm is below min_side", s.ID, s.ShortSide()),
				SpecPath:    structurePath(i, "width"),
				Subject:     s.ID,
				ActualValue: s.ShortSide(),
				Expected:    fmt.Sprintf(">= %.2f", st.MinSide),
			})
		}
		if s.LongSide() > st.MaxSide+geo.Epsilon {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q long side %.2fm exceeds max_side", s.ID, s.LongSide()),
				SpecPath:    structurePath(i, "length"),
				Subject:     s.ID,
				ActualValue: s.LongSide(),
				Expected:    fmt.Sprintf("<= %.2f", st.MaxSide),
			})
		}
		if !wholeBlocks(s.Width, st.BlockWidth) || !wholeBlocks(s.Length, st.BlockHeight) {
			r.AddWarning(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q is not a whole number of blocks", s.ID),
				SpecPath:    structurePath(i, ""),
				Subject:     s.ID,
				ActualValue: fmt.Sprintf("%.2fx%.2f", s.Width, s.Length),
				Expected:    fmt.Sprintf("multiples of %.2fx%.2f", st.BlockWidth, st.BlockHeight),
			})
		}
	}
}

func wholeBlocks(side, block float64) bool {
	if block <= 0 {
		return true
	}
	n := side / block
	return math.Abs(n-math.Round(n)) < 1e-6
}

func validateOrientation(layout *packing.Layout, window solar.OrientationWindow, r *validation.Report) {
	for i, s := range layout.Structures {
		if !window.Allows(s.RotationDegrees) {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("structure %q rotation %.2f is outside the solar window", s.ID, s.RotationDegrees),
				SpecPath:    structurePath(i, "rotation_degrees"),
				Subject:     s.ID,
				ActualValue: s.RotationDegrees,
				Expected:    fmt.Sprintf("within %.2f of %.0f", window.AllowedDeviationDegrees, window.BaseDegrees),
			})
		}
	}
}
