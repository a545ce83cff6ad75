package result

import (
	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
)

// adjacencyTolerance is the distance in meters under which block corners
// are considered shared.
const adjacencyTolerance = 1e-3

// Input collects the pipeline outputs that make up one result.
type Input struct {
	Name          string
	Projector     *geo.Projector
	Boundary      []geo.GeoPoint
	LocalBoundary geo.Polygon
	Layout        *packing.Layout
	// Zones are every zone the optimizer avoided, terrain and user drawn.
	Zones        []terrain.Zone
	Terrain      *terrain.Result
	Structure    spec.StructureSpec
	Window       solar.OrientationWindow
	SolarEnabled bool
}

// Aggregate converts the layout back to geographic coordinates and computes
// the summary statistics, adjacency classification and validation report.
func Aggregate(in Input) *PlanningResult {
	pr := in.Projector
	if pr == nil {
		pr = geo.ProjectorFor(in.Boundary)
	}
	layout := in.Layout
	if layout == nil {
		layout = &packing.Layout{Termination: packing.TerminationAreaTooSmall}
	}

	res := &PlanningResult{
		Name:              in.Name,
		Center:            pr.Center,
		Structures:        make([]Structure, 0, len(layout.Structures)),
		RestrictedZones:   make([]Zone, 0, len(in.Zones)),
		TerminationReason: layout.Termination,
		SolarEnabled:      in.SolarEnabled,
		Orientation:       in.Window,
		Orientations:      layout.Orientations,
		Iterations:        layout.Iterations,
		ElapsedMillis:     layout.Elapsed.Milliseconds(),
	}

	for _, s := range layout.Structures {
		res.Structures = append(res.Structures, convertStructure(pr, s))
		res.TotalStructureArea += s.Area
	}
	for _, z := range in.Zones {
		res.RestrictedZones = append(res.RestrictedZones, convertZone(pr, z))
	}

	res.BoundaryAreaSqm = geo.PolygonAreaSqm(in.Boundary)
	if res.BoundaryAreaSqm > 0 {
		res.CoveragePercentage = res.TotalStructureArea / res.BoundaryAreaSqm * 100
	}

	if t := in.Terrain; t != nil {
		res.BuildableAreaPercentage = t.Stats.BuildableAreaPercentage
		res.AverageSlope = t.Stats.AverageSlope
		res.ElevationRange = ElevationRange{Min: t.Stats.ElevationMin, Max: t.Stats.ElevationMax}
		res.Degraded = t.Degraded
		res.DegradedReason = t.DegradedReason
	} else {
		res.BuildableAreaPercentage = 100
	}

	res.Adjacency = ClassifyAdjacency(layout.Structures, adjacencyTolerance)

	local := in.LocalBoundary
	if local.IsEmpty() {
		local = pr.PolygonToLocal(in.Boundary)
	}
	res.Validation = Validate(layout, local, in.Zones, in.Structure, in.Window, in.SolarEnabled)
	return res
}

func convertStructure(pr *geo.Projector, s packing.PlacedStructure) Structure {
	out := Structure{
		ID:              s.ID,
		Tier:            s.Tier,
		RotationDegrees: s.RotationDegrees,
		Width:           s.Width,
		Length:          s.Length,
		Area:            s.Area,
		Footprint:       pr.PolygonToGeo(s.Footprint),
		LocalFootprint:  append([]geo.Point2D(nil), s.Footprint.Vertices...),
		Blocks:          make([]Block, 0, len(s.Blocks)),
	}
	for _, b := range s.Blocks {
		out.Blocks = append(out.Blocks, Block{
			Index:     b.Index,
			Row:       b.Row,
			Col:       b.Col,
			Footprint: pr.PolygonToGeo(b.Footprint),
		})
	}
	return out
}

func convertZone(pr *geo.Projector, z terrain.Zone) Zone {
	out := Zone{
		ID:       z.ID,
		Kind:     string(z.Kind),
		Severity: z.Severity,
		AreaSqm:  z.Area(),
		Parts:    make([][]geo.GeoPoint, 0, len(z.Parts)),
	}
	for _, p := range z.Parts {
		out.Parts = append(out.Parts, pr.PolygonToGeo(p))
	}
	if !z.Hull.IsEmpty() {
		out.Hull = pr.PolygonToGeo(z.Hull)
	}
	return out
}
