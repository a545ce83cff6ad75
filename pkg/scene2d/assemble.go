package scene2d

import (
	"math"
	"time"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
)

// Assemble2D converts a planning result into a 2D scene. Geographic
// outputs are projected around the result center so the scene shares the
// frame the planner packed in.
func Assemble2D(s *spec.PlanSpec, res *result.PlanningResult) *Scene2D {
	pr := geo.NewProjector(res.Center)
	boundary := geo.NormalizeRing(s.Boundary)

	return &Scene2D{
		Metadata:   assembleMetadata(res, pr, boundary),
		Boundary:   toCoords(pr, boundary),
		Zones:      assembleZones(pr, res.RestrictedZones),
		Structures: assembleStructures(pr, res),
		Blocks:     res.Adjacency.Totals,
	}
}

func assembleMetadata(res *result.PlanningResult, pr *geo.Projector, boundary []geo.GeoPoint) Metadata {
	return Metadata{
		Name:               res.Name,
		Center:             [2]float64{res.Center.Lat, res.Center.Lng},
		BoundaryAreaSqm:    res.BoundaryAreaSqm,
		StructureAreaSqm:   res.TotalStructureArea,
		CoveragePercentage: res.CoveragePercentage,
		StructureCount:     len(res.Structures),
		Bounds:             boundsOf(toCoords(pr, boundary)),
		GeneratedAt:        time.Now().UTC().Format(time.RFC3339),
	}
}

func assembleZones(pr *geo.Projector, zones []result.Zone) []Zone2D {
	out := make([]Zone2D, 0, len(zones))
	for _, z := range zones {
		polys := make([][][2]float64, 0, len(z.Parts))
		for _, part := range z.Parts {
			polys = append(polys, toCoords(pr, part))
		}
		out = append(out, Zone2D{
			ID:       z.ID,
			Kind:     z.Kind,
			Severity: z.Severity,
			AreaSqm:  z.AreaSqm,
			Polygons: polys,
		})
	}
	return out
}

func assembleStructures(pr *geo.Projector, res *result.PlanningResult) []Structure2D {
	classes := make(map[string][]result.AdjacencyClass, len(res.Adjacency.Structures))
	for _, sa := range res.Adjacency.Structures {
		classes[sa.ID] = sa.Classes
	}

	out := make([]Structure2D, 0, len(res.Structures))
	for _, st := range res.Structures {
		fp := toCoords(pr, st.Footprint)
		blocks := make([]Block2D, 0, len(st.Blocks))
		cs := classes[st.ID]
		for i, b := range st.Blocks {
			blk := Block2D{Index: b.Index, Polygon: toCoords(pr, b.Footprint)}
			if i < len(cs) {
				blk.Class = string(cs[i])
			}
			blocks = append(blocks, blk)
		}
		out = append(out, Structure2D{
			ID:        st.ID,
			Tier:      string(st.Tier),
			Rotation:  st.RotationDegrees,
			Center:    vertexMean(fp),
			Width:     st.Width,
			Length:    st.Length,
			Footprint: fp,
			Blocks:    blocks,
		})
	}
	return out
}

func toCoords(pr *geo.Projector, ring []geo.GeoPoint) [][2]float64 {
	coords := make([][2]float64, len(ring))
	for i, g := range ring {
		p := pr.ToLocal(g)
		coords[i] = [2]float64{p.X, p.Y}
	}
	return coords
}

func vertexMean(coords [][2]float64) [2]float64 {
	if len(coords) == 0 {
		return [2]float64{}
	}
	var c [2]float64
	for _, p := range coords {
		c[0] += p[0]
		c[1] += p[1]
	}
	n := float64(len(coords))
	return [2]float64{c[0] / n, c[1] / n}
}

func boundsOf(coords [][2]float64) Bounds {
	if len(coords) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range coords {
		b.MinX = math.Min(b.MinX, p[0])
		b.MinY = math.Min(b.MinY, p[1])
		b.MaxX = math.Max(b.MaxX, p[0])
		b.MaxY = math.Max(b.MaxY, p[1])
	}
	return b
}
