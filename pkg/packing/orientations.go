package packing

import (
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// AlignedOrientations returns candidate rotations for runs without a solar
// window: the cardinal axes and the axes of the boundary's longest edge,
// folded into [0, 180) and deduplicated.
func AlignedOrientations(boundary geo.Polygon) []float64 {
	out := []float64{0, 90}
	if !boundary.IsEmpty() {
		a, b := boundary.Edge(boundary.LongestEdge())
		edge := geo.Rad2Deg(b.Sub(a).Angle())
		out = append(out, edge, edge+90)
	}
	return foldHalfTurn(out)
}

func foldHalfTurn(angles []float64) []float64 {
	out := make([]float64, 0, len(angles))
	for _, a := range angles {
		f := math.Mod(geo.NormalizeDegrees(a), 180)
		if 180-f < 1e-9 {
			f = 0
		}
		dup := false
		for _, o := range out {
			if math.Abs(o-f) < 1e-6 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}
