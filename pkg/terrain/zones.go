package terrain

import (
	"fmt"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
)

// FromExclusions projects user-drawn exclusions into zones.
func FromExclusions(pr *geo.Projector, exclusions []spec.Exclusion) []Zone {
	zones := make([]Zone, 0, len(exclusions))
	for i, ex := range exclusions {
		poly := pr.PolygonToLocal(ex.Polygon).EnsureCCW()
		id := ex.Name
		if id == "" {
			id = fmt.Sprintf("exclusion_%d", i+1)
		}
		zones = append(zones, Zone{
			ID:       id,
			Kind:     Kind(ex.Kind),
			Severity: 1,
			Parts:    []geo.Polygon{poly},
			Hull:     geo.ConvexHull(poly.Vertices),
		})
	}
	return zones
}
