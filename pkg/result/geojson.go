package result

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// Feature kinds carried in the "feature" property.
const (
	FeatureStructure = "structure"
	FeatureBlock     = "block"
	FeatureZone      = "restricted_zone"
)

// FeatureCollection builds a GeoJSON collection with one polygon per
// structure and one multipolygon per restricted zone. Blocks are included
// when withBlocks is set.
func FeatureCollection(res *PlanningResult, withBlocks bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if res == nil {
		return fc
	}

	for _, s := range res.Structures {
		f := geojson.NewFeature(orb.Polygon{toRing(s.Footprint)})
		f.ID = s.ID
		f.Properties["feature"] = FeatureStructure
		f.Properties["id"] = s.ID
		f.Properties["tier"] = string(s.Tier)
		f.Properties["rotation_degrees"] = s.RotationDegrees
		f.Properties["width"] = s.Width
		f.Properties["length"] = s.Length
		f.Properties["area"] = s.Area
		f.Properties["blocks"] = len(s.Blocks)
		fc.Append(f)

		if !withBlocks {
			continue
		}
		for _, b := range s.Blocks {
			bf := geojson.NewFeature(orb.Polygon{toRing(b.Footprint)})
			bf.ID = fmt.Sprintf("%s/%d", s.ID, b.Index)
			bf.Properties["feature"] = FeatureBlock
			bf.Properties["structure_id"] = s.ID
			bf.Properties["row"] = b.Row
			bf.Properties["col"] = b.Col
			fc.Append(bf)
		}
	}

	for _, z := range res.RestrictedZones {
		mp := make(orb.MultiPolygon, 0, len(z.Parts))
		for _, p := range z.Parts {
			mp = append(mp, orb.Polygon{toRing(p)})
		}
		f := geojson.NewFeature(mp)
		f.ID = z.ID
		f.Properties["feature"] = FeatureZone
		f.Properties["id"] = z.ID
		f.Properties["kind"] = z.Kind
		f.Properties["severity"] = z.Severity
		f.Properties["area_sqm"] = z.AreaSqm
		fc.Append(f)
	}
	return fc
}

// GeoJSON encodes the result as a FeatureCollection, structures and zones
// only.
func GeoJSON(res *PlanningResult) ([]byte, error) {
	data, err := FeatureCollection(res, false).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding geojson: %w", err)
	}
	return data, nil
}

// toRing converts a ring to GeoJSON order (lng, lat) and closes it.
func toRing(pts []geo.GeoPoint) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}
