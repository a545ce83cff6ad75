package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// ErrNoPolygon is returned when a GeoJSON document has no polygon geometry.
var ErrNoPolygon = errors.New("geojson: no polygon geometry found")

// LoadBoundaryGeoJSON reads the outer ring of the first polygon in a GeoJSON
// file. FeatureCollection, Feature and bare geometry documents are accepted.
func LoadBoundaryGeoJSON(path string) ([]geo.GeoPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundary file: %w", err)
	}
	return ParseBoundaryGeoJSON(data)
}

// ParseBoundaryGeoJSON decodes the outer ring of the first polygon in data.
func ParseBoundaryGeoJSON(data []byte) ([]geo.GeoPoint, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing boundary GeoJSON: %w", err)
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parsing feature: %w", err)
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geometry: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}

	for _, g := range geoms {
		if ring, ok := outerRing(g); ok {
			return ring, nil
		}
	}
	return nil, ErrNoPolygon
}

func outerRing(g orb.Geometry) ([]geo.GeoPoint, bool) {
	var ring orb.Ring
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return nil, false
		}
		ring = v[0]
	case orb.MultiPolygon:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, false
		}
		ring = v[0][0]
	default:
		return nil, false
	}
	pts := make([]geo.GeoPoint, 0, len(ring))
	for _, p := range ring {
		pts = append(pts, geo.GeoPoint{Lat: p.Lat(), Lng: p.Lon()})
	}
	return geo.NormalizeRing(pts), len(pts) > 0
}
