package geo

import (
	"fmt"
	"math"
)

// MetersPerDegree is the equirectangular scale at the equator.
const MetersPerDegree = 111320.0

// EarthRadius is the mean Earth radius in meters used by DistanceMeters.
const EarthRadius = 6371008.8

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (g GeoPoint) IsFinite() bool {
	return !math.IsNaN(g.Lat) && !math.IsInf(g.Lat, 0) && !math.IsNaN(g.Lng) && !math.IsInf(g.Lng, 0)
}

func (g GeoPoint) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", g.Lat, g.Lng)
}

// Projector maps geographic coordinates to a local planar frame centered on
// a reference point and back. The approximation is only valid within a few
// tens of kilometers of the center.
type Projector struct {
	Center GeoPoint
	cosLat float64
}

// NewProjector returns a projector centered on c.
func NewProjector(c GeoPoint) *Projector {
	return &Projector{Center: c, cosLat: math.Cos(Deg2Rad(c.Lat))}
}

// ProjectorFor returns a projector centered on the vertex mean of ring.
func ProjectorFor(ring []GeoPoint) *Projector {
	return NewProjector(Centroid(ring))
}

// Centroid returns the vertex mean of ring.
func Centroid(ring []GeoPoint) GeoPoint {
	if len(ring) == 0 {
		return GeoPoint{}
	}
	var c GeoPoint
	for _, p := range ring {
		c.Lat += p.Lat
		c.Lng += p.Lng
	}
	n := float64(len(ring))
	return GeoPoint{Lat: c.Lat / n, Lng: c.Lng / n}
}

// ToLocal converts g to local meters.
func (pr *Projector) ToLocal(g GeoPoint) Point2D {
	return Point2D{
		X: (g.Lng - pr.Center.Lng) * MetersPerDegree * pr.cosLat,
		Y: (g.Lat - pr.Center.Lat) * MetersPerDegree,
	}
}

// ToGeo is the inverse of ToLocal.
func (pr *Projector) ToGeo(p Point2D) GeoPoint {
	return GeoPoint{
		Lat: pr.Center.Lat + p.Y/MetersPerDegree,
		Lng: pr.Center.Lng + p.X/(MetersPerDegree*pr.cosLat),
	}
}

// PolygonToLocal projects a ring into a local polygon.
func (pr *Projector) PolygonToLocal(ring []GeoPoint) Polygon {
	pts := make([]Point2D, len(ring))
	for i, g := range ring {
		pts[i] = pr.ToLocal(g)
	}
	return Polygon{Vertices: pts}
}

// PolygonToGeo converts a local polygon back into a ring.
func (pr *Projector) PolygonToGeo(p Polygon) []GeoPoint {
	ring := make([]GeoPoint, len(p.Vertices))
	for i, v := range p.Vertices {
		ring[i] = pr.ToGeo(v)
	}
	return ring
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b GeoPoint) float64 {
	lat1, lat2 := Deg2Rad(a.Lat), Deg2Rad(b.Lat)
	dLat := lat2 - lat1
	dLng := Deg2Rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BearingDegrees returns the initial bearing from a to b in [0, 360).
func BearingDegrees(a, b GeoPoint) float64 {
	lat1, lat2 := Deg2Rad(a.Lat), Deg2Rad(b.Lat)
	dLng := Deg2Rad(b.Lng - a.Lng)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return NormalizeDegrees(Rad2Deg(math.Atan2(y, x)))
}

// PolygonAreaSqm projects ring about its own centroid and returns the
// shoelace area in square meters.
func PolygonAreaSqm(ring []GeoPoint) float64 {
	if len(ring) < 3 {
		return 0
	}
	return ProjectorFor(ring).PolygonToLocal(ring).Area()
}

// PointInPolygon is an even-odd ray cast in geographic space, with latitude
// as y and longitude as x.
func PointInPolygon(p GeoPoint, ring []GeoPoint) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}

// NormalizeRing drops a repeated closing vertex, if present.
func NormalizeRing(ring []GeoPoint) []GeoPoint {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}
