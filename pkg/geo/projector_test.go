package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestProjectorRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, center := range []GeoPoint{{0, 0}, {12.9716, 77.5946}, {-33.86, 151.21}, {64.1, -21.9}} {
		pr := NewProjector(center)
		for i := 0; i < 1000; i++ {
			// Uniform within a 10 km radius.
			r := 10000 * math.Sqrt(rng.Float64())
			theta := 2 * math.Pi * rng.Float64()
			p := pr.ToGeo(Pt(r*math.Cos(theta), r*math.Sin(theta)))
			back := pr.ToGeo(pr.ToLocal(p))
			if !approxEqual(back.Lat, p.Lat, 1e-6) || !approxEqual(back.Lng, p.Lng, 1e-6) {
				t.Fatalf("round trip drift at %v: got %v", p, back)
			}
		}
	}
}

func TestProjectorToLocalScale(t *testing.T) {
	pr := NewProjector(GeoPoint{Lat: 60, Lng: 10})
	p := pr.ToLocal(GeoPoint{Lat: 60.001, Lng: 10.001})
	if !approxEqual(p.Y, 111.32, tolerance) {
		t.Errorf("expected y 111.32, got %f", p.Y)
	}
	if !approxEqual(p.X, 55.66, tolerance) {
		t.Errorf("expected x 55.66 at 60N, got %f", p.X)
	}
}

func TestPolygonAreaSqm(t *testing.T) {
	// 0.01 x 0.01 degree square at the equator.
	ring := []GeoPoint{{-0.005, -0.005}, {-0.005, 0.005}, {0.005, 0.005}, {0.005, -0.005}}
	want := math.Pow(0.01*MetersPerDegree, 2)
	got := PolygonAreaSqm(ring)
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("expected area ~%f, got %f", want, got)
	}
}

func TestDistanceMeters(t *testing.T) {
	a := GeoPoint{Lat: 0, Lng: 0}
	b := GeoPoint{Lat: 0, Lng: 1}
	if d := DistanceMeters(a, b); math.Abs(d-111195) > 100 {
		t.Errorf("expected ~111195 m for one degree of longitude, got %f", d)
	}
	if d := DistanceMeters(a, a); d != 0 {
		t.Errorf("expected zero distance, got %f", d)
	}
}

func TestBearingDegrees(t *testing.T) {
	o := GeoPoint{Lat: 10, Lng: 10}
	cases := []struct {
		to   GeoPoint
		want float64
	}{
		{GeoPoint{11, 10}, 0},
		{GeoPoint{10, 11}, 90},
		{GeoPoint{9, 10}, 180},
		{GeoPoint{10, 9}, 270},
	}
	for _, c := range cases {
		if got := BearingDegrees(o, c.to); !approxEqual(got, c.want, 0.2) {
			t.Errorf("bearing to %v: expected %v, got %f", c.to, c.want, got)
		}
	}
}

func TestPointInPolygonGeo(t *testing.T) {
	ring := []GeoPoint{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	if !PointInPolygon(GeoPoint{0.5, 0.5}, ring) {
		t.Error("expected center inside")
	}
	if PointInPolygon(GeoPoint{1.5, 0.5}, ring) {
		t.Error("expected point outside")
	}
}

func TestNormalizeRing(t *testing.T) {
	ring := []GeoPoint{{0, 0}, {0, 1}, {1, 1}, {0, 0}}
	if got := NormalizeRing(ring); len(got) != 3 {
		t.Errorf("expected closing vertex dropped, got %d points", len(got))
	}
}
