package spec

import (
	"errors"
	"testing"
)

func TestLoadProject(t *testing.T) {
	s, err := LoadProject("testdata/north-field")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if s.SpecVersion != "0.1.0" {
		t.Errorf("spec_version = %q, want %q", s.SpecVersion, "0.1.0")
	}
	if s.Name != "north-field" {
		t.Errorf("name = %q, want north-field", s.Name)
	}
	if len(s.Boundary) != 4 {
		t.Errorf("boundary has %d points, want 4 after dropping the closing vertex", len(s.Boundary))
	}

	// Explicit values
	if s.Structure.MinSide != 12 || s.Structure.MaxSide != 80 || s.Structure.Gap != 3 {
		t.Errorf("structure = %+v, want min 12, max 80, gap 3", s.Structure)
	}
	if s.Optimizer.TargetCoverage != 0.5 {
		t.Errorf("target_coverage = %v, want 0.5", s.Optimizer.TargetCoverage)
	}

	// Defaults survive for omitted fields
	if s.Structure.GutterWidth != 2 {
		t.Errorf("gutter_width = %v, want default 2", s.Structure.GutterWidth)
	}
	if s.Structure.BlockWidth != 8 || s.Structure.BlockHeight != 4 {
		t.Errorf("block = %vx%v, want default 8x4", s.Structure.BlockWidth, s.Structure.BlockHeight)
	}
	if s.Constraints.MaxSlope != 15 {
		t.Errorf("max_slope = %v, want default 15", s.Constraints.MaxSlope)
	}

	if len(s.Exclusions) != 1 {
		t.Fatalf("exclusions = %d, want 1", len(s.Exclusions))
	}
	if s.Exclusions[0].Kind != "water" || len(s.Exclusions[0].Polygon) != 4 {
		t.Errorf("exclusion = %+v", s.Exclusions[0])
	}
}

func TestLoadProjectBoundaryFile(t *testing.T) {
	s, err := LoadProject("testdata/geojson-field")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if len(s.Boundary) != 4 {
		t.Fatalf("boundary has %d points, want 4", len(s.Boundary))
	}
	if s.Boundary[0].Lat != -0.0009 || s.Boundary[0].Lng != -0.0009 {
		t.Errorf("first vertex = %v", s.Boundary[0])
	}
	if s.Constraints.SolarEnabled {
		t.Error("solar_enabled should be false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadProject("testdata/does-not-exist"); err == nil {
		t.Error("expected error for missing project")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("boundary: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseBoundaryGeoJSONGeometry(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[[[10,50],[10.01,50],[10.01,50.01],[10,50]]]}`)
	ring, err := ParseBoundaryGeoJSON(data)
	if err != nil {
		t.Fatalf("ParseBoundaryGeoJSON failed: %v", err)
	}
	if len(ring) != 3 {
		t.Fatalf("ring has %d points, want 3", len(ring))
	}
	if ring[1].Lng != 10.01 || ring[1].Lat != 50 {
		t.Errorf("lng/lat order swapped: %v", ring[1])
	}
}

func TestParseBoundaryGeoJSONNoPolygon(t *testing.T) {
	data := []byte(`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}`)
	if _, err := ParseBoundaryGeoJSON(data); !errors.Is(err, ErrNoPolygon) {
		t.Errorf("expected ErrNoPolygon, got %v", err)
	}
}

func TestParseJSONKeepsDefaults(t *testing.T) {
	data := []byte(`{"name":"api","boundary":[{"lat":0,"lng":0},{"lat":0,"lng":0.001},{"lat":0.001,"lng":0.001},{"lat":0,"lng":0}],"structure":{"gap":0}}`)
	s, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(s.Boundary) != 3 {
		t.Errorf("closing vertex not dropped: %d points", len(s.Boundary))
	}
	if s.Structure.Gap != 0 {
		t.Errorf("gap = %v, want 0", s.Structure.Gap)
	}
	if s.Structure.MaxSide != 100 {
		t.Errorf("max_side default lost: %v", s.Structure.MaxSide)
	}
	if !s.Constraints.SolarEnabled {
		t.Error("solar_enabled default lost")
	}
}

func TestParseJSONInvalid(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"boundary":`)); err == nil {
		t.Error("expected parse error")
	}
}
