package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// Load reads a plan spec from a YAML file. A boundary_file is resolved
// relative to the spec's directory.
func Load(path string) (*PlanSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if spec.BoundaryFile != "" && len(spec.Boundary) == 0 {
		bpath := spec.BoundaryFile
		if !filepath.IsAbs(bpath) {
			bpath = filepath.Join(filepath.Dir(path), bpath)
		}
		ring, err := LoadBoundaryGeoJSON(bpath)
		if err != nil {
			return nil, err
		}
		spec.Boundary = ring
	}
	return spec, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*PlanSpec, error) {
	spec := Default()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing plan YAML: %w", err)
	}
	spec.Normalize()
	return &spec, nil
}

// ParseJSON decodes a JSON request body on top of the defaults.
func ParseJSON(data []byte) (*PlanSpec, error) {
	spec := Default()
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing plan JSON: %w", err)
	}
	spec.Normalize()
	return &spec, nil
}

// LoadProject loads a plan spec from a project directory.
// It looks for plan.yaml in the given directory.
func LoadProject(projectDir string) (*PlanSpec, error) {
	specPath := filepath.Join(projectDir, "plan.yaml")
	return Load(specPath)
}

// Normalize drops repeated closing vertices from every ring.
func (s *PlanSpec) Normalize() {
	s.Boundary = geo.NormalizeRing(s.Boundary)
	for i := range s.Exclusions {
		s.Exclusions[i].Polygon = geo.NormalizeRing(s.Exclusions[i].Polygon)
	}
}
