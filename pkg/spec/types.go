package spec

import "github.com/ChicagoDave/polyplanner/pkg/geo"

// PlanSpec is the top-level request for one planning run.
type PlanSpec struct {
	SpecVersion  string         `yaml:"spec_version" json:"spec_version"`
	Name         string         `yaml:"name" json:"name"`
	Boundary     []geo.GeoPoint `yaml:"boundary" json:"boundary"`
	BoundaryFile string         `yaml:"boundary_file,omitempty" json:"boundary_file,omitempty"`
	Structure    StructureSpec  `yaml:"structure" json:"structure"`
	Constraints  Constraints    `yaml:"constraints" json:"constraints"`
	Terrain      TerrainDef     `yaml:"terrain" json:"terrain"`
	Optimizer    OptimizerDef   `yaml:"optimizer" json:"optimizer"`
	Exclusions   []Exclusion    `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
}

// StructureSpec holds the sizing and spacing rules for polyhouses. All
// lengths are meters.
type StructureSpec struct {
	MinSide     float64 `yaml:"min_side" json:"min_side"`
	MaxSide     float64 `yaml:"max_side" json:"max_side"`
	GutterWidth float64 `yaml:"gutter_width" json:"gutter_width"`
	Gap         float64 `yaml:"gap" json:"gap"`
	BlockWidth  float64 `yaml:"block_width" json:"block_width"`
	BlockHeight float64 `yaml:"block_height" json:"block_height"`
}

// Constraints toggles the optional placement constraints.
type Constraints struct {
	SolarEnabled   bool `yaml:"solar_enabled" json:"solar_enabled"`
	TerrainEnabled bool `yaml:"terrain_enabled" json:"terrain_enabled"`
	// MaxSlope is in degrees.
	MaxSlope float64 `yaml:"max_slope" json:"max_slope"`
}

// TerrainDef configures terrain sampling.
type TerrainDef struct {
	Resolution     float64 `yaml:"resolution" json:"resolution"`
	MaxSamples     int     `yaml:"max_samples" json:"max_samples"`
	SourceURL      string  `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	TimeoutSeconds float64 `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries" json:"max_retries"`
	RoadMaxWidth   float64 `yaml:"road_max_width" json:"road_max_width"`
}

// OptimizerDef bounds the packing search.
type OptimizerDef struct {
	MaxDurationSeconds float64 `yaml:"max_duration_seconds" json:"max_duration_seconds"`
	MaxIterations      int     `yaml:"max_iterations" json:"max_iterations"`
	// TargetCoverage stops placement once this fraction (0-1] of the
	// boundary area is covered. Zero disables the area budget.
	TargetCoverage float64 `yaml:"target_coverage" json:"target_coverage"`
}

// Exclusion is a user-drawn restricted area.
type Exclusion struct {
	Name    string         `yaml:"name" json:"name"`
	Kind    string         `yaml:"kind" json:"kind"`
	Polygon []geo.GeoPoint `yaml:"polygon" json:"polygon"`
}

// Default returns a spec populated with the standard sizing rules. Decoding
// a request on top of it keeps these values for omitted fields.
func Default() PlanSpec {
	return PlanSpec{
		SpecVersion: "0.1.0",
		Structure: StructureSpec{
			MinSide:     8,
			MaxSide:     100,
			GutterWidth: 2,
			Gap:         2,
			BlockWidth:  8,
			BlockHeight: 4,
		},
		Constraints: Constraints{
			SolarEnabled: true,
			MaxSlope:     15,
		},
		Terrain: TerrainDef{
			Resolution:     10,
			MaxSamples:     2500,
			TimeoutSeconds: 10,
			MaxRetries:     3,
			RoadMaxWidth:   20,
		},
		Optimizer: OptimizerDef{
			MaxDurationSeconds: 30,
			MaxIterations:      200000,
		},
	}
}
