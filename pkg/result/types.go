// Package result turns an optimizer layout into the geographic planning
// result: converted footprints, coverage statistics, block adjacency and a
// placement validation report.
package result

import (
	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

// PlanningResult is the complete output of one planning run.
type PlanningResult struct {
	Name   string       `json:"name,omitempty"`
	Center geo.GeoPoint `json:"center"`

	Structures      []Structure `json:"structures"`
	RestrictedZones []Zone      `json:"restricted_zones"`

	BoundaryAreaSqm    float64 `json:"boundary_area_sqm"`
	TotalStructureArea float64 `json:"total_structure_area"`
	CoveragePercentage float64 `json:"coverage_percentage"`

	BuildableAreaPercentage float64        `json:"buildable_area_percentage"`
	AverageSlope            float64        `json:"average_slope"`
	ElevationRange          ElevationRange `json:"elevation_range"`

	TerminationReason packing.Termination `json:"termination_reason"`
	Degraded          bool                `json:"degraded"`
	DegradedReason    string              `json:"degraded_reason,omitempty"`

	SolarEnabled bool                       `json:"solar_enabled"`
	Orientation  solar.OrientationWindow    `json:"orientation_window"`
	Orientations []packing.OrientationScore `json:"orientations"`

	Adjacency  AdjacencySummary   `json:"adjacency"`
	Validation *validation.Report `json:"validation"`

	Iterations    int64 `json:"iterations"`
	ElapsedMillis int64 `json:"elapsed_ms"`
}

// Structure is a placed polyhouse in both coordinate systems.
type Structure struct {
	ID              string         `json:"id"`
	Tier            packing.Tier   `json:"tier"`
	RotationDegrees float64        `json:"rotation_degrees"`
	Width           float64        `json:"width"`
	Length          float64        `json:"length"`
	Area            float64        `json:"area"`
	Footprint       []geo.GeoPoint `json:"footprint"`
	LocalFootprint  []geo.Point2D  `json:"local_footprint"`
	Blocks          []Block        `json:"blocks"`
}

// Block is one structure block in geographic coordinates.
type Block struct {
	Index     int            `json:"index"`
	Row       int            `json:"row"`
	Col       int            `json:"col"`
	Footprint []geo.GeoPoint `json:"footprint"`
}

// Zone is a restricted zone in geographic coordinates.
type Zone struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	Severity float64          `json:"severity"`
	AreaSqm  float64          `json:"area_sqm"`
	Parts    [][]geo.GeoPoint `json:"parts"`
	Hull     []geo.GeoPoint   `json:"hull,omitempty"`
}

// ElevationRange is the sampled elevation span in meters.
type ElevationRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
