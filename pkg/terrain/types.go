package terrain

import (
	"strings"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// Kind identifies why a zone is restricted.
type Kind string

const (
	KindWater      Kind = "water"
	KindForest     Kind = "forest"
	KindRoad       Kind = "road"
	KindSteepSlope Kind = "steep_slope"
)

// LandCover is the surface category reported by a data source.
type LandCover string

const (
	LandCoverWater      LandCover = "water"
	LandCoverForest     LandCover = "forest"
	LandCoverRoad       LandCover = "road"
	LandCoverImpervious LandCover = "impervious"
	LandCoverCropland   LandCover = "cropland"
	LandCoverGrassland  LandCover = "grassland"
	LandCoverBare       LandCover = "bare"
	LandCoverUnknown    LandCover = "unknown"
)

// ParseLandCover maps common source labels onto a LandCover category.
func ParseLandCover(s string) LandCover {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "water", "wetland", "river", "lake", "pond":
		return LandCoverWater
	case "forest", "tree_cover", "trees", "woodland", "mangroves":
		return LandCoverForest
	case "road", "highway", "track":
		return LandCoverRoad
	case "impervious", "built", "built_up", "built-up", "paved", "urban":
		return LandCoverImpervious
	case "cropland", "crop", "farmland", "agriculture":
		return LandCoverCropland
	case "grassland", "grass", "shrubland", "meadow":
		return LandCoverGrassland
	case "bare", "barren", "sparse":
		return LandCoverBare
	}
	return LandCoverUnknown
}

// Zone is a restricted region in local coordinates. The region is the union
// of Parts.
type Zone struct {
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	Severity    float64       `json:"severity"`
	Parts       []geo.Polygon `json:"parts"`
	Hull        geo.Polygon   `json:"hull"`
	SampleCount int           `json:"sample_count,omitempty"`
}

// Area returns the summed area of the zone's parts. Overlapping parts are
// counted more than once.
func (z Zone) Area() float64 {
	total := 0.0
	for _, p := range z.Parts {
		total += p.Area()
	}
	return total
}

// Stats summarizes the sampled terrain.
type Stats struct {
	SampleCount             int     `json:"sample_count"`
	BuildableAreaPercentage float64 `json:"buildable_area_percentage"`
	AverageSlope            float64 `json:"average_slope"`
	ElevationMin            float64 `json:"elevation_min"`
	ElevationMax            float64 `json:"elevation_max"`
}

// Result is the output of one terrain build.
type Result struct {
	Zones          []Zone  `json:"zones"`
	Stats          Stats   `json:"stats"`
	Spacing        float64 `json:"spacing"`
	Degraded       bool    `json:"degraded"`
	DegradedReason string  `json:"degraded_reason,omitempty"`
}

// degradedResult is returned when no terrain data could be used.
func degradedResult(reason string) *Result {
	return &Result{
		Zones:          []Zone{},
		Stats:          Stats{BuildableAreaPercentage: 100},
		Degraded:       true,
		DegradedReason: reason,
	}
}
