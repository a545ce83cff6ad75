// Package solar derives the orientation window that keeps structure gutters
// aligned close enough to north-south for adequate sun exposure at a given
// latitude.
package solar

import (
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

const (
	// TropicLatitude is the Tropic of Cancer/Capricorn in degrees.
	TropicLatitude = 23.44
	// PolarLatitude is the latitude above which only strict north-south is allowed.
	PolarLatitude = 66.5
	// MaxDeviation means any orientation is acceptable.
	MaxDeviation = 180.0

	// minSpreadDeviation is the smallest window for which off-axis
	// candidates are suggested.
	minSpreadDeviation = 1.0
	angleTolerance     = 1e-9
)

// OrientationWindow constrains candidate rotations around a base orientation.
type OrientationWindow struct {
	BaseDegrees             float64 `json:"base_degrees"`
	AllowedDeviationDegrees float64 `json:"allowed_deviation_degrees"`
}

// Window returns the orientation window for lat.
func Window(lat float64) OrientationWindow {
	return OrientationWindow{BaseDegrees: 0, AllowedDeviationDegrees: Deviation(lat)}
}

// Deviation returns the maximum allowed offset from north-south in degrees.
func Deviation(lat float64) float64 {
	a := math.Abs(lat)
	var d float64
	switch {
	case math.IsNaN(a):
		return 0
	case a == 0:
		d = MaxDeviation
	case a < TropicLatitude:
		d = TropicLatitude + (MaxDeviation-TropicLatitude)*(1-a/TropicLatitude)
	case a <= PolarLatitude:
		d = temperateDeviation(a)
	default:
		d = 0
	}
	return math.Max(0, math.Min(MaxDeviation, d))
}

// temperateDeviation is the solar-declination admissibility angle. A ratio
// that exceeds 1 only through rounding at the tropic boundary is clamped to
// 1; a genuinely undefined result is 0.
func temperateDeviation(absLat float64) float64 {
	ratio := math.Tan(geo.Deg2Rad(TropicLatitude)) / math.Tan(geo.Deg2Rad(absLat))
	if ratio > 1 && ratio-1 <= 1e-12 {
		ratio = 1
	}
	d := math.Abs(geo.Rad2Deg(math.Asin(ratio)))
	if math.IsNaN(d) {
		return 0
	}
	return d
}

// OffsetFromBase returns the minimal angular distance from angle to the
// north-south axis (0 or 180 degrees).
func OffsetFromBase(angle float64) float64 {
	a := geo.NormalizeDegrees(angle)
	d := math.Mod(a, 180)
	return math.Min(d, 180-d)
}

// Allows reports whether angle is within the window's deviation from the
// north-south axis.
func (w OrientationWindow) Allows(angle float64) bool {
	return OffsetFromBase(angle-w.BaseDegrees) <= w.AllowedDeviationDegrees+angleTolerance
}

// IsOrientationValid reports whether angle lies inside the window for lat.
func IsOrientationValid(angle, lat float64) bool {
	return Window(lat).Allows(angle)
}

// SuggestedOrientations returns candidate rotations in degrees, normalized
// to [0, 360), that span the allowed window for lat. The base orientation
// always comes first.
func SuggestedOrientations(lat float64) []float64 {
	d := Deviation(lat)
	if d < minSpreadDeviation {
		return []float64{0}
	}
	// Footprints are symmetric under a half turn, so a quarter turn covers
	// every distinct rectangle.
	full := math.Min(d, 90)
	half := full / 2
	return dedupe([]float64{0, half, -half, full, -full})
}

func dedupe(angles []float64) []float64 {
	out := make([]float64, 0, len(angles))
	for _, a := range angles {
		n := geo.NormalizeDegrees(a)
		dup := false
		for _, o := range out {
			if math.Abs(o-n) < angleTolerance {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}
