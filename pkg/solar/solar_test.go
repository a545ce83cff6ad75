package solar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviationPiecewise(t *testing.T) {
	assert.Equal(t, 180.0, Deviation(0))
	assert.InDelta(t, 23.44+156.56*0.5, Deviation(11.72), 1e-9)
	assert.InDelta(t, 23.44+156.56*0.5, Deviation(-11.72), 1e-9)
	assert.InDelta(t, 90, Deviation(TropicLatitude), 1e-6)

	want45 := math.Asin(math.Tan(23.44*math.Pi/180)) * 180 / math.Pi
	assert.InDelta(t, want45, Deviation(45), 1e-9)
	assert.InDelta(t, 25.69, Deviation(45), 0.01)

	assert.Equal(t, 0.0, Deviation(70))
	assert.Equal(t, 0.0, Deviation(-89.9))
}

func TestDeviationAlwaysInRange(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 0.25 {
		d := Deviation(lat)
		require.False(t, math.IsNaN(d), "lat %v", lat)
		require.GreaterOrEqual(t, d, 0.0)
		require.LessOrEqual(t, d, 180.0)
	}
	assert.Equal(t, 0.0, Deviation(math.NaN()))
}

func TestIsOrientationValid(t *testing.T) {
	assert.True(t, IsOrientationValid(137, 0))
	assert.True(t, IsOrientationValid(0, 70))
	assert.True(t, IsOrientationValid(180, 70))
	assert.False(t, IsOrientationValid(1, 70))

	d := Deviation(45)
	assert.True(t, IsOrientationValid(d, 45))
	assert.True(t, IsOrientationValid(-d, 45))
	assert.True(t, IsOrientationValid(180+d, 45))
	assert.False(t, IsOrientationValid(d+1, 45))
	assert.False(t, IsOrientationValid(90, 45))
}

func TestSuggestedOrientations(t *testing.T) {
	assert.Equal(t, []float64{0}, SuggestedOrientations(70))

	got := SuggestedOrientations(45)
	require.Len(t, got, 5)
	assert.Equal(t, 0.0, got[0])
	for _, a := range got {
		assert.True(t, IsOrientationValid(a, 45), "angle %v", a)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.Less(t, a, 360.0)
	}

	// At the equator the window is capped at a quarter turn.
	eq := SuggestedOrientations(0)
	assert.Equal(t, []float64{0, 45, 315, 90, 270}, eq)
}

func TestWindow(t *testing.T) {
	w := Window(30)
	assert.Equal(t, 0.0, w.BaseDegrees)
	assert.Equal(t, Deviation(30), w.AllowedDeviationDegrees)
}

func TestWindowAllows(t *testing.T) {
	w := OrientationWindow{AllowedDeviationDegrees: 20}
	assert.True(t, w.Allows(0))
	assert.True(t, w.Allows(200))
	assert.True(t, w.Allows(-20))
	assert.False(t, w.Allows(21))
	assert.False(t, w.Allows(90))
}
