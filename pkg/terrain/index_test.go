package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
)

func TestZoneIndexEmpty(t *testing.T) {
	ix := NewZoneIndex(nil)
	assert.Equal(t, 0, ix.Len())
	assert.True(t, ix.Clear(geo.Rect(0, 0, 10, 10), 5))
	assert.Empty(t, ix.Conflicts(geo.Rect(0, 0, 10, 10), 5))
}

func TestZoneIndexConflicts(t *testing.T) {
	zones := []Zone{
		{ID: "pond", Kind: KindWater, Parts: []geo.Polygon{geo.Rect(0, 0, 10, 10)}},
		{ID: "woods", Kind: KindForest, Parts: []geo.Polygon{geo.Rect(50, 0, 60, 10), geo.Rect(60, 0, 70, 10)}},
	}
	ix := NewZoneIndex(zones)
	require.Equal(t, 3, ix.Len())

	probe := geo.Rect(12, 0, 20, 10)
	assert.True(t, ix.Clear(probe, 2))
	assert.False(t, ix.Clear(probe, 3))

	conflicts := ix.Conflicts(geo.Rect(11, 0, 49, 10), 2)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "pond", conflicts[0].ZoneID)
	assert.InDelta(t, 1, conflicts[0].Distance, 1e-9)
	assert.Equal(t, KindForest, conflicts[1].Kind)

	// Overlap is always a conflict, even with zero clearance.
	assert.False(t, ix.Clear(geo.Rect(5, 5, 8, 8), 0))
}

func TestFromExclusions(t *testing.T) {
	pr := geo.NewProjector(geo.GeoPoint{})
	ex := []spec.Exclusion{{
		Kind: "water",
		Polygon: []geo.GeoPoint{
			{Lat: 0, Lng: 0}, {Lat: 0.0001, Lng: 0}, {Lat: 0.0001, Lng: 0.0001}, {Lat: 0, Lng: 0.0001},
		},
	}}
	zones := FromExclusions(pr, ex)
	require.Len(t, zones, 1)
	assert.Equal(t, "exclusion_1", zones[0].ID)
	assert.Equal(t, KindWater, zones[0].Kind)
	assert.True(t, zones[0].Parts[0].IsCounterClockwise())
	assert.InDelta(t, 11.132*11.132, zones[0].Area(), 0.01)
}
