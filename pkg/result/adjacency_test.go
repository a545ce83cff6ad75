package result

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
)

// gridStructure builds an axis-aligned structure of unit blocks with its
// lower-left block at (x0, y0).
func gridStructure(id string, x0, y0 float64, cols, rows int) packing.PlacedStructure {
	s := packing.PlacedStructure{
		ID:        id,
		Footprint: geo.Rect(x0, y0, x0+float64(cols), y0+float64(rows)),
		Width:     float64(cols),
		Length:    float64(rows),
		Area:      float64(cols * rows),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := x0+float64(c), y0+float64(r)
			s.Blocks = append(s.Blocks, packing.Block{
				Index:     len(s.Blocks),
				Row:       r,
				Col:       c,
				Footprint: geo.Rect(x, y, x+1, y+1),
			})
		}
	}
	return s
}

func TestClassifyAdjacencySingleStructure(t *testing.T) {
	tests := []struct {
		cols, rows int
		want       AdjacencyCounts
	}{
		{1, 1, AdjacencyCounts{Corner90: 1}},
		{3, 1, AdjacencyCounts{Corner90: 2, Edge180: 1}},
		{3, 2, AdjacencyCounts{Corner90: 4, Edge180: 2}},
		{3, 3, AdjacencyCounts{Corner90: 4, Edge180: 4, Interior: 1}},
		{4, 5, AdjacencyCounts{Corner90: 4, Edge180: 10, Interior: 6}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.cols, tt.rows), func(t *testing.T) {
			got := ClassifyAdjacency([]packing.PlacedStructure{gridStructure("ph_1", 0, 0, tt.cols, tt.rows)}, 1e-6)
			assert.Equal(t, tt.want, got.Totals)
			require.Len(t, got.Structures, 1)
			assert.Equal(t, tt.want, got.Structures[0].AdjacencyCounts)
			assert.Zero(t, got.Structures[0].SharedEdges)
		})
	}
}

func TestClassifyAdjacencySeparatedStructures(t *testing.T) {
	got := ClassifyAdjacency([]packing.PlacedStructure{
		gridStructure("ph_1", 0, 0, 3, 3),
		gridStructure("ph_2", 5, 0, 3, 3),
	}, 1e-6)
	assert.Equal(t, AdjacencyCounts{Corner90: 8, Edge180: 8, Interior: 2}, got.Totals)
}

func TestClassifyAdjacencyTouchingStructures(t *testing.T) {
	got := ClassifyAdjacency([]packing.PlacedStructure{
		gridStructure("ph_1", 0, 0, 3, 3),
		gridStructure("ph_2", 3, 0, 3, 3),
	}, 1e-6)
	assert.Equal(t, AdjacencyCounts{Corner90: 4, Edge180: 10, Interior: 4}, got.Totals)
	assert.Equal(t, 3, got.Structures[0].SharedEdges)
	assert.Equal(t, 3, got.Structures[1].SharedEdges)
}

func TestClassifyAdjacencyInnerCorner(t *testing.T) {
	// An L-shaped union: a 3x3 structure with a 2x2 one attached to the
	// lower half of its right side.
	got := ClassifyAdjacency([]packing.PlacedStructure{
		gridStructure("ph_1", 0, 0, 3, 3),
		gridStructure("ph_2", 3, 0, 2, 2),
	}, 1e-6)
	assert.Equal(t, AdjacencyCounts{Corner90: 5, Edge180: 6, InnerCorner270: 1, Interior: 1}, got.Totals)
	assert.Equal(t, 1, got.Structures[0].InnerCorner270)
	assert.Equal(t, 2, got.Structures[0].SharedEdges)
	assert.Equal(t, 2, got.Structures[1].SharedEdges)
	assert.Len(t, got.Structures[0].Classes, 9)
	assert.Len(t, got.Structures[1].Classes, 4)
}

func TestClassifyAdjacencyEmpty(t *testing.T) {
	got := ClassifyAdjacency(nil, 0)
	assert.Equal(t, AdjacencyCounts{}, got.Totals)
	assert.Empty(t, got.Structures)
}
