package result

import (
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
)

// AdjacencyClass is the corner category of a block.
type AdjacencyClass string

const (
	// Corner90 blocks have two perpendicular exposed edges.
	Corner90 AdjacencyClass = "corner_90"
	// Edge180 blocks have one exposed edge, or two opposite ones.
	Edge180 AdjacencyClass = "edge_180"
	// InnerCorner270 blocks have no exposed edge but miss a diagonal
	// neighbour.
	InnerCorner270 AdjacencyClass = "inner_corner_270"
	// Interior blocks are surrounded on all sides.
	Interior AdjacencyClass = "interior"
)

// AdjacencyCounts tallies blocks per class.
type AdjacencyCounts struct {
	Corner90       int `json:"corner_90"`
	Edge180        int `json:"edge_180"`
	InnerCorner270 int `json:"inner_corner_270"`
	Interior       int `json:"interior"`
}

func (c *AdjacencyCounts) add(class AdjacencyClass) {
	switch class {
	case Corner90:
		c.Corner90++
	case Edge180:
		c.Edge180++
	case InnerCorner270:
		c.InnerCorner270++
	default:
		c.Interior++
	}
}

// StructureAdjacency is the breakdown for one structure.
type StructureAdjacency struct {
	ID string `json:"id"`
	AdjacencyCounts
	// SharedEdges counts block edges shared with other structures.
	SharedEdges int `json:"shared_edges"`
	// Classes holds the class of each block, by block index.
	Classes []AdjacencyClass `json:"classes"`
}

// AdjacencySummary is the block adjacency report of a layout.
type AdjacencySummary struct {
	Totals     AdjacencyCounts      `json:"totals"`
	Structures []StructureAdjacency `json:"structures"`
}

type blockRef struct {
	structure int
	block     int
}

type edgeRef struct {
	blockRef
	dir geo.Point2D
}

// ClassifyAdjacency compares the edges of every block of every structure.
// Two blocks are neighbours when they share a full edge: same midpoint
// within tol and parallel directions. Blocks of different structures only
// share edges when the structures touch, which happens with a zero gap.
func ClassifyAdjacency(structures []packing.PlacedStructure, tol float64) AdjacencySummary {
	if tol <= 0 {
		tol = adjacencyTolerance
	}
	key := func(p geo.Point2D) [2]int64 {
		return [2]int64{int64(math.Round(p.X / tol)), int64(math.Round(p.Y / tol))}
	}

	edges := map[[2]int64][]edgeRef{}
	corners := map[[2]int64]int{}
	for si, s := range structures {
		for bi, b := range s.Blocks {
			fp := b.Footprint
			for e := 0; e < fp.Len(); e++ {
				a, c := fp.Edge(e)
				k := key(geo.MidPoint(a, c))
				edges[k] = append(edges[k], edgeRef{blockRef{si, bi}, c.Sub(a).Normalize()})
				corners[key(a)]++
			}
		}
	}

	summary := AdjacencySummary{Structures: make([]StructureAdjacency, 0, len(structures))}
	for si, s := range structures {
		sa := StructureAdjacency{ID: s.ID, Classes: make([]AdjacencyClass, 0, len(s.Blocks))}
		for bi, b := range s.Blocks {
			fp := b.Footprint
			exposed := make([]bool, fp.Len())
			nExposed := 0
			for e := 0; e < fp.Len(); e++ {
				a, c := fp.Edge(e)
				dir := c.Sub(a).Normalize()
				neighbour := -1
				for _, ref := range edges[key(geo.MidPoint(a, c))] {
					if ref.structure == si && ref.block == bi {
						continue
					}
					if math.Abs(ref.dir.Cross(dir)) < 1e-6 {
						neighbour = ref.structure
						break
					}
				}
				if neighbour < 0 {
					exposed[e] = true
					nExposed++
				} else if neighbour != si {
					sa.SharedEdges++
				}
			}

			class := classifyBlock(exposed, nExposed)
			if class == Interior {
				for _, v := range fp.Vertices {
					if corners[key(v)] < 4 {
						class = InnerCorner270
						break
					}
				}
			}
			sa.add(class)
			sa.Classes = append(sa.Classes, class)
			summary.Totals.add(class)
		}
		summary.Structures = append(summary.Structures, sa)
	}
	return summary
}

// classifyBlock maps the exposed edges of a quadrilateral block to its
// class. Interior blocks are refined by the caller.
func classifyBlock(exposed []bool, n int) AdjacencyClass {
	switch n {
	case 0:
		return Interior
	case 1:
		return Edge180
	case 2:
		for e := range exposed {
			if exposed[e] && exposed[(e+1)%len(exposed)] {
				return Corner90
			}
		}
		return Edge180
	default:
		return Corner90
	}
}
