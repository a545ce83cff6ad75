package packing

import (
	"math"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
)

type cellState uint8

const (
	cellBlocked cellState = iota
	cellFree
	cellClaimed
)

// scanGrid is a lattice of blockWidth x blockHeight cells in a frame rotated
// by angle. Frame coordinates are world coordinates rotated by -angle, so
// every structure grown on the grid is axis-aligned in the frame.
type scanGrid struct {
	angleDeg float64
	angle    float64
	originX  float64
	originY  float64
	bw, bh   float64
	nx, ny   int
	state    []cellState

	// buildable counts cells that passed the boundary and zone checks.
	buildable int
	// truncated is set when the budget expired before every row was checked.
	truncated bool
}

// newScanGrid lays the lattice over the rotated bounding box of the boundary,
// inset by the gutter, and marks each cell buildable when it lies inside the
// boundary with gutter clearance and keeps the gutter from every zone. The
// budget is checked once per row.
func newScanGrid(boundary geo.Polygon, zones *terrain.ZoneIndex, bw, bh, gutter, angleDeg float64, bud *budget) *scanGrid {
	angle := geo.Deg2Rad(angleDeg)
	minF, maxF := boundary.Rotate(-angle).BoundingBox()

	g := &scanGrid{
		angleDeg: angleDeg,
		angle:    angle,
		originX:  minF.X + gutter,
		originY:  minF.Y + gutter,
		bw:       bw,
		bh:       bh,
	}
	// Small tolerance so a span that is an exact multiple of the block does
	// not lose its last cell to rounding.
	g.nx = int(math.Floor((maxF.X-minF.X-2*gutter)/bw + 1e-9))
	g.ny = int(math.Floor((maxF.Y-minF.Y-2*gutter)/bh + 1e-9))
	if g.nx <= 0 || g.ny <= 0 {
		g.nx, g.ny = 0, 0
		return g
	}

	g.state = make([]cellState, g.nx*g.ny)
	for j := 0; j < g.ny; j++ {
		if bud.expired() {
			g.truncated = true
			return g
		}
		for i := 0; i < g.nx; i++ {
			cell := g.cellPolygon(i, j)
			if !boundary.Contains(g.cellCenter(i, j)) {
				continue
			}
			if !boundary.ContainsPolygon(cell) {
				continue
			}
			if gutter > 0 && geo.EdgeClearance(cell, boundary) < gutter-geo.Epsilon {
				continue
			}
			if !zones.Clear(cell, gutter) {
				continue
			}
			g.state[j*g.nx+i] = cellFree
			g.buildable++
		}
	}
	return g
}

func (g *scanGrid) clone() *scanGrid {
	c := *g
	c.state = append([]cellState(nil), g.state...)
	return &c
}

func (g *scanGrid) free(i, j int) bool {
	if i < 0 || j < 0 || i >= g.nx || j >= g.ny {
		return false
	}
	return g.state[j*g.nx+i] == cellFree
}

// frameRect returns the frame-space bounds of the cell range
// [i, i+cols) x [j, j+rows).
func (g *scanGrid) frameRect(i, j, cols, rows int) (x0, y0, x1, y1 float64) {
	x0 = g.originX + float64(i)*g.bw
	y0 = g.originY + float64(j)*g.bh
	return x0, y0, x0 + float64(cols)*g.bw, y0 + float64(rows)*g.bh
}

func (g *scanGrid) cellPolygon(i, j int) geo.Polygon {
	return g.rangePolygon(i, j, 1, 1)
}

// rangePolygon returns the world polygon of a cell range, counterclockwise.
func (g *scanGrid) rangePolygon(i, j, cols, rows int) geo.Polygon {
	x0, y0, x1, y1 := g.frameRect(i, j, cols, rows)
	return geo.RotatedRect(x0, y0, x1, y1, g.angle)
}

func (g *scanGrid) cellCenter(i, j int) geo.Point2D {
	x0, y0, x1, y1 := g.frameRect(i, j, 1, 1)
	return geo.Pt((x0+x1)/2, (y0+y1)/2).Rotate(g.angle)
}

// claimArena marks free cells that come too close to an existing structure.
// It stops early once the budget expires; the scan that follows then returns
// without placing anything.
func (g *scanGrid) claimArena(a *arena, gap float64, bud *budget) {
	if a.len() == 0 {
		return
	}
	for j := 0; j < g.ny; j++ {
		if bud.expired() {
			return
		}
		for i := 0; i < g.nx; i++ {
			if g.state[j*g.nx+i] != cellFree {
				continue
			}
			if !a.clear(g.cellPolygon(i, j), gap) {
				g.state[j*g.nx+i] = cellClaimed
			}
		}
	}
}

// claimRange marks the cells of an accepted rectangle and every cell whose
// frame distance to it is below gap. With a zero gap only the rectangle
// itself is claimed.
func (g *scanGrid) claimRange(i, j, cols, rows int, gap float64) {
	rx0, ry0, rx1, ry1 := g.frameRect(i, j, cols, rows)
	padX := int(math.Ceil(gap/g.bw)) + 1
	padY := int(math.Ceil(gap/g.bh)) + 1
	for cj := max(0, j-padY); cj < min(g.ny, j+rows+padY); cj++ {
		for ci := max(0, i-padX); ci < min(g.nx, i+cols+padX); ci++ {
			k := cj*g.nx + ci
			if g.state[k] != cellFree {
				continue
			}
			inside := ci >= i && ci < i+cols && cj >= j && cj < j+rows
			if inside {
				g.state[k] = cellClaimed
				continue
			}
			if gap <= 0 {
				continue
			}
			cx0, cy0, cx1, cy1 := g.frameRect(ci, cj, 1, 1)
			dx := math.Max(0, math.Max(cx0-rx1, rx0-cx1))
			dy := math.Max(0, math.Max(cy0-ry1, ry0-cy1))
			if math.Hypot(dx, dy) < gap-geo.Epsilon {
				g.state[k] = cellClaimed
			}
		}
	}
}

// freeCentroid returns the frame-space centroid of the free cells.
func (g *scanGrid) freeCentroid() (float64, float64, bool) {
	sx, sy, n := 0.0, 0.0, 0
	for j := 0; j < g.ny; j++ {
		for i := 0; i < g.nx; i++ {
			if g.state[j*g.nx+i] == cellFree {
				sx += g.originX + (float64(i)+0.5)*g.bw
				sy += g.originY + (float64(j)+0.5)*g.bh
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}
