package packing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// budget is the cooperative stop condition of one run. The deadline and
// context are shared by every goroutine; the iteration limit is counted per
// orientation so which scans hit it does not depend on scheduling.
type budget struct {
	ctx      context.Context
	deadline time.Time
	maxIter  int64

	// spent holds one counter per orientation. Each slot is only written
	// by the scan running that orientation.
	spent []int64
}

func newBudget(ctx context.Context, b Budget, start time.Time, orientations int) *budget {
	bg := &budget{ctx: ctx, maxIter: int64(b.MaxIterations), spent: make([]int64, orientations)}
	if b.MaxDuration > 0 {
		bg.deadline = start.Add(b.MaxDuration)
	}
	return bg
}

func (b *budget) tick(slot int) {
	b.spent[slot]++
}

// expired reports whether the context is done or the deadline has passed.
func (b *budget) expired() bool {
	if b.ctx.Err() != nil {
		return true
	}
	return !b.deadline.IsZero() && time.Now().After(b.deadline)
}

// exceeded reports whether the scan of one orientation must stop and return
// what it has.
func (b *budget) exceeded(slot int) bool {
	if b.expired() {
		return true
	}
	return b.maxIter > 0 && b.spent[slot] >= b.maxIter
}

func (b *budget) iterations() int64 {
	var n int64
	for _, v := range b.spent {
		n += v
	}
	return n
}

// tierLimits are the side constraints of one tier, in cells and meters.
type tierLimits struct {
	tier    Tier
	minSide float64
	maxSide float64
	maxCols int
	maxRows int
}

// candidate is a grown rectangle on the scan grid.
type candidate struct {
	i, j       int
	cols, rows int
	area       float64
	dist       float64
}

// scanner runs one tier for one orientation. It owns its grid and arena
// copies and its budget slot; nothing else it touches is written.
type scanner struct {
	grid   *scanGrid
	arena  *arena
	limits tierLimits
	gap    float64
	target float64
	budget *budget
	slot   int
	placed []string
}

type scanOutcome struct {
	area    float64
	timeout bool
	reached bool
}

// run places rectangles until no complying candidate remains, the area
// target is reached, or the budget runs out.
func (s *scanner) run() scanOutcome {
	var out scanOutcome
	for {
		if s.budget.exceeded(s.slot) {
			out.timeout = true
			return out
		}
		if s.target > 0 && s.arena.area >= s.target-geo.Epsilon {
			out.reached = true
			return out
		}
		best, ok := s.bestCandidate()
		if !ok {
			out.timeout = s.budget.expired()
			return out
		}
		s.accept(best)
		out.area += best.area
	}
}

// bestCandidate grows a rectangle from every corner seed, a free cell whose
// left and lower neighbours are not free, and keeps the largest. Equal areas
// go to the rectangle closest to the centroid of the free cells. The search
// is abandoned with no result once the deadline passes or the context ends.
func (s *scanner) bestCandidate() (candidate, bool) {
	g := s.grid
	cx, cy, ok := g.freeCentroid()
	if !ok {
		return candidate{}, false
	}

	var best candidate
	found := false
	for j := 0; j < g.ny; j++ {
		if s.budget.expired() {
			return candidate{}, false
		}
		for i := 0; i < g.nx; i++ {
			if !g.free(i, j) || g.free(i-1, j) || g.free(i, j-1) {
				continue
			}
			c := s.grow(i, j)
			if !s.complies(c) {
				continue
			}
			x0, y0, x1, y1 := g.frameRect(c.i, c.j, c.cols, c.rows)
			c.dist = math.Hypot((x0+x1)/2-cx, (y0+y1)/2-cy)
			if !found || c.area > best.area+geo.Epsilon ||
				(math.Abs(c.area-best.area) <= geo.Epsilon && c.dist < best.dist-geo.Epsilon) {
				best = c
				found = true
			}
		}
	}
	return best, found
}

// grow extends a rectangle from seed (i, j) by alternating one column and
// one row. Each axis stops on its own once its next column or row is not
// entirely free or would exceed the tier's maximum side.
func (s *scanner) grow(i, j int) candidate {
	s.budget.tick(s.slot)
	g := s.grid
	cols, rows := 1, 1
	growX, growY := true, true
	for growX || growY {
		if growX {
			if cols < s.limits.maxCols && s.columnFree(i+cols, j, rows) {
				cols++
			} else {
				growX = false
			}
		}
		if growY {
			if rows < s.limits.maxRows && s.rowFree(i, j+rows, cols) {
				rows++
			} else {
				growY = false
			}
		}
	}
	return candidate{i: i, j: j, cols: cols, rows: rows, area: float64(cols) * g.bw * float64(rows) * g.bh}
}

func (s *scanner) columnFree(i, j, rows int) bool {
	for r := 0; r < rows; r++ {
		if !s.grid.free(i, j+r) {
			return false
		}
	}
	return true
}

func (s *scanner) rowFree(i, j, cols int) bool {
	for c := 0; c < cols; c++ {
		if !s.grid.free(i+c, j) {
			return false
		}
	}
	return true
}

func (s *scanner) complies(c candidate) bool {
	w := float64(c.cols) * s.grid.bw
	h := float64(c.rows) * s.grid.bh
	return math.Min(w, h) >= s.limits.minSide-geo.Epsilon &&
		math.Max(w, h) <= s.limits.maxSide+geo.Epsilon
}

// accept claims the rectangle and its gap buffer, then appends the
// structure to the arena.
func (s *scanner) accept(c candidate) {
	g := s.grid
	g.claimRange(c.i, c.j, c.cols, c.rows, s.gap)

	ps := PlacedStructure{
		ID:              fmt.Sprintf("ph_%d", s.arena.len()+1),
		Tier:            s.limits.tier,
		Footprint:       g.rangePolygon(c.i, c.j, c.cols, c.rows),
		RotationDegrees: g.angleDeg,
		Width:           float64(c.cols) * g.bw,
		Length:          float64(c.rows) * g.bh,
		Area:            c.area,
	}
	ps.Blocks = make([]Block, 0, c.cols*c.rows)
	for r := 0; r < c.rows; r++ {
		for col := 0; col < c.cols; col++ {
			ps.Blocks = append(ps.Blocks, Block{
				Index:     len(ps.Blocks),
				Row:       r,
				Col:       col,
				Footprint: g.cellPolygon(c.i+col, c.j+r),
			})
		}
	}
	s.arena.add(ps)
	s.placed = append(s.placed, ps.ID)
}
