package packing

import (
	"math"
	"sort"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// arena is the append-only set of accepted structures plus a uniform grid
// index over their bounding boxes.
type arena struct {
	structures []PlacedStructure
	bucket     float64
	buckets    map[[2]int][]int
	area       float64
}

func newArena(bucket float64) *arena {
	if bucket <= 0 {
		bucket = 50
	}
	return &arena{bucket: bucket, buckets: make(map[[2]int][]int)}
}

// clone returns an independent copy. Structures are shared by value; index
// slices are copied so appends never alias.
func (a *arena) clone() *arena {
	c := &arena{
		structures: append([]PlacedStructure(nil), a.structures...),
		bucket:     a.bucket,
		buckets:    make(map[[2]int][]int, len(a.buckets)),
		area:       a.area,
	}
	for k, v := range a.buckets {
		c.buckets[k] = append([]int(nil), v...)
	}
	return c
}

func (a *arena) len() int {
	return len(a.structures)
}

func (a *arena) add(s PlacedStructure) {
	idx := len(a.structures)
	a.structures = append(a.structures, s)
	a.area += s.Area
	minP, maxP := s.Footprint.BoundingBox()
	a.forBuckets(minP, maxP, 0, func(key [2]int) {
		a.buckets[key] = append(a.buckets[key], idx)
	})
}

func (a *arena) forBuckets(minP, maxP geo.Point2D, pad float64, fn func([2]int)) {
	x0 := int(math.Floor((minP.X - pad) / a.bucket))
	x1 := int(math.Floor((maxP.X + pad) / a.bucket))
	y0 := int(math.Floor((minP.Y - pad) / a.bucket))
	y1 := int(math.Floor((maxP.Y + pad) / a.bucket))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			fn([2]int{x, y})
		}
	}
}

// near returns indices of structures whose bounding boxes come within pad of
// poly's bounding box, in placement order.
func (a *arena) near(poly geo.Polygon, pad float64) []int {
	if len(a.structures) == 0 {
		return nil
	}
	minP, maxP := poly.BoundingBox()
	seen := map[int]bool{}
	var out []int
	a.forBuckets(minP, maxP, pad, func(key [2]int) {
		for _, idx := range a.buckets[key] {
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	})
	sort.Ints(out)
	return out
}

// clear reports whether poly keeps gap meters from every structure. With a
// zero gap, touching is allowed and only overlap conflicts.
func (a *arena) clear(poly geo.Polygon, gap float64) bool {
	for _, idx := range a.near(poly, gap+geo.Epsilon) {
		fp := a.structures[idx].Footprint
		if gap <= 0 {
			if geo.ConvexOverlap(poly, fp) {
				return false
			}
			continue
		}
		if geo.Distance(poly, fp) < gap-geo.Epsilon {
			return false
		}
	}
	return true
}
