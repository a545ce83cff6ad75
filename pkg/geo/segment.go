package geo

import "math"

// Epsilon is the tolerance used for on-edge and clearance comparisons.
const Epsilon = 1e-6

// collinearTolerance bounds the sine of the angle at a below which a, b and c
// count as collinear.
const collinearTolerance = 1e-12

// orient returns the sign of the turn a->b->c: 1 for CCW, -1 for CW, 0 when
// collinear within tolerance. The cutoff scales with |ab|*|ac| so rounding
// noise in long edges far from the origin reads as collinear.
func orient(a, b, c Point2D) int {
	ab, ac := b.Sub(a), c.Sub(a)
	v := ab.Cross(ac)
	tol := collinearTolerance * math.Max(1, ab.Length()*ac.Length())
	switch {
	case v > tol:
		return 1
	case v < -tol:
		return -1
	}
	return 0
}

// onSegment reports whether c, known to be collinear with a-b, lies within
// the segment's bounding box.
func onSegment(a, b, c Point2D) bool {
	return math.Min(a.X, b.X)-1e-12 <= c.X && c.X <= math.Max(a.X, b.X)+1e-12 &&
		math.Min(a.Y, b.Y)-1e-12 <= c.Y && c.Y <= math.Max(a.Y, b.Y)+1e-12
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 share at least
// one point, including touching endpoints and collinear overlap.
func SegmentsIntersect(a1, a2, b1, b2 Point2D) bool {
	o1 := orient(a1, a2, b1)
	o2 := orient(a1, a2, b2)
	o3 := orient(b1, b2, a1)
	o4 := orient(b1, b2, a2)
	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if o2 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	if o3 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if o4 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	return false
}

// SegmentsCross reports a proper crossing: the segments intersect at a single
// point interior to both.
func SegmentsCross(a1, a2, b1, b2 Point2D) bool {
	o1 := orient(a1, a2, b1)
	o2 := orient(a1, a2, b2)
	o3 := orient(b1, b2, a1)
	o4 := orient(b1, b2, a2)
	return o1*o2 < 0 && o3*o4 < 0
}

// PointSegmentDistance returns the distance from p to segment a-b.
func PointSegmentDistance(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-24 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Scale(t)))
}

// SegmentDistance returns the minimum distance between two segments. Only a
// proper crossing short-circuits to zero; touching and collinear overlap fall
// out of the endpoint distances.
func SegmentDistance(a1, a2, b1, b2 Point2D) float64 {
	if SegmentsCross(a1, a2, b1, b2) {
		return 0
	}
	return math.Min(
		math.Min(PointSegmentDistance(a1, b1, b2), PointSegmentDistance(a2, b1, b2)),
		math.Min(PointSegmentDistance(b1, a1, a2), PointSegmentDistance(b2, a1, a2)),
	)
}

// EdgesCross reports whether any edge of a properly crosses any edge of b.
func EdgesCross(a, b Polygon) bool {
	for i := range a.Vertices {
		a1, a2 := a.Edge(i)
		for j := range b.Vertices {
			b1, b2 := b.Edge(j)
			if SegmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// EdgeClearance returns the minimum distance between the boundaries of a and
// b, ignoring containment.
func EdgeClearance(a, b Polygon) float64 {
	best := math.Inf(1)
	for i := range a.Vertices {
		a1, a2 := a.Edge(i)
		for j := range b.Vertices {
			b1, b2 := b.Edge(j)
			if d := SegmentDistance(a1, a2, b1, b2); d < best {
				best = d
				if best == 0 {
					return 0
				}
			}
		}
	}
	return best
}

// Distance returns the minimum distance between two polygons as areas: zero
// when they touch or one contains the other.
func Distance(a, b Polygon) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return math.Inf(1)
	}
	if a.Contains(b.Vertices[0]) || b.Contains(a.Vertices[0]) {
		return 0
	}
	return EdgeClearance(a, b)
}

// ConvexOverlap reports whether the interiors of two convex polygons share
// area, using the separating axis test. Polygons that only touch along an
// edge or at a corner do not overlap.
func ConvexOverlap(a, b Polygon) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	for _, poly := range []Polygon{a, b} {
		for i := range poly.Vertices {
			p1, p2 := poly.Edge(i)
			axis := p2.Sub(p1).Perp().Normalize()
			if axis == (Point2D{}) {
				continue
			}
			minA, maxA := project(a, axis)
			minB, maxB := project(b, axis)
			if math.Min(maxA, maxB)-math.Max(minA, minB) <= Epsilon {
				return false
			}
		}
	}
	return true
}

func project(p Polygon, axis Point2D) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.Vertices {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
