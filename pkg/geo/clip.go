package geo

import (
	"math"
	"sort"
)

// ClipToConvex clips the subject polygon to a convex clip polygon using
// the Sutherland-Hodgman algorithm. Returns the intersection polygon.
// The clipper must be counterclockwise.
func ClipToConvex(subject, clipper Polygon) Polygon {
	if subject.IsEmpty() || clipper.IsEmpty() {
		return Polygon{}
	}
	output := make([]Point2D, len(subject.Vertices))
	copy(output, subject.Vertices)

	clipN := len(clipper.Vertices)
	for i := 0; i < clipN; i++ {
		if len(output) == 0 {
			return Polygon{}
		}
		edgeStart := clipper.Vertices[i]
		edgeEnd := clipper.Vertices[(i+1)%clipN]
		input := output
		output = make([]Point2D, 0, len(input))

		for j := 0; j < len(input); j++ {
			current := input[j]
			next := input[(j+1)%len(input)]
			curInside := isInsideEdge(current, edgeStart, edgeEnd)
			nextInside := isInsideEdge(next, edgeStart, edgeEnd)

			if curInside && nextInside {
				output = append(output, next)
			} else if curInside && !nextInside {
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
			} else if !curInside && nextInside {
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
				output = append(output, next)
			}
		}
	}
	if len(output) < 3 {
		return Polygon{}
	}
	return Polygon{Vertices: output}
}

// isInsideEdge returns true if p is on the left side of (or on) the directed
// edge from edgeStart to edgeEnd.
func isInsideEdge(p, edgeStart, edgeEnd Point2D) bool {
	return (edgeEnd.X-edgeStart.X)*(p.Y-edgeStart.Y)-
		(edgeEnd.Y-edgeStart.Y)*(p.X-edgeStart.X) >= 0
}

// lineIntersection returns the intersection point of lines (p1→p2) and (p3→p4).
func lineIntersection(p1, p2, p3, p4 Point2D) (Point2D, bool) {
	d := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if math.Abs(d) < 1e-12 {
		return Point2D{}, false
	}
	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / d
	return Point2D{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}, true
}

// OffsetConvex moves every edge of a convex polygon outward by d (inward for
// negative d) and joins adjacent edges with mitered corners.
func OffsetConvex(p Polygon, d float64) Polygon {
	if p.IsEmpty() || d == 0 {
		return p
	}
	p = p.EnsureCCW()
	n := len(p.Vertices)
	type line struct{ a, b Point2D }
	lines := make([]line, n)
	for i := 0; i < n; i++ {
		a, b := p.Edge(i)
		// Outward normal of a CCW edge points to its right.
		normal := b.Sub(a).Perp().Normalize().Scale(-d)
		lines[i] = line{a.Add(normal), b.Add(normal)}
	}
	out := make([]Point2D, 0, n)
	for i := 0; i < n; i++ {
		prev := lines[(i+n-1)%n]
		cur := lines[i]
		if ix, ok := lineIntersection(prev.a, prev.b, cur.a, cur.b); ok {
			out = append(out, ix)
		} else {
			out = append(out, cur.a)
		}
	}
	return Polygon{Vertices: out}
}

// ConvexHull returns the convex hull of pts in counterclockwise order using
// Andrew's monotone chain.
func ConvexHull(pts []Point2D) Polygon {
	if len(pts) < 3 {
		return Polygon{Vertices: append([]Point2D(nil), pts...)}
	}
	sorted := append([]Point2D(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	hull := make([]Point2D, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && orient(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && orient(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return Polygon{Vertices: hull[:len(hull)-1]}
}

// Rect returns the axis-aligned rectangle [minX,maxX]x[minY,maxY] in CCW order.
func Rect(minX, minY, maxX, maxY float64) Polygon {
	return Polygon{Vertices: []Point2D{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY},
	}}
}

// RotatedRect returns the rectangle [minX,maxX]x[minY,maxY] of a frame that is
// rotated counterclockwise by angle radians about the origin.
func RotatedRect(minX, minY, maxX, maxY, angle float64) Polygon {
	return Rect(minX, minY, maxX, maxY).Rotate(angle)
}
