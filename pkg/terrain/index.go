package terrain

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// zonePart is one indexed polygon of a zone.
type zonePart struct {
	zone int
	poly geo.Polygon
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface.
func (p *zonePart) Bounds() rtreego.Rect {
	return p.rect
}

// ZoneIndex answers clearance queries against a fixed set of zones. It is
// read-only after construction and safe for concurrent queries.
type ZoneIndex struct {
	zones []Zone
	tree  *rtreego.Rtree
	parts int
}

// NewZoneIndex indexes every part of every zone.
func NewZoneIndex(zones []Zone) *ZoneIndex {
	ix := &ZoneIndex{zones: zones, tree: rtreego.NewTree(2, 25, 50)}
	for zi, z := range zones {
		for _, p := range z.Parts {
			if p.IsEmpty() {
				continue
			}
			minP, maxP := p.BoundingBox()
			ix.tree.Insert(&zonePart{zone: zi, poly: p, rect: boundsRect(minP, maxP, 0)})
			ix.parts++
		}
	}
	return ix
}

// Len returns the number of indexed parts.
func (ix *ZoneIndex) Len() int {
	return ix.parts
}

// Conflict describes a zone that is closer to a polygon than allowed.
type Conflict struct {
	ZoneID   string  `json:"zone_id"`
	Kind     Kind    `json:"kind"`
	Distance float64 `json:"distance"`
}

// Clear reports whether poly keeps at least clearance meters from every
// zone. Touching a zone counts as a conflict even at zero clearance.
func (ix *ZoneIndex) Clear(poly geo.Polygon, clearance float64) bool {
	for _, part := range ix.near(poly, clearance) {
		if tooClose(geo.Distance(poly, part.poly), clearance) {
			return false
		}
	}
	return true
}

func tooClose(d, clearance float64) bool {
	return d == 0 || d < clearance-geo.Epsilon
}

// Conflicts lists each zone closer to poly than clearance, once per zone,
// with its smallest distance.
func (ix *ZoneIndex) Conflicts(poly geo.Polygon, clearance float64) []Conflict {
	closest := map[int]float64{}
	var order []int
	for _, part := range ix.near(poly, clearance) {
		d := geo.Distance(poly, part.poly)
		if !tooClose(d, clearance) {
			continue
		}
		prev, ok := closest[part.zone]
		if !ok {
			order = append(order, part.zone)
			prev = math.Inf(1)
		}
		closest[part.zone] = math.Min(prev, d)
	}
	sort.Ints(order)
	out := make([]Conflict, 0, len(order))
	for _, zi := range order {
		out = append(out, Conflict{ZoneID: ix.zones[zi].ID, Kind: ix.zones[zi].Kind, Distance: closest[zi]})
	}
	return out
}

func (ix *ZoneIndex) near(poly geo.Polygon, clearance float64) []*zonePart {
	if ix.parts == 0 || poly.IsEmpty() {
		return nil
	}
	minP, maxP := poly.BoundingBox()
	hits := ix.tree.SearchIntersect(boundsRect(minP, maxP, math.Max(clearance, 0)+geo.Epsilon))
	out := make([]*zonePart, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*zonePart))
	}
	return out
}

func boundsRect(minP, maxP geo.Point2D, pad float64) rtreego.Rect {
	w := math.Max(maxP.X-minP.X+2*pad, 1e-9)
	h := math.Max(maxP.Y-minP.Y+2*pad, 1e-9)
	rect, _ := rtreego.NewRect(rtreego.Point{minP.X - pad, minP.Y - pad}, []float64{w, h})
	return rect
}
