package terrain

import (
	"fmt"
	"math"
	"sort"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// classify assigns a restriction kind to each sample. Water and forest
// come straight from land cover; impervious strips become roads when they
// are long and narrow; everything else is checked for slope.
func (b *Builder) classify(g *grid) {
	for k := range g.samples {
		s := &g.samples[k]
		switch s.cover {
		case LandCoverWater:
			s.kind = KindWater
		case LandCoverForest:
			s.kind = KindForest
		case LandCoverRoad:
			s.kind = KindRoad
		}
	}

	impervious := g.floodFill(func(s *sample) string {
		if s.kind == "" && s.cover == LandCoverImpervious {
			return string(LandCoverImpervious)
		}
		return ""
	})
	for _, members := range impervious {
		if g.looksLikeRoad(members, b.settings.RoadMaxWidth) {
			for _, k := range members {
				g.samples[k].kind = KindRoad
			}
		}
	}

	maxSlope := b.settings.MaxSlopeDegrees
	for k := range g.samples {
		s := &g.samples[k]
		if s.kind == "" && maxSlope > 0 && s.slope > maxSlope {
			s.kind = KindSteepSlope
		}
	}
}

// floodFill groups 4-connected samples sharing the same non-empty key.
// Groups and their members come out in scan order.
func (g *grid) floodFill(key func(*sample) string) [][]int {
	seen := make([]bool, len(g.samples))
	var groups [][]int
	for start := range g.samples {
		if seen[start] {
			continue
		}
		k := key(&g.samples[start])
		if k == "" {
			continue
		}
		seen[start] = true
		stack := []int{start}
		var members []int
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, cur)
			s := g.samples[cur]
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				n := g.at(s.i+d[0], s.j+d[1])
				if n == nil {
					continue
				}
				ni := g.index[n.j*g.nx+n.i]
				if seen[ni] || key(n) != k {
					continue
				}
				seen[ni] = true
				stack = append(stack, ni)
			}
		}
		sort.Ints(members)
		groups = append(groups, members)
	}
	return groups
}

// looksLikeRoad estimates a cluster's width as area over diagonal length.
func (g *grid) looksLikeRoad(members []int, maxWidth float64) bool {
	if len(members) == 0 || maxWidth <= 0 {
		return false
	}
	minI, maxI := math.MaxInt, math.MinInt
	minJ, maxJ := math.MaxInt, math.MinInt
	for _, k := range members {
		s := g.samples[k]
		minI, maxI = min(minI, s.i), max(maxI, s.i)
		minJ, maxJ = min(minJ, s.j), max(maxJ, s.j)
	}
	length := math.Hypot(float64(maxI-minI+1), float64(maxJ-minJ+1)) * g.spacing
	area := float64(len(members)) * g.spacing * g.spacing
	width := area / length
	return width <= maxWidth && length >= 3*width
}

// buildZones clusters restricted samples by kind and turns every cluster
// into row-merged rectangles buffered by one sample spacing.
func (b *Builder) buildZones(g *grid) []Zone {
	clusters := g.floodFill(func(s *sample) string { return string(s.kind) })
	counts := map[Kind]int{}
	zones := make([]Zone, 0, len(clusters))
	for _, members := range clusters {
		kind := g.samples[members[0]].kind
		counts[kind]++
		parts := g.rowRuns(members, g.spacing)

		var corners []geo.Point2D
		slopeSum := 0.0
		for _, p := range parts {
			corners = append(corners, p.Vertices...)
		}
		for _, k := range members {
			slopeSum += g.samples[k].slope
		}

		zones = append(zones, Zone{
			ID:          fmt.Sprintf("%s_%d", kind, counts[kind]),
			Kind:        kind,
			Severity:    severity(kind, slopeSum/float64(len(members)), b.settings.MaxSlopeDegrees),
			Parts:       parts,
			Hull:        geo.ConvexHull(corners),
			SampleCount: len(members),
		})
	}
	return zones
}

// rowRuns merges horizontally adjacent members into one rectangle per run.
// Each run covers its samples' cells, offset outward by buffer.
func (g *grid) rowRuns(members []int, buffer float64) []geo.Polygon {
	sorted := append([]int(nil), members...)
	sort.Slice(sorted, func(a, b int) bool {
		sa, sb := g.samples[sorted[a]], g.samples[sorted[b]]
		if sa.j != sb.j {
			return sa.j < sb.j
		}
		return sa.i < sb.i
	})

	half := g.spacing / 2
	var parts []geo.Polygon
	for start := 0; start < len(sorted); {
		first := g.samples[sorted[start]]
		end := start
		for end+1 < len(sorted) {
			next := g.samples[sorted[end+1]]
			if next.j != first.j || next.i != g.samples[sorted[end]].i+1 {
				break
			}
			end++
		}
		last := g.samples[sorted[end]]
		run := geo.Rect(
			first.local.X-half, first.local.Y-half,
			last.local.X+half, last.local.Y+half,
		)
		parts = append(parts, geo.OffsetConvex(run, buffer))
		start = end + 1
	}
	return parts
}

func severity(kind Kind, meanSlope, maxSlope float64) float64 {
	switch kind {
	case KindWater, KindRoad:
		return 1
	case KindForest:
		return 0.8
	case KindSteepSlope:
		if maxSlope <= 0 {
			return 1
		}
		return math.Min(1, meanSlope/(2*maxSlope))
	}
	return 0
}
