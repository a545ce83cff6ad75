package packing

import (
	"context"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
)

// Tier sizing as fractions of maxSide.
const (
	largeTierFraction  = 0.6
	mediumTierFraction = 0.3
)

// Optimize runs the tiered greedy placement. It never fails: degenerate or
// fully restricted input yields an empty layout with a termination reason,
// and an exhausted budget or cancelled context yields the best layout so far
// with TerminationTimeout.
func Optimize(ctx context.Context, in Input) *Layout {
	start := time.Now()
	layout := &Layout{Structures: []PlacedStructure{}, Orientations: []OrientationScore{}}
	finish := func(t Termination, b *budget) *Layout {
		layout.Termination = t
		layout.Elapsed = time.Since(start)
		if b != nil {
			layout.Iterations = b.iterations()
		}
		return layout
	}

	st := in.Structure
	boundary := in.Boundary.EnsureCCW()
	if boundary.IsEmpty() || !fitsOneStructure(st, boundary.Area()) {
		return finish(TerminationAreaTooSmall, nil)
	}

	angles := in.Orientations
	if len(angles) == 0 {
		angles = []float64{0}
	}
	bud := newBudget(ctx, in.Budget, start, len(angles))
	zones := terrain.NewZoneIndex(in.Zones)

	// Buildable masks depend only on the boundary, zones and angle, so they
	// are computed once and shared read-only by every tier.
	bases := make([]*scanGrid, len(angles))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for k, a := range angles {
		eg.Go(func() error {
			bases[k] = newScanGrid(boundary, zones, st.BlockWidth, st.BlockHeight, st.GutterWidth, a, bud)
			return nil
		})
	}
	_ = eg.Wait()

	for _, b := range bases {
		if b.truncated {
			return finish(TerminationTimeout, bud)
		}
	}

	anyBuildable := false
	for _, b := range bases {
		if b.buildable > 0 {
			anyBuildable = true
			break
		}
	}
	if !anyBuildable {
		return finish(TerminationNoValidOrientation, bud)
	}

	target := 0.0
	if in.TargetCoverage > 0 {
		target = in.TargetCoverage * boundary.Area()
	}
	current := newArena(math.Max(st.MaxSide, 1) + st.Gap)
	termination := TerminationExhausted

	for _, limits := range tiers(st) {
		if bud.expired() {
			termination = TerminationTimeout
			break
		}
		emit(in.Progress, Event{Kind: EventTierStarted, Tier: limits.tier, Structures: current.len(), PlacedArea: current.area})

		results := make([]*scanner, len(angles))
		outcomes := make([]scanOutcome, len(angles))
		var tg errgroup.Group
		tg.SetLimit(runtime.GOMAXPROCS(0))
		for k := range angles {
			if bases[k].buildable == 0 {
				continue
			}
			tg.Go(func() error {
				grid := bases[k].clone()
				ar := current.clone()
				grid.claimArena(ar, st.Gap, bud)
				sc := &scanner{grid: grid, arena: ar, limits: limits, gap: st.Gap, target: target, budget: bud, slot: k}
				outcomes[k] = sc.run()
				results[k] = sc
				return nil
			})
		}
		_ = tg.Wait()

		best := pickOrientation(angles, results, outcomes)
		for k, sc := range results {
			if sc == nil {
				continue
			}
			score := OrientationScore{
				Tier:       limits.tier,
				Angle:      angles[k],
				Area:       outcomes[k].area,
				Structures: len(sc.placed),
				Selected:   k == best,
			}
			layout.Orientations = append(layout.Orientations, score)
			emit(in.Progress, Event{Kind: EventOrientationEvaluated, Tier: limits.tier, Angle: angles[k], Structures: score.Structures, PlacedArea: score.Area})
		}
		if best < 0 {
			continue
		}

		winner := results[best]
		current = winner.arena
		for _, id := range winner.placed {
			emit(in.Progress, Event{Kind: EventStructurePlaced, Tier: limits.tier, Angle: angles[best], StructureID: id, Structures: current.len(), PlacedArea: current.area})
		}
		emit(in.Progress, Event{Kind: EventTierCompleted, Tier: limits.tier, Angle: angles[best], Structures: current.len(), PlacedArea: current.area})

		if anyTimeout(outcomes) {
			termination = TerminationTimeout
			break
		}
		if target > 0 && current.area >= target-geo.Epsilon {
			termination = TerminationAreaBudgetReached
			break
		}
	}

	layout.Structures = append(layout.Structures, current.structures...)
	if len(layout.Structures) == 0 && termination == TerminationExhausted {
		termination = TerminationAreaTooSmall
	}
	return finish(termination, bud)
}

// pickOrientation returns the index of the scan that placed the most area.
// Ties go to the angle closest to north-south, then to the earlier
// candidate. It returns -1 when no scan ran.
func pickOrientation(angles []float64, results []*scanner, outcomes []scanOutcome) int {
	best := -1
	for k, sc := range results {
		if sc == nil {
			continue
		}
		if best < 0 {
			best = k
			continue
		}
		da := outcomes[k].area - outcomes[best].area
		switch {
		case da > geo.Epsilon:
			best = k
		case math.Abs(da) <= geo.Epsilon &&
			solar.OffsetFromBase(angles[k]) < solar.OffsetFromBase(angles[best])-1e-9:
			best = k
		}
	}
	return best
}

func anyTimeout(outcomes []scanOutcome) bool {
	for _, o := range outcomes {
		if o.timeout {
			return true
		}
	}
	return false
}

// tiers returns the large, medium and small passes. Tiers whose minimum
// side collapses onto the previous one are kept; they simply find nothing
// new once the earlier pass is exhausted.
func tiers(st spec.StructureSpec) []tierLimits {
	mk := func(t Tier, minSide float64) tierLimits {
		return tierLimits{
			tier:    t,
			minSide: math.Max(st.MinSide, minSide),
			maxSide: st.MaxSide,
			maxCols: int(math.Floor(st.MaxSide/st.BlockWidth + 1e-9)),
			maxRows: int(math.Floor(st.MaxSide/st.BlockHeight + 1e-9)),
		}
	}
	return []tierLimits{
		mk(TierLarge, largeTierFraction*st.MaxSide),
		mk(TierMedium, mediumTierFraction*st.MaxSide),
		mk(TierSmall, st.MinSide),
	}
}

// fitsOneStructure reports whether a minimum structure can be assembled from
// whole blocks within maxSide and the parcel is at least that large.
func fitsOneStructure(st spec.StructureSpec, boundaryArea float64) bool {
	if st.BlockWidth <= 0 || st.BlockHeight <= 0 || st.MaxSide < st.MinSide {
		return false
	}
	w := math.Ceil(st.MinSide/st.BlockWidth-1e-9) * st.BlockWidth
	h := math.Ceil(st.MinSide/st.BlockHeight-1e-9) * st.BlockHeight
	if w > st.MaxSide+geo.Epsilon || h > st.MaxSide+geo.Epsilon {
		return false
	}
	return boundaryArea >= st.MinSide*st.MinSide
}

func emit(fn func(Event), e Event) {
	if fn != nil {
		fn(e)
	}
}
