package packing

import (
	"math"
	"time"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/terrain"
)

// Tier is one size class of the placement passes.
type Tier string

const (
	TierLarge  Tier = "large"
	TierMedium Tier = "medium"
	TierSmall  Tier = "small"
)

// Termination explains why the optimizer stopped.
type Termination string

const (
	TerminationExhausted          Termination = "exhausted"
	TerminationAreaBudgetReached  Termination = "area_budget_reached"
	TerminationNoValidOrientation Termination = "no_valid_orientation"
	TerminationAreaTooSmall       Termination = "area_too_small"
	TerminationTimeout            Termination = "timeout"
)

// Block is one blockWidth x blockHeight unit of a structure.
type Block struct {
	Index     int         `json:"index"`
	Row       int         `json:"row"`
	Col       int         `json:"col"`
	Footprint geo.Polygon `json:"footprint"`
}

// PlacedStructure is an accepted polyhouse. It is never modified after it
// is placed.
type PlacedStructure struct {
	ID   string `json:"id"`
	Tier Tier   `json:"tier"`
	// Footprint holds the four corners in counterclockwise order.
	Footprint       geo.Polygon `json:"footprint"`
	RotationDegrees float64     `json:"rotation_degrees"`
	// Width runs along the rotated x axis, Length along the rotated y axis.
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Blocks []Block `json:"blocks"`
	Area   float64 `json:"area"`
}

// ShortSide returns the smaller of width and length.
func (s PlacedStructure) ShortSide() float64 {
	return math.Min(s.Width, s.Length)
}

// LongSide returns the larger of width and length.
func (s PlacedStructure) LongSide() float64 {
	return math.Max(s.Width, s.Length)
}

// Budget bounds the search. Zero values disable the respective limit.
// MaxIterations counts rectangle grows and applies to each orientation.
type Budget struct {
	MaxDuration   time.Duration
	MaxIterations int
}

// Input is everything one optimization run reads. None of it is modified.
type Input struct {
	Boundary  geo.Polygon
	Zones     []terrain.Zone
	Structure spec.StructureSpec
	// Orientations are candidate rotations in degrees, base first.
	Orientations []float64
	Budget       Budget
	// TargetCoverage is a fraction of the boundary area; zero disables it.
	TargetCoverage float64
	Progress       func(Event)
}

// OrientationScore records how one candidate angle did in one tier.
type OrientationScore struct {
	Tier       Tier    `json:"tier"`
	Angle      float64 `json:"angle"`
	Area       float64 `json:"area"`
	Structures int     `json:"structures"`
	Selected   bool    `json:"selected"`
}

// Layout is the optimizer output.
type Layout struct {
	Structures   []PlacedStructure  `json:"structures"`
	Termination  Termination        `json:"termination_reason"`
	Orientations []OrientationScore `json:"orientations"`
	Iterations   int64              `json:"iterations"`
	Elapsed      time.Duration      `json:"elapsed"`
}

// TotalArea sums the placed structure areas.
func (l *Layout) TotalArea() float64 {
	total := 0.0
	for _, s := range l.Structures {
		total += s.Area
	}
	return total
}

// EventKind names a progress event.
type EventKind string

const (
	EventTierStarted          EventKind = "tier_started"
	EventOrientationEvaluated EventKind = "orientation_evaluated"
	EventStructurePlaced      EventKind = "structure_placed"
	EventTierCompleted        EventKind = "tier_completed"
)

// Event reports optimizer progress. Events are delivered from a single
// goroutine, in order.
type Event struct {
	Kind        EventKind `json:"kind"`
	Tier        Tier      `json:"tier"`
	Angle       float64   `json:"angle"`
	StructureID string    `json:"structure_id,omitempty"`
	Structures  int       `json:"structures"`
	PlacedArea  float64   `json:"placed_area"`
}
