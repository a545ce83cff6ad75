package scene2d

import "github.com/ChicagoDave/polyplanner/pkg/result"

// Scene2D is a plan in local meters for a top-down SVG renderer. X grows
// east and Y grows north from the parcel centroid.
type Scene2D struct {
	Metadata   Metadata               `json:"metadata"`
	Boundary   [][2]float64           `json:"boundary"`
	Zones      []Zone2D               `json:"zones"`
	Structures []Structure2D          `json:"structures"`
	Blocks     result.AdjacencyCounts `json:"blocks"`
}

// Metadata holds plan-level summary data.
type Metadata struct {
	Name               string     `json:"name,omitempty"`
	Center             [2]float64 `json:"center"` // lat, lng
	BoundaryAreaSqm    float64    `json:"boundary_area_sqm"`
	StructureAreaSqm   float64    `json:"structure_area_sqm"`
	CoveragePercentage float64    `json:"coverage_percentage"`
	StructureCount     int        `json:"structure_count"`
	Bounds             Bounds     `json:"bounds"`
	GeneratedAt        string     `json:"generated_at"`
}

// Bounds is the local extent of the boundary.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the east-west extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the north-south extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Zone2D is a restricted zone.
type Zone2D struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Severity float64        `json:"severity"`
	AreaSqm  float64        `json:"area_sqm"`
	Polygons [][][2]float64 `json:"polygons"`
}

// Structure2D is a placed polyhouse.
type Structure2D struct {
	ID        string       `json:"id"`
	Tier      string       `json:"tier"`
	Rotation  float64      `json:"rotation"`
	Center    [2]float64   `json:"center"`
	Width     float64      `json:"width"`
	Length    float64      `json:"length"`
	Footprint [][2]float64 `json:"footprint"`
	Blocks    []Block2D    `json:"blocks"`
}

// Block2D is one block of a structure with its adjacency class.
type Block2D struct {
	Index   int          `json:"index"`
	Class   string       `json:"class,omitempty"`
	Polygon [][2]float64 `json:"polygon"`
}
