package navdata

import "github.com/paulmach/orb"

// Vertex is one entry of a tile vertex buffer.
type Vertex struct {
	Position orb.Point
	Height   float64
	UV       orb.Point
	Normal   [3]float64
}

// DrawRange is a contiguous run of indices sharing a draw category.
type DrawRange struct {
	Category WayType
	RoadType RoadType
	Start    uint32
	Count    uint32
}

// Tile is one cell of the grid. It owns copies of the nodes its triangles
// reference.
type Tile struct {
	Col, Row  int
	Bound     orb.Bound
	ScreenMin orb.Point
	ScreenMax orb.Point

	AreaWays    []*ConvertedWay
	RoadWays    []*ConvertedWay
	ParkingWays []*ConvertedWay
	BuildWays   []*ConvertedWay
	InnerWays   []*ConvertedWay

	Labels        [LODCount][]Label
	Icons         [LODCount][]Icon
	AmenityLabels [LODCount][]AmenityLabel

	Nodes map[NodeID]*Node

	Vertices   []Vertex
	Indices    []uint32
	DrawRanges []DrawRange
}

// NewTile creates an empty tile covering the given bounds.
func NewTile(col, row int, bound orb.Bound) *Tile {
	return &Tile{
		Col:   col,
		Row:   row,
		Bound: bound,
		Nodes: make(map[NodeID]*Node),
	}
}

// AllWays returns every way list of the tile in draw order.
func (t *Tile) AllWays() [][]*ConvertedWay {
	return [][]*ConvertedWay{t.ParkingWays, t.BuildWays, t.InnerWays, t.AreaWays, t.RoadWays}
}

// TriangleCount returns the number of triangles held by the tile.
func (t *Tile) TriangleCount() int {
	n := 0
	for _, list := range t.AllWays() {
		for _, w := range list {
			n += len(w.Triangles)
		}
	}
	return n
}

// Contains reports whether p lies inside the tile bounds within eps.
func (t *Tile) Contains(p orb.Point, eps float64) bool {
	return p[0] >= t.Bound.Min[0]-eps && p[0] <= t.Bound.Max[0]+eps &&
		p[1] >= t.Bound.Min[1]-eps && p[1] <= t.Bound.Max[1]+eps
}
