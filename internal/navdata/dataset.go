package navdata

import (
	"sort"

	"github.com/paulmach/orb"
)

// Dataset is the single mutable aggregate threaded through every stage.
// Stages must run in pipeline order; nothing here enforces it.
type Dataset struct {
	Variant Variant

	// Bounds is the projected map extent, Min is always the origin.
	Bounds    orb.Bound
	MinLonLat orb.Point
	MaxLonLat orb.Point

	// TileScale is lon/lat degrees per tile, TileSize its projected extent.
	TileScale orb.Point
	TileSize  orb.Point
	NumCols   int
	NumRows   int

	Nodes             map[NodeID]*Node
	OriginalRoadWays  map[WayID]*Way
	TriangulatedRoads map[WayID]*Way
	ConvertedRoads    map[WayID]*ConvertedWay
	ParkingWays       map[WayID]*Way
	BuildWays         map[WayID]*Way

	OriginalIntersections []NodeID
	Intersections         map[NodeID]*IntersectionData

	Route              []RouteData
	TotalRouteDistance float64

	Labels          [LODCount][]Label
	Icons           [LODCount][]Icon
	AmenityLabels   [LODCount][]AmenityLabel
	UniqueIconNames map[string]struct{}

	// BoundaryNodes is indexed [col][row] like Tiles.
	BoundaryNodes [][]map[WayID]*BoundaryRef
	Tiles         [][]*Tile

	MapWorldDim orb.Point

	nextNodeID NodeID
	nextWayID  WayID
	tiled      *tilingMark
}

type tilingMark struct {
	nodeID NodeID
}

// New creates an empty dataset for the given variant.
func New(variant Variant) *Dataset {
	return &Dataset{
		Variant:           variant,
		Nodes:             make(map[NodeID]*Node),
		OriginalRoadWays:  make(map[WayID]*Way),
		TriangulatedRoads: make(map[WayID]*Way),
		ConvertedRoads:    make(map[WayID]*ConvertedWay),
		ParkingWays:       make(map[WayID]*Way),
		BuildWays:         make(map[WayID]*Way),
		Intersections:     make(map[NodeID]*IntersectionData),
		UniqueIconNames:   make(map[string]struct{}),
	}
}

// AddNode inserts a node under its own id and raises the id watermark.
func (d *Dataset) AddNode(n *Node) {
	d.Nodes[n.ID] = n
	if n.ID > d.nextNodeID {
		d.nextNodeID = n.ID
	}
}

// NewNode allocates a fresh id and inserts a node at p.
func (d *Dataset) NewNode(p orb.Point, uv orb.Point) *Node {
	n := &Node{ID: d.NewNodeID(), Coords: p, UV: uv}
	d.Nodes[n.ID] = n
	return n
}

// NewNodeID returns max(existing)+1. Ids are never handed out twice.
func (d *Dataset) NewNodeID() NodeID {
	d.nextNodeID++
	return d.nextNodeID
}

// ReserveWayID raises the way id watermark to at least id.
func (d *Dataset) ReserveWayID(id WayID) {
	if id > d.nextWayID {
		d.nextWayID = id
	}
}

// NewWayID returns max(existing)+1 across every way table.
func (d *Dataset) NewWayID() WayID {
	d.nextWayID++
	return d.nextWayID
}

// Node returns the node with the given id or nil.
func (d *Dataset) Node(id NodeID) *Node {
	return d.Nodes[id]
}

// Coords returns the coordinates of the given nodes, skipping missing ids.
func (d *Dataset) Coords(ids []NodeID) []orb.Point {
	out := make([]orb.Point, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.Nodes[id]; ok {
			out = append(out, n.Coords)
		}
	}
	return out
}

// InBounds reports whether p lies inside the map bounds.
func (d *Dataset) InBounds(p orb.Point) bool {
	return p[0] >= d.Bounds.Min[0] && p[0] <= d.Bounds.Max[0] &&
		p[1] >= d.Bounds.Min[1] && p[1] <= d.Bounds.Max[1]
}

// NearBoundary reports whether p lies within buffer of the map edge.
func (d *Dataset) NearBoundary(p orb.Point, buffer float64) bool {
	return p[0]-d.Bounds.Min[0] < buffer || d.Bounds.Max[0]-p[0] < buffer ||
		p[1]-d.Bounds.Min[1] < buffer || d.Bounds.Max[1]-p[1] < buffer
}

// TileAt returns the tile at the given column and row.
func (d *Dataset) TileAt(col, row int) *Tile {
	return d.Tiles[col][row]
}

// EachTile calls fn for every tile in column-major order.
func (d *Dataset) EachTile(fn func(t *Tile)) {
	for _, col := range d.Tiles {
		for _, t := range col {
			fn(t)
		}
	}
}

// GridBound returns the extent covered by the tile grid, or the map bounds
// before tiles exist.
func (d *Dataset) GridBound() orb.Bound {
	if len(d.Tiles) == 0 || len(d.Tiles[0]) == 0 {
		return d.Bounds
	}
	last := d.Tiles[len(d.Tiles)-1]
	return orb.Bound{Min: d.Tiles[0][0].Bound.Min, Max: last[len(last)-1].Bound.Max}
}

// MarkTiling records the node watermark before tiling allocates clip
// vertices, or rolls back to it when tiling runs again.
func (d *Dataset) MarkTiling() {
	if d.tiled == nil {
		d.tiled = &tilingMark{nodeID: d.nextNodeID}
		return
	}
	for id := range d.Nodes {
		if id > d.tiled.nodeID {
			delete(d.Nodes, id)
		}
	}
	d.nextNodeID = d.tiled.nodeID
}

// SortedNodeIDs returns the node table keys in ascending order.
func (d *Dataset) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedWayIDs returns the keys of a way table in ascending order.
func SortedWayIDs[W any](m map[WayID]W) []WayID {
	ids := make([]WayID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clean drops the intermediate tables once tiles hold their final data.
func (d *Dataset) Clean() {
	d.Nodes = make(map[NodeID]*Node)
	d.OriginalRoadWays = make(map[WayID]*Way)
	d.TriangulatedRoads = make(map[WayID]*Way)
	d.ConvertedRoads = make(map[WayID]*ConvertedWay)
	d.ParkingWays = make(map[WayID]*Way)
	d.BuildWays = make(map[WayID]*Way)
	d.Intersections = make(map[NodeID]*IntersectionData)
	d.OriginalIntersections = nil
	d.BoundaryNodes = nil
	d.UniqueIconNames = make(map[string]struct{})
	for lod := 0; lod < LODCount; lod++ {
		d.Labels[lod] = nil
		d.Icons[lod] = nil
		d.AmenityLabels[lod] = nil
	}
	d.tiled = nil
}

// Stats summarizes table sizes for logging.
type Stats struct {
	Nodes         int
	RoadWays      int
	ParkingWays   int
	BuildWays     int
	Intersections int
	Labels        int
	Icons         int
	Tiles         int
	Triangles     int
	RoutePoints   int
}

// Stats returns the current table sizes.
func (d *Dataset) Stats() Stats {
	s := Stats{
		Nodes:         len(d.Nodes),
		RoadWays:      len(d.OriginalRoadWays),
		ParkingWays:   len(d.ParkingWays),
		BuildWays:     len(d.BuildWays),
		Intersections: len(d.OriginalIntersections),
		RoutePoints:   len(d.Route),
	}
	for lod := 0; lod < LODCount; lod++ {
		s.Labels += len(d.Labels[lod])
		s.Icons += len(d.Icons[lod])
	}
	d.EachTile(func(t *Tile) {
		s.Tiles++
		s.Triangles += t.TriangleCount()
	})
	return s
}
