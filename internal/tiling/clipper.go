package tiling

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Stats counts what the clipper did with its input faces.
type Stats struct {
	Faces      int
	Inserted   int
	Degenerate int
	Splits     int
	Outside    int
}

// Clipper distributes faces over the tile grid of a dataset.
type Clipper struct {
	ds      *navdata.Dataset
	checker *navdata.Checker
	log     *zap.Logger
	stats   Stats
}

// NewClipper creates a clipper for an initialised tile grid. A nil checker
// reports containment failures as errors.
func NewClipper(ds *navdata.Dataset, checker *navdata.Checker, log *zap.Logger) *Clipper {
	if log == nil {
		log = zap.NewNop()
	}
	if checker == nil {
		checker = navdata.NewChecker(true, log)
	}
	return &Clipper{ds: ds, checker: checker, log: log}
}

// Stats returns the running counters.
func (c *Clipper) Stats() Stats {
	return c.stats
}

// mapPlane is a map edge with its inward normal
type mapPlane struct {
	outside func(p orb.Point) bool
	origin  orb.Point
	normal  orb.Point
}

func (c *Clipper) mapPlanes() []mapPlane {
	min, max := c.ds.Bounds.Min, c.ds.Bounds.Max
	eps := navdata.Epsilon
	return []mapPlane{
		{func(p orb.Point) bool { return p[0] < min[0]-eps }, min, orb.Point{1, 0}},
		{func(p orb.Point) bool { return p[0] > max[0]+eps }, max, orb.Point{-1, 0}},
		{func(p orb.Point) bool { return p[1] < min[1]-eps }, min, orb.Point{0, 1}},
		{func(p orb.Point) bool { return p[1] > max[1]+eps }, max, orb.Point{0, -1}},
	}
}

// ClipTriangle cuts a face to the map bounds and then splits it over the
// tiles it covers. Every resulting piece is inserted into the way list of
// its tile matching w.
func (c *Clipper) ClipTriangle(f Face, w *navdata.Way) error {
	c.stats.Faces++
	return c.clipToMap(f, w)
}

func (c *Clipper) clipToMap(f Face, w *navdata.Way) error {
	if f.Degenerate(navdata.Epsilon) {
		c.stats.Degenerate++
		return nil
	}
	for _, pl := range c.mapPlanes() {
		if !pl.outside(f[0].Coords) && !pl.outside(f[1].Coords) && !pl.outside(f[2].Coords) {
			continue
		}
		res := ClipAgainst(f, pl.origin, pl.normal)
		c.stats.Splits++
		c.stats.Outside += len(res.Back)
		for _, part := range res.Front {
			if err := c.clipToMap(part, w); err != nil {
				return err
			}
		}
		return nil
	}

	minCol, minRow := math.MaxInt, math.MaxInt
	maxCol, maxRow := math.MinInt, math.MinInt
	for _, n := range f {
		col, row := FindTile(c.ds, n.Coords)
		minCol, maxCol = min(minCol, col), max(maxCol, col)
		minRow, maxRow = min(minRow, row), max(maxRow, row)
	}
	lo := [2]int{clampTile(minCol, c.ds.NumCols), clampTile(minRow, c.ds.NumRows)}
	hi := [2]int{clampTile(maxCol, c.ds.NumCols), clampTile(maxRow, c.ds.NumRows)}
	return c.clip(f, lo, hi, w)
}

// clip recursively halves the tile range lo..hi. Columns are split first,
// then rows once the face fits in one column.
func (c *Clipper) clip(f Face, lo, hi [2]int, w *navdata.Way) error {
	if f.Degenerate(navdata.Epsilon) {
		c.stats.Degenerate++
		return nil
	}
	if lo == hi {
		return c.insert(c.ds.Tiles[lo[0]][lo[1]], f, w)
	}

	axis := 0
	if lo[0] == hi[0] {
		axis = 1
	}
	plane := [2]int{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2}
	origin := c.ds.Tiles[plane[0]][plane[1]].Bound.Max
	normal := orb.Point{}
	normal[axis] = -1

	res := ClipAgainst(f, origin, normal)
	c.stats.Splits++

	frontHi := hi
	frontHi[axis] = plane[axis]
	for _, part := range res.Front {
		if err := c.clip(part, lo, frontHi, w); err != nil {
			return err
		}
	}
	backLo := lo
	backLo[axis] = plane[axis] + 1
	for _, part := range res.Back {
		if err := c.clip(part, backLo, hi, w); err != nil {
			return err
		}
	}
	return nil
}

// insert copies the face vertices into the tile and the global node table
// under fresh ids and appends the triangle to the tile way list.
func (c *Clipper) insert(t *navdata.Tile, f Face, w *navdata.Way) error {
	var tri navdata.Triangle
	onEdge := false
	for i := range f {
		if err := c.checker.Check(t.Contains(f[i].Coords, navdata.Epsilon),
			"way %d vertex %v outside tile %d,%d", w.ID, f[i].Coords, t.Col, t.Row); err != nil {
			return err
		}
		n := f[i]
		n.ID = c.ds.NewNodeID()
		n.WayIDs = []navdata.WayID{w.ID}
		n.Index = 0
		t.Nodes[n.ID] = &n
		c.ds.AddNode(n.Clone())
		tri[i] = n.ID
		if n.TileBound && c.onMapEdge(n.Coords) {
			onEdge = true
		}
	}

	list := wayList(t, w)
	idx := appendTriangle(list, w, tri)
	c.stats.Inserted++

	if onEdge && w.Type == navdata.WayRoad && !w.Area && !w.IsIntersection {
		refs := c.ds.BoundaryNodes[t.Col][t.Row]
		if _, ok := refs[w.ID]; !ok {
			refs[w.ID] = &navdata.BoundaryRef{Index: idx}
		}
	}
	return nil
}

func (c *Clipper) onMapEdge(p orb.Point) bool {
	b := c.ds.Bounds
	eps := navdata.Epsilon
	return math.Abs(p[0]-b.Min[0]) <= eps || math.Abs(p[0]-b.Max[0]) <= eps ||
		math.Abs(p[1]-b.Min[1]) <= eps || math.Abs(p[1]-b.Max[1]) <= eps
}

func wayList(t *navdata.Tile, w *navdata.Way) *[]*navdata.ConvertedWay {
	switch w.Type {
	case navdata.WayRoad:
		if w.Area {
			return &t.AreaWays
		}
		return &t.RoadWays
	case navdata.WayParking:
		return &t.ParkingWays
	case navdata.WayBuilding:
		return &t.BuildWays
	case navdata.WayInner:
		return &t.InnerWays
	}
	return &t.AreaWays
}

// appendTriangle adds tri to the last way of the list when it has the same
// id, otherwise starts a new way. It returns the index of that way.
func appendTriangle(list *[]*navdata.ConvertedWay, w *navdata.Way, tri navdata.Triangle) int {
	ways := *list
	if n := len(ways); n > 0 && ways[n-1].ID == w.ID {
		last := ways[n-1]
		last.NodeIDs = append(last.NodeIDs, tri[:]...)
		last.Triangles = append(last.Triangles, tri)
		return n - 1
	}
	cw := &navdata.ConvertedWay{Way: *w}
	cw.NodeIDs = append([]navdata.NodeID(nil), tri[:]...)
	cw.Triangles = []navdata.Triangle{tri}
	*list = append(ways, cw)
	return len(*list) - 1
}
