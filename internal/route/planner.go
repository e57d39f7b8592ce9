// Package route plans a drivable path through the junction graph and
// converts it into render space.
package route

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// reverseThreshold is the bearing difference, in radians, above which a
// way that runs back toward the current junction is walked in reverse.
const reverseThreshold = 0.25

type stop struct {
	id     navdata.NodeID
	coords orb.Point
}

// Planner walks the junction graph of a dataset.
type Planner struct {
	ds  *navdata.Dataset
	log *zap.Logger

	junctions   map[navdata.NodeID]bool
	visitedJunc map[navdata.NodeID]bool
	visitedWay  map[navdata.WayID]bool
}

// NewPlanner creates a planner over the recorded junctions of ds.
func NewPlanner(ds *navdata.Dataset, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Planner{
		ds:          ds,
		log:         log,
		junctions:   make(map[navdata.NodeID]bool, len(ds.OriginalIntersections)),
		visitedJunc: make(map[navdata.NodeID]bool),
		visitedWay:  make(map[navdata.WayID]bool),
	}
	for _, id := range ds.OriginalIntersections {
		p.junctions[id] = true
	}
	return p
}

// Calculate builds ds.Route greedily. Starting at the first recorded
// junction it follows an unvisited way to the next unvisited junction and
// repeats. The route ends when a junction has no way left to follow.
// Points outside the map or within navdata.BoundaryBuffer of its edge are
// never used.
func Calculate(ds *navdata.Dataset, log *zap.Logger) int {
	return NewPlanner(ds, log).Run()
}

// Run plans the route and returns the number of points appended.
func (p *Planner) Run() int {
	ds := p.ds
	if len(ds.OriginalIntersections) == 0 {
		p.log.Info("No route calculated, the map has no junctions")
		return 0
	}

	current := ds.OriginalIntersections[0]
	p.visitedJunc[current] = true
	var last navdata.NodeID
	haveLast := false
	before := len(ds.Route)

	for step := 0; step < len(ds.OriginalIntersections); step++ {
		node := ds.Nodes[current]
		if node == nil {
			break
		}
		next, stops, name, ok := p.leave(node)
		if !ok {
			break
		}
		for _, s := range stops {
			if haveLast && s.id == last {
				continue
			}
			ds.Route = append(ds.Route, navdata.RouteData{Point: s.coords, Name: name})
		}
		if len(stops) > 0 {
			last, haveLast = stops[len(stops)-1].id, true
		}
		current = next
	}

	added := len(ds.Route) - before
	p.log.Info("Route calculated",
		zap.Int("junctions", len(ds.OriginalIntersections)),
		zap.Int("ways_used", len(p.visitedWay)),
		zap.Int("points", added))
	return added
}

// leave picks the first unvisited way of node that reaches another
// unvisited junction.
func (p *Planner) leave(node *navdata.Node) (navdata.NodeID, []stop, string, bool) {
	for _, wid := range append([]navdata.WayID(nil), node.WayIDs...) {
		way := p.ds.OriginalRoadWays[wid]
		if way == nil || len(way.NodeIDs) == 0 || p.visitedWay[wid] {
			continue
		}
		p.visitedWay[wid] = true
		if p.isolated(way) {
			continue
		}
		if next, stops, ok := p.follow(way, node); ok {
			return next, stops, way.Name, true
		}
	}
	return 0, nil, "", false
}

// isolated reports whether neither end of the way is shared with another way
func (p *Planner) isolated(w *navdata.Way) bool {
	first, last := p.ds.Nodes[w.First()], p.ds.Nodes[w.Last()]
	return first != nil && last != nil && len(first.WayIDs) == 1 && len(last.WayIDs) == 1
}

func (p *Planner) usable(pt orb.Point) bool {
	return p.ds.InBounds(pt) && !p.ds.NearBoundary(pt, navdata.BoundaryBuffer)
}

// follow walks the way until it meets an unvisited junction. Nodes too
// close to the map edge reset the collected stops.
func (p *Planner) follow(way *navdata.Way, from *navdata.Node) (navdata.NodeID, []stop, bool) {
	var stops []stop
	for _, id := range way.NodeIDs {
		n := p.ds.Nodes[id]
		if n == nil {
			continue
		}
		if !p.usable(n.Coords) {
			stops = stops[:0]
			continue
		}
		stops = append(stops, stop{id: id, coords: n.Coords})
		if !p.junctions[id] || p.visitedJunc[id] {
			continue
		}
		p.visitedJunc[id] = true

		if way.First() == id && way.Last() == from.ID && len(way.NodeIDs) > 2 && p.runsBackward(way, from) {
			stops = stops[:0]
			for i := len(way.NodeIDs) - 1; i >= 0; i-- {
				if n := p.ds.Nodes[way.NodeIDs[i]]; n != nil && p.usable(n.Coords) {
					stops = append(stops, stop{id: n.ID, coords: n.Coords})
				}
			}
		}
		return id, stops, true
	}
	return 0, nil, false
}

// runsBackward compares the bearing from the far end of the way with the
// bearing from its middle node, both seen from the current junction. A way
// that bends away from the straight line is walked node by node.
func (p *Planner) runsBackward(way *navdata.Way, from *navdata.Node) bool {
	far := p.ds.Nodes[way.First()]
	mid := p.ds.Nodes[way.NodeIDs[len(way.NodeIDs)/2]]
	if far == nil || mid == nil {
		return false
	}
	a1 := math.Atan2(from.Coords[1]-far.Coords[1], from.Coords[0]-far.Coords[0])
	a2 := math.Atan2(from.Coords[1]-mid.Coords[1], from.Coords[0]-mid.Coords[0])
	return math.Abs(a1-a2) > reverseThreshold
}
