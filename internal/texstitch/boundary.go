package texstitch

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Boundaries spreads the road texture across the vertices a road leaves
// on the exterior map edge. Roads of the same type meeting at the edge in
// one tile are stitched as a single cross section. It returns the number
// of cross sections written.
func Boundaries(ds *navdata.Dataset, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}
	stitched, skipped := 0, 0
	ds.EachTile(func(t *navdata.Tile) {
		refs := ds.BoundaryNodes[t.Col][t.Row]
		ids := navdata.SortedWayIDs(refs)
		for _, id := range ids {
			ref := refs[id]
			if ref.Consumed || ref.Index >= len(t.RoadWays) {
				continue
			}
			ref.Consumed = true
			if stitchSection(ds, t, refs, ids, id) {
				stitched++
			} else {
				skipped++
			}
		}
	})
	log.Info("Boundary texture coordinates set",
		zap.Int("sections", stitched),
		zap.Int("skipped", skipped))
	return stitched
}

func stitchSection(ds *navdata.Dataset, t *navdata.Tile, refs map[navdata.WayID]*navdata.BoundaryRef, ids []navdata.WayID, id navdata.WayID) bool {
	way := t.RoadWays[refs[id].Index]
	nodes := edgeNodes(ds, t, way)
	if len(nodes) == 0 {
		return false
	}

	// axis is the coordinate held constant along the edge
	axis := 1
	if onEdgeValue(ds, nodes[0].Coords[0], 0) {
		axis = 0
	}
	free := 1 - axis
	edge := nodes[0].Coords[axis]

	kept := nodes[:0]
	for _, n := range nodes {
		if math.Abs(n.Coords[axis]-edge) <= navdata.Epsilon {
			kept = append(kept, n)
		}
	}
	nodes = kept
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Coords[free] < nodes[j].Coords[free] })

	var rejected []*navdata.Node
	for _, oid := range ids {
		oref := refs[oid]
		if oid == id || oref.Consumed || oref.Index >= len(t.RoadWays) {
			continue
		}
		other := t.RoadWays[oref.Index]
		if other.RoadType != way.RoadType {
			continue
		}
		nextTo := oid-id < 2 && id-oid < 2
		for _, n := range edgeNodes(ds, t, other) {
			if math.Abs(n.Coords[axis]-edge) > navdata.Epsilon {
				continue
			}
			v := n.Coords[free]
			lo, hi := nodes[0].Coords[free], nodes[len(nodes)-1].Coords[free]
			switch {
			case v > hi:
				if nextTo || math.Abs(lo-v) < way.Width {
					nodes = append(nodes, n)
				} else {
					rejected = append(rejected, n)
				}
			case v < lo:
				if nextTo || math.Abs(hi-v) < way.Width {
					nodes = append([]*navdata.Node{n}, nodes...)
				} else {
					rejected = append(rejected, n)
				}
			default:
				nodes = append(nodes[:1], append([]*navdata.Node{n}, nodes[1:]...)...)
			}
		}
		oref.Consumed = true
	}

	if len(nodes) < 2 {
		return false
	}
	total := geom.Distance(nodes[0].Coords, nodes[len(nodes)-1].Coords)
	if total < way.Width && len(rejected) > 0 {
		nodes = addClosest(nodes, rejected, free)
		total = geom.Distance(nodes[0].Coords, nodes[len(nodes)-1].Coords)
	}
	nodes = uniqueNodes(nodes)
	if len(nodes) < 2 || total <= 0 {
		return false
	}

	first, last := nodes[0], nodes[len(nodes)-1]
	lhs, rhs := first.UV[0], last.UV[0]
	if sameU(lhs, rhs) {
		if sameU(rhs, navdata.TexUVLeft) {
			rhs = navdata.TexUVRight
		} else {
			rhs = navdata.TexUVLeft
		}
		last.UV[0] = rhs
	}
	for _, n := range nodes[1 : len(nodes)-1] {
		f := geom.Distance(first.Coords, n.Coords) / total
		n.UV = orb.Point{lhs + (rhs-lhs)*f, navdata.TexUVUp}
	}
	return true
}

// edgeNodes returns the tile copies of the way's vertices created by a cut
// along the exterior map edge.
func edgeNodes(ds *navdata.Dataset, t *navdata.Tile, w *navdata.ConvertedWay) []*navdata.Node {
	var out []*navdata.Node
	for _, id := range w.NodeIDs {
		n := t.Nodes[id]
		if n == nil || !n.TileBound {
			continue
		}
		if onEdgeValue(ds, n.Coords[0], 0) || onEdgeValue(ds, n.Coords[1], 1) {
			out = append(out, n)
		}
	}
	return out
}

func onEdgeValue(ds *navdata.Dataset, v float64, axis int) bool {
	return math.Abs(v-ds.Bounds.Min[axis]) <= navdata.Epsilon || math.Abs(v-ds.Bounds.Max[axis]) <= navdata.Epsilon
}

// addClosest widens a section narrower than its road with the rejected
// node nearest to either end.
func addClosest(nodes, rejected []*navdata.Node, free int) []*navdata.Node {
	lo, hi := nodes[0].Coords[free], nodes[len(nodes)-1].Coords[free]
	best, bestDist := rejected[0], math.MaxFloat64
	for _, n := range rejected {
		d := math.Min(math.Abs(n.Coords[free]-lo), math.Abs(n.Coords[free]-hi))
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	if best.Coords[free] < lo {
		return append([]*navdata.Node{best}, nodes...)
	}
	return append(nodes, best)
}

func uniqueNodes(nodes []*navdata.Node) []*navdata.Node {
	seen := make(map[navdata.NodeID]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}
