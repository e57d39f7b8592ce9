// Package texstitch assigns texture coordinates so road markings continue
// across junction fans and the map edge.
package texstitch

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// corner is a fan vertex together with the coincident vertex of the
// neighbouring road
type corner struct {
	node *navdata.Node
	pair *navdata.Node
}

// fan index orders for three cornered junctions, and the order used for
// forks
var (
	cornerOrders = [3][3]int{{0, 2, 1}, {1, 0, 2}, {2, 1, 0}}
	forkOrder    = [3]int{1, 2, 0}
)

// JunctionStats counts the junction shapes rebuilt by Junctions.
type JunctionStats struct {
	Tees        int
	Crossroads  int
	Roundabouts int
	Skipped     int
}

// Junctions rebuilds the triangles of every synthesized intersection way
// from duplicated corner nodes so the texture of the incoming roads lines
// up across the fan. Nodes shared with the roads keep their coordinates
// and texture coordinates.
func Junctions(ds *navdata.Dataset, log *zap.Logger) JunctionStats {
	if log == nil {
		log = zap.NewNop()
	}
	var st JunctionStats
	ids := make([]navdata.NodeID, 0, len(ds.Intersections))
	for id := range ds.Intersections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		data := ds.Intersections[id]
		conv := ds.ConvertedRoads[data.WayID]
		if data.WayID == 0 || conv == nil || len(data.Fan) == 0 {
			continue
		}
		corners := findCorners(ds, data)
		switch {
		case len(corners) < 3:
			st.Skipped++
			log.Debug("Junction has too few paired corners",
				zap.Int64("junction", int64(id)), zap.Int("corners", len(corners)))
			continue
		case len(corners) > 4 || (len(corners) == 4 && conv.IsRoundabout):
			st.Skipped++
			continue
		}

		if !geom.TriangleIsCCW(corners[0].node.Coords, corners[1].node.Coords, corners[2].node.Coords) {
			for i, j := 0, len(corners)-1; i < j; i, j = i+1, j-1 {
				corners[i], corners[j] = corners[j], corners[i]
			}
		}

		var tris []navdata.Triangle
		switch {
		case conv.IsRoundabout:
			tris = buildTee(ds, conv, corners, roundaboutOrder(ds, data, corners))
			st.Roundabouts++
		case len(corners) == 4:
			tris = buildCrossroad(ds, conv, corners)
			st.Crossroads++
		default:
			order := teeOrder(ds, conv, data, corners)
			if conv.IsFork {
				order = forkOrder[order]
			}
			tris = buildTee(ds, conv, corners, order)
			st.Tees++
		}
		conv.Triangles = tris
		conv.NodeIDs = conv.NodeIDs[:0]
		for _, t := range tris {
			conv.NodeIDs = append(conv.NodeIDs, t[:]...)
		}
	}

	log.Info("Junction texture coordinates set",
		zap.Int("tees", st.Tees),
		zap.Int("crossroads", st.Crossroads),
		zap.Int("roundabouts", st.Roundabouts),
		zap.Int("skipped", st.Skipped))
	return st
}

// findCorners collects the distinct fan vertices that have a coincident
// partner on one of the incident roads.
func findCorners(ds *navdata.Dataset, data *navdata.IntersectionData) []corner {
	hub := data.Fan[0][0]
	var out []corner
	for _, tri := range data.Fan {
		for _, nid := range tri {
			n := ds.Nodes[nid]
			if nid == hub || n == nil || hasCorner(out, n.Coords) {
				continue
			}
			if pair := findPair(ds, data.WayIDs, n); pair != nil {
				out = append(out, corner{node: n, pair: pair})
			}
		}
	}
	return out
}

func hasCorner(cs []corner, p orb.Point) bool {
	for _, c := range cs {
		if geom.Equal(c.node.Coords, p, navdata.Epsilon) {
			return true
		}
	}
	return false
}

func findPair(ds *navdata.Dataset, wayIDs []navdata.WayID, n *navdata.Node) *navdata.Node {
	for _, wid := range wayIDs {
		w := ds.ConvertedRoads[wid]
		if w == nil {
			continue
		}
		for _, id := range w.NodeIDs {
			other := ds.Nodes[id]
			if other != nil && id != n.ID && geom.Equal(other.Coords, n.Coords, navdata.Epsilon) {
				return other
			}
		}
	}
	return nil
}

// roundaboutOrder picks the order from which corners the road joining the
// roundabout touches.
func roundaboutOrder(ds *navdata.Dataset, data *navdata.IntersectionData, cs []corner) int {
	var hit [3]bool
	for _, wid := range data.WayIDs {
		w := ds.ConvertedRoads[wid]
		if w == nil || w.OnRoundabout {
			continue
		}
		for _, id := range w.NodeIDs {
			n := ds.Nodes[id]
			if n == nil {
				continue
			}
			for k := 0; k < 3; k++ {
				if geom.Equal(n.Coords, cs[k].node.Coords, navdata.Epsilon) {
					hit[k] = true
					break
				}
			}
		}
	}
	switch {
	case hit[0] && hit[1] && !hit[2]:
		return 1
	case hit[0] && hit[2] && !hit[1]:
		return 0
	}
	return 2
}

// teeOrder finds the pair of corners subtending the smallest angle seen
// from any node of a same-type incident road. That pair is where the
// through road meets the branch.
func teeOrder(ds *navdata.Dataset, conv *navdata.ConvertedWay, data *navdata.IntersectionData, cs []corner) int {
	best, order := math.MaxFloat64, 0
	pairs := []struct{ a, b, order int }{{0, 1, 1}, {0, 2, 0}, {1, 2, 2}}
	for _, wid := range data.WayIDs {
		w := ds.ConvertedRoads[wid]
		if w == nil || w.RoadType != conv.RoadType {
			continue
		}
		for _, id := range w.NodeIDs {
			n := ds.Nodes[id]
			if n == nil {
				continue
			}
			var v [3]orb.Point
			var ok [3]bool
			for k := 0; k < 3; k++ {
				v[k] = geom.Sub(cs[k].node.Coords, n.Coords)
				ok[k] = geom.Length(v[k]) > navdata.Epsilon
			}
			for _, p := range pairs {
				if !ok[p.a] || !ok[p.b] {
					continue
				}
				if angle := geom.AngleBetweenVectors(v[p.a], v[p.b]); angle < best {
					best, order = angle, p.order
				}
			}
		}
	}
	return order
}

func sameU(a, b float64) bool {
	return math.Abs(a-b) <= navdata.Epsilon
}

func dup(ds *navdata.Dataset, way navdata.WayID, src *navdata.Node) *navdata.Node {
	n := ds.NewNode(src.Coords, src.UV)
	n.Height = src.Height
	n.WayIDs = []navdata.WayID{way}
	return n
}

// buildTee rebuilds a three cornered fan. i1 and i3 span the through road,
// i2 is the corner opposite them.
func buildTee(ds *navdata.Dataset, conv *navdata.ConvertedWay, cs []corner, order int) []navdata.Triangle {
	i1, i2, i3 := cornerOrders[order][0], cornerOrders[order][1], cornerOrders[order][2]
	c1, c2, c3 := cs[i1], cs[i2], cs[i3]
	roundabout := conv.IsRoundabout

	flipped := !sameU(c3.pair.UV[0], c3.node.UV[0])
	edge1 := roundabout && sameU(c1.node.UV[0], c3.node.UV[0])
	edge2 := roundabout && sameU(c2.node.UV[0], c3.node.UV[0])

	n0 := dup(ds, conv.ID, c1.node)
	n1 := dup(ds, conv.ID, c3.node)
	n2 := dup(ds, conv.ID, c2.node)
	n2.UV = c2.pair.UV
	n3 := dup(ds, conv.ID, n2)
	n3.Coords = geom.MidPointToward(c2.node.Coords, c1.node.Coords, c3.node.Coords)
	n3.UV = orb.Point{navdata.TexUVCenter, navdata.TexUVUp}

	tris := []navdata.Triangle{
		{n0.ID, n1.ID, n3.ID},
		{n3.ID, n1.ID, n2.ID},
	}

	switch {
	case !sameU(c1.node.UV[0], c1.pair.UV[0]) || edge1 || (flipped && sameU(c3.node.UV[0], c1.pair.UV[0])):
		extra := dup(ds, conv.ID, n0)
		if flipped || edge1 {
			extra.UV = c2.pair.UV
		} else {
			extra.UV = c1.pair.UV
		}
		tris = append(tris, navdata.Triangle{extra.ID, n1.ID, n3.ID})
	case !sameU(c2.node.UV[0], c2.pair.UV[0]) || edge2 || (flipped && sameU(c3.node.UV[0], c2.node.UV[0])):
		extra := dup(ds, conv.ID, n2)
		if flipped || edge2 {
			extra.UV = c1.node.UV
		} else {
			extra.UV = c2.node.UV
		}
		tris = append(tris, navdata.Triangle{n3.ID, n1.ID, extra.ID})
	default:
		extra := dup(ds, conv.ID, n2)
		if sameU(extra.UV[0], navdata.TexUVLeft) {
			n2.UV = orb.Point{navdata.TexUVRight, navdata.TexUVUp}
		} else {
			n2.UV = orb.Point{navdata.TexUVLeft, navdata.TexUVUp}
		}
		tris = append(tris, navdata.Triangle{n3.ID, n1.ID, extra.ID})
	}

	return append(tris, navdata.Triangle{n0.ID, n3.ID, n2.ID})
}

// buildCrossroad rebuilds a four cornered fan. The corners are paired by
// the two most nearly parallel corner-to-corner directions, which gives
// the quad outline of the crossing.
func buildCrossroad(ds *navdata.Dataset, conv *navdata.ConvertedWay, cs []corner) []navdata.Triangle {
	type dir struct {
		from, to int
		v        orb.Point
	}
	var dirs []dir
	for i := 0; i < len(cs); i++ {
		for j := i + 1; j < len(cs); j++ {
			dirs = append(dirs, dir{from: j, to: i, v: geom.Normalize(geom.Sub(cs[i].node.Coords, cs[j].node.Coords))})
		}
	}

	best := math.MaxFloat64
	var idx [4]int
	for i := 0; i < len(dirs); i++ {
		for j := i + 1; j < len(dirs); j++ {
			d := geom.Dot(dirs[i].v, dirs[j].v)
			if r := 1 - math.Abs(d); r < best {
				best = r
				idx = [4]int{dirs[i].from, dirs[i].to, dirs[j].from, dirs[j].to}
				if d < 0 {
					idx[0], idx[1] = idx[1], idx[0]
				}
			}
		}
	}

	withUV := func(src *navdata.Node, u float64) *navdata.Node {
		n := dup(ds, conv.ID, src)
		n.UV = orb.Point{u, navdata.TexUVUp}
		return n
	}
	left, right := navdata.TexUVLeft, navdata.TexUVRight

	mid := withUV(cs[idx[0]].node, navdata.TexUVCenter)
	mid.Coords = geom.Midpoint(cs[idx[0]].node.Coords, cs[idx[3]].node.Coords)

	n0 := withUV(cs[idx[0]].node, left)
	n1 := withUV(cs[idx[1]].node, left)
	n2 := withUV(cs[idx[2]].node, right)
	n3 := withUV(cs[idx[3]].node, right)
	n4 := withUV(cs[idx[0]].pair, left)
	n5 := withUV(cs[idx[1]].node, right)
	n6 := withUV(cs[idx[2]].node, left)
	n7 := withUV(cs[idx[3]].pair, right)

	return []navdata.Triangle{
		{n4.ID, n6.ID, n7.ID},
		{n7.ID, n5.ID, n4.ID},
		{n1.ID, mid.ID, n3.ID},
		{n2.ID, mid.ID, n0.ID},
	}
}
