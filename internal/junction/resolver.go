package junction

import (
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

const (
	// parallelSine is the |sin| below which two edges count as parallel.
	parallelSine = 0.05
	// snapDistance is how far apart parallel edge ends may be and still
	// be moved onto their midpoint.
	snapDistance = 0.001
	// minEdgeLength is the shortest edge usable as a direction.
	minEdgeLength = 1e-4
)

// State is the resolution progress of a junction node
type State int

const (
	Unprocessed State = iota
	Split
	Reconciled
)

func (s State) String() string {
	switch s {
	case Split:
		return "split"
	case Reconciled:
		return "reconciled"
	}
	return "unprocessed"
}

// Stats counts what the resolver did
type Stats struct {
	Queued        int
	Splits        int
	Snapped       int
	Seams         int
	Fans          int
	Intersections int
}

// Resolver cuts roads at their junctions and fills the junction area
type Resolver struct {
	ds      *navdata.Dataset
	checker *navdata.Checker
	log     *zap.Logger

	states map[navdata.NodeID]State
	stats  Stats
}

// NewResolver creates a resolver for ds
func NewResolver(ds *navdata.Dataset, checker *navdata.Checker, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if checker == nil {
		checker = navdata.NewChecker(false, log)
	}
	return &Resolver{
		ds:      ds,
		checker: checker,
		log:     log,
		states:  make(map[navdata.NodeID]State),
	}
}

// State returns the progress of a junction
func (r *Resolver) State(id navdata.NodeID) State {
	return r.states[id]
}

// Stats returns the resolver counters
func (r *Resolver) Stats() Stats {
	return r.stats
}

// arm is one road leaving a junction, oriented away from it
type arm struct {
	orig  *navdata.Way
	tri   *navdata.Way
	angle float64
}

// Resolve runs both phases. Every queued junction is split first so that
// all roads end at their junctions, then each one is reconciled.
func (r *Resolver) Resolve() error {
	ds := r.ds
	queue := append([]navdata.NodeID(nil), ds.OriginalIntersections...)
	var ready []navdata.NodeID

	for i := 0; i < len(queue); i++ {
		id := queue[i]
		n := ds.Nodes[id]
		if n == nil || r.states[id] != Unprocessed || !ds.InBounds(n.Coords) {
			continue
		}
		n.WayIDs = dedupe(n.WayIDs)
		if len(n.WayIDs) < 2 {
			continue
		}
		r.stats.Queued++
		queue = append(queue, r.breakUp(id)...)
		r.states[id] = Split
		if len(n.WayIDs) > 1 {
			ready = append(ready, id)
		}
	}

	for _, id := range ready {
		if err := r.process(id); err != nil {
			return err
		}
		r.states[id] = Reconciled
	}

	r.log.Info("Junctions resolved",
		zap.Int("queued", r.stats.Queued),
		zap.Int("splits", r.stats.Splits),
		zap.Int("snapped", r.stats.Snapped),
		zap.Int("seams", r.stats.Seams),
		zap.Int("fans", r.stats.Fans),
		zap.Int("intersections", r.stats.Intersections))
	return nil
}

// breakUp splits every way that passes through the junction so the
// junction becomes an endpoint. A closed loop whose only contact is at
// both ends is cut in half; the cut node is returned for queueing.
func (r *Resolver) breakUp(id navdata.NodeID) []navdata.NodeID {
	ds := r.ds
	n := ds.Nodes[id]
	var extra []navdata.NodeID

	for {
		var target *navdata.Way
		idx, loop := -1, false
		for _, wid := range sortedWayIDs(n.WayIDs) {
			w := ds.OriginalRoadWays[wid]
			tri := ds.TriangulatedRoads[wid]
			if w == nil || tri == nil || len(w.NodeIDs) < 3 || len(tri.NodeIDs) != 2*len(w.NodeIDs) {
				continue
			}
			for i := 1; i < len(w.NodeIDs)-1; i++ {
				if w.NodeIDs[i] == id {
					idx = i
					break
				}
			}
			if idx < 0 && w.First() == id && w.Last() == id {
				idx, loop = len(w.NodeIDs)/2, true
			}
			if idx >= 0 {
				target = w
				break
			}
		}
		if target == nil {
			return extra
		}
		r.split(target, idx)
		if loop {
			extra = append(extra, target.Last())
		}
	}
}

// split cuts w at node index idx. w keeps [0, idx], the new way takes
// [idx, end]. The triangulated strip is cut the same way and the new
// half gets its own copy of the shared pair.
func (r *Resolver) split(w *navdata.Way, idx int) {
	ds := r.ds
	tri := ds.TriangulatedRoads[w.ID]
	newID := ds.NewWayID()
	r.stats.Splits++

	nw := w.Clone()
	nw.ID = newID
	nw.NodeIDs = append([]navdata.NodeID(nil), w.NodeIDs[idx:]...)
	w.NodeIDs = append([]navdata.NodeID(nil), w.NodeIDs[:idx+1]...)

	cut := ds.Nodes[w.Last()]
	cut.WayIDs = appendUnique(cut.WayIDs, newID)
	for _, nid := range nw.NodeIDs[1:] {
		node := ds.Nodes[nid]
		if containsNode(w.NodeIDs, nid) {
			node.WayIDs = appendUnique(node.WayIDs, newID)
		} else {
			node.WayIDs = replaceWay(node.WayIDs, w.ID, newID)
		}
	}

	ntri := tri.Clone()
	ntri.ID = newID
	ntri.NodeIDs = append([]navdata.NodeID(nil), tri.NodeIDs[2*idx:]...)
	tri.NodeIDs = append([]navdata.NodeID(nil), tri.NodeIDs[:2*idx+2]...)
	for k := 0; k < 2; k++ {
		c := ds.Nodes[ntri.NodeIDs[k]].Clone()
		c.ID = ds.NewNodeID()
		c.WayIDs = []navdata.WayID{newID}
		ds.AddNode(c)
		ntri.NodeIDs[k] = c.ID
	}
	for _, nid := range ntri.NodeIDs[2:] {
		node := ds.Nodes[nid]
		node.WayIDs = replaceWay(node.WayIDs, w.ID, newID)
	}

	ds.OriginalRoadWays[newID] = nw
	ds.TriangulatedRoads[newID] = ntri
	r.log.Debug("Split road at junction",
		zap.Int64("way", int64(w.ID)), zap.Int64("new_way", int64(newID)), zap.Int("index", idx))
}

// process fills one junction. Node coordinates are moved in the global
// table; the oriented way copies are discarded afterwards.
func (r *Resolver) process(id navdata.NodeID) error {
	ds := r.ds
	centre := ds.Nodes[id].Coords

	arms := make([]arm, 0, len(ds.Nodes[id].WayIDs))
	for _, wid := range sortedWayIDs(ds.Nodes[id].WayIDs) {
		o, t := ds.OriginalRoadWays[wid], ds.TriangulatedRoads[wid]
		if o == nil || t == nil || o.Area || len(o.NodeIDs) < 2 || len(t.NodeIDs) != 2*len(o.NodeIDs) {
			continue
		}
		o, t = o.Clone(), t.Clone()
		if o.First() != id {
			o.Reverse()
			t.Reverse()
		}
		if o.First() != id {
			continue
		}
		next := ds.Nodes[o.NodeIDs[1]].Coords
		angle := math.Atan2(next[1]-centre[1], next[0]-centre[0])
		if angle < 0 {
			angle += 2 * math.Pi
		}
		arms = append(arms, arm{orig: o, tri: t, angle: angle})
	}

	if err := r.checker.Check(len(arms) >= 2, "junction %d has %d usable ways", id, len(arms)); err != nil {
		return err
	}
	if len(arms) < 2 {
		return nil
	}
	sort.SliceStable(arms, func(i, j int) bool { return arms[i].angle < arms[j].angle })

	if len(arms) == 2 {
		r.snapPair(id, arms[0].tri.NodeIDs, arms[1].tri.NodeIDs)
		return nil
	}

	fan := r.mitreFan(id, centre, arms)
	r.addIntersection(id, arms, fan)
	return nil
}

// snapPair joins the facing edges of a 2-way junction
func (r *Resolver) snapPair(id navdata.NodeID, cur, next []navdata.NodeID) {
	ds := r.ds
	ct, nt := 0, 1
	for ct+4 < len(cur) && geom.Distance(ds.Nodes[cur[ct]].Coords, ds.Nodes[cur[ct+2]].Coords) <= minEdgeLength {
		ct += 2
	}
	for nt+4 < len(next) && geom.Distance(ds.Nodes[next[nt]].Coords, ds.Nodes[next[nt+2]].Coords) <= minEdgeLength {
		nt += 2
	}

	c0, c2 := ds.Nodes[cur[ct]], ds.Nodes[cur[ct+2]]
	n1, n3 := ds.Nodes[next[nt]], ds.Nodes[next[nt+2]]

	sine := geom.SegmentAngleSine(c2.Coords, c0.Coords, n3.Coords, n1.Coords)
	switch {
	case sine > parallelSine:
		x, _, ok := geom.RayIntersect(c2.Coords, geom.Normalize(geom.Sub(c0.Coords, c2.Coords)),
			n3.Coords, geom.Normalize(geom.Sub(n1.Coords, n3.Coords)))
		if !ok {
			r.stats.Seams++
			return
		}
		c0.Coords, n1.Coords = x, x
		r.stats.Snapped++
	case geom.Distance(c0.Coords, n1.Coords) < snapDistance:
		mid := geom.Midpoint(c0.Coords, n1.Coords)
		c0.Coords, n1.Coords = mid, mid
		r.stats.Snapped++
	default:
		r.stats.Seams++
		r.log.Debug("Parallel junction edges left with a seam", zap.Int64("junction", int64(id)))
	}
}

// mitreFan builds the fan from a new centre node and mitres each road's
// left edge against the right edge of the next road counter-clockwise.
func (r *Resolver) mitreFan(id navdata.NodeID, centre orb.Point, arms []arm) []navdata.Triangle {
	ds := r.ds
	hub := ds.NewNode(centre, orb.Point{navdata.TexUVCenter, navdata.TexUVUp})
	fan := make([]navdata.Triangle, 0, len(arms))

	for i := range arms {
		cur, next := arms[i], arms[(i+1)%len(arms)]
		ct, nt := cur.tri.NodeIDs, next.tri.NodeIDs
		fan = append(fan, navdata.Triangle{hub.ID, ct[0], ct[1]})

		found := false
		for ci, ni := 0, 0; !found && ci+1 < len(cur.orig.NodeIDs) && ni+1 < len(next.orig.NodeIDs); {
			c0, c2 := ds.Nodes[ct[2*ci]].Coords, ds.Nodes[ct[2*ci+2]].Coords
			n1, n3 := ds.Nodes[nt[2*ni+1]].Coords, ds.Nodes[nt[2*ni+3]].Coords
			if geom.Equal(n1, n3, geom.Eps) {
				ni++
				continue
			}
			if geom.Equal(c0, c2, geom.Eps) {
				ci++
				continue
			}

			var x orb.Point
			var dist float64
			sine := geom.SegmentAngleSine(c0, c2, n1, n3)
			switch {
			case sine > parallelSine:
				var ok bool
				x, dist, ok = geom.RayIntersect(c2, geom.Normalize(geom.Sub(c0, c2)), n3, geom.Normalize(geom.Sub(n1, n3)))
				if !ok {
					ci, ni = len(cur.orig.NodeIDs), len(next.orig.NodeIDs)
					continue
				}
			case geom.Distance(c0, n1) <= snapDistance:
				x, dist = geom.Midpoint(c0, n1), 0.5
			default:
				r.stats.Seams++
				r.log.Debug("Parallel junction edges left with a seam",
					zap.Int64("junction", int64(id)), zap.Int64("way", int64(cur.orig.ID)))
				ci, ni = len(cur.orig.NodeIDs), len(next.orig.NodeIDs)
				continue
			}

			// the mitre may extend an edge or shorten it to zero, never
			// past its far end
			validCur := dist >= 0
			validNext := (n1[0]-n3[0])*(x[0]-n3[0]) >= 0
			found = true
			if validCur && validNext {
				for k := 0; k <= ci; k++ {
					ds.Nodes[ct[2*k]].Coords = x
				}
				for k := 0; k <= ni; k++ {
					ds.Nodes[nt[2*k+1]].Coords = x
				}
				continue
			}
			if !validCur {
				ci++
				found = false
			}
			if !validNext {
				ni++
				found = false
			}
		}
	}
	r.stats.Fans++
	return fan
}

// addIntersection stores the fan as a way of its own, styled after the
// roads meeting there.
func (r *Resolver) addIntersection(id navdata.NodeID, arms []arm, fan []navdata.Triangle) {
	ds := r.ds
	wayIDs := make([]navdata.WayID, 0, len(arms))
	names := make(map[string]int)
	types := make(map[navdata.RoadType]int)
	roundabout, oneWays, width := false, 0, 0.0
	for _, a := range arms {
		w := a.orig
		wayIDs = append(wayIDs, w.ID)
		if name := strings.TrimSpace(w.Tags.Find("name")); name != "" {
			names[name]++
		}
		types[w.RoadType]++
		roundabout = roundabout || w.OnRoundabout
		if w.OneWay {
			oneWays++
		}
		width = math.Max(width, w.Width)
	}

	way := navdata.Way{
		ID:             ds.NewWayID(),
		Name:           dominantName(names),
		Type:           navdata.WayRoad,
		RoadType:       dominantRoadType(types),
		Width:          width,
		IsIntersection: true,
		IsRoundabout:   roundabout,
		IsFork:         oneWays == 2,
	}
	ds.ConvertedRoads[way.ID] = &navdata.ConvertedWay{Way: way, Triangles: fan}
	ds.OriginalRoadWays[way.ID] = way.Clone()
	ds.Intersections[id] = &navdata.IntersectionData{
		JunctionID: id,
		WayID:      way.ID,
		WayIDs:     wayIDs,
		Fan:        append([]navdata.Triangle(nil), fan...),
		MapBound:   ds.NearBoundary(ds.Nodes[id].Coords, navdata.Epsilon),
	}
	r.stats.Intersections++
}

// dominantName returns the most frequent name, the alphabetically first
// on a tie.
func dominantName(counts map[string]int) string {
	best, bestCount := "", 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// dominantRoadType returns the most frequent road type, the most major
// one on a tie.
func dominantRoadType(counts map[navdata.RoadType]int) navdata.RoadType {
	best, bestCount := navdata.RoadNone, 0
	for t := navdata.RoadMotorway; t <= navdata.RoadNone; t++ {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}

func dedupe(ids []navdata.WayID) []navdata.WayID {
	out := ids[:0]
	seen := make(map[navdata.WayID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedWayIDs(ids []navdata.WayID) []navdata.WayID {
	out := append([]navdata.WayID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func appendUnique(ids []navdata.WayID, id navdata.WayID) []navdata.WayID {
	for _, w := range ids {
		if w == id {
			return ids
		}
	}
	return append(ids, id)
}

func replaceWay(ids []navdata.WayID, old, repl navdata.WayID) []navdata.WayID {
	out := make([]navdata.WayID, 0, len(ids))
	for _, w := range ids {
		if w != old {
			out = append(out, w)
		}
	}
	return appendUnique(out, repl)
}

func containsNode(ids []navdata.NodeID, id navdata.NodeID) bool {
	for _, n := range ids {
		if n == id {
			return true
		}
	}
	return false
}
