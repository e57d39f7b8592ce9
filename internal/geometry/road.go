package geometry

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

var (
	uvLeft  = orb.Point{navdata.TexUVLeft, navdata.TexUVUp}
	uvRight = orb.Point{navdata.TexUVRight, navdata.TexUVUp}
)

// TriangulateRoad offsets a road polyline by half its width on both sides
// and returns the resulting triangle strip as a way. Each input node gives
// a left and a right node, in that order.
func TriangulateRoad(ds *navdata.Dataset, way *navdata.Way) *navdata.Way {
	coords := ds.Coords(way.NodeIDs)
	out := way.Clone()
	out.NodeIDs = make([]navdata.NodeID, 0, 2*len(coords))
	if len(coords) < 2 {
		out.NodeIDs = out.NodeIDs[:0]
		return out
	}

	addPair := func(left, right orb.Point) {
		l := ds.NewNode(left, uvLeft)
		l.WayIDs = []navdata.WayID{way.ID}
		r := ds.NewNode(right, uvRight)
		r.WayIDs = []navdata.WayID{way.ID}
		out.NodeIDs = append(out.NodeIDs, l.ID, r.ID)
	}

	last := len(coords) - 1
	addPair(geom.PerpendicularPoints(coords[0], geom.Sub(coords[1], coords[0]), way.Width))
	for i := 1; i < last; i++ {
		addPair(geom.PerpendicularPoints3(coords[i-1], coords[i], coords[i+1], way.Width))
	}
	addPair(geom.PerpendicularPoints(coords[last], geom.Sub(coords[last], coords[last-1]), way.Width))
	return out
}

// TriangulateAllRoads tessellates every road and builds its triangle
// strip. Road areas keep their outline and are filled later.
func TriangulateAllRoads(ds *navdata.Dataset, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	before := len(ds.Nodes)
	for _, id := range navdata.SortedWayIDs(ds.OriginalRoadWays) {
		way := ds.OriginalRoadWays[id]
		if way.Area {
			ds.TriangulatedRoads[id] = way.Clone()
			continue
		}
		way.NodeIDs = Tessellate(ds, way)
		ds.TriangulatedRoads[id] = TriangulateRoad(ds, way)
	}
	log.Info("Roads triangulated",
		zap.Int("roads", len(ds.TriangulatedRoads)),
		zap.Int("new_nodes", len(ds.Nodes)-before))
}
