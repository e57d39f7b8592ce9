package geometry

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// EndCaps extends a dead end by half the road width. first and second are
// the two strip nodes at the end of the road; the returned nodes are their
// copies pushed outward, in the same order.
func EndCaps(ds *navdata.Dataset, first, second *navdata.Node, width float64) (navdata.NodeID, navdata.NodeID) {
	v := geom.Sub(first.Coords, second.Coords)
	offset := geom.Scale(geom.Normalize(orb.Point{v[1], -v[0]}), width/2)

	first.UV[1] = 2 * navdata.TexUVUp
	second.UV[1] = 2 * navdata.TexUVUp

	c0 := first.Clone()
	c0.ID = ds.NewNodeID()
	c0.Coords = geom.Sub(first.Coords, offset)
	c0.UV[1] = 4 * navdata.TexUVUp
	ds.AddNode(c0)

	c1 := second.Clone()
	c1.ID = ds.NewNodeID()
	c1.Coords = geom.Sub(second.Coords, offset)
	c1.UV[1] = 4 * navdata.TexUVUp
	ds.AddNode(c1)

	return c0.ID, c1.ID
}

// StripToTriangles converts a triangle strip into a triangle list,
// flipping every odd triangle to keep a consistent winding.
func StripToTriangles(strip []navdata.NodeID) []navdata.Triangle {
	if len(strip) < 3 {
		return nil
	}
	tris := make([]navdata.Triangle, 0, len(strip)-2)
	for i := 0; i < len(strip)-2; i++ {
		if i%2 == 0 {
			tris = append(tris, navdata.Triangle{strip[i], strip[i+1], strip[i+2]})
		} else {
			tris = append(tris, navdata.Triangle{strip[i+1], strip[i], strip[i+2]})
		}
	}
	return tris
}

// ConvertToTriangleList turns every triangulated road into a triangle
// list. Dead ends get caps and road areas are ear-clipped.
func ConvertToTriangleList(ds *navdata.Dataset, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	caps := 0
	for _, id := range navdata.SortedWayIDs(ds.TriangulatedRoads) {
		tri := ds.TriangulatedRoads[id]
		conv := &navdata.ConvertedWay{Way: *tri.Clone()}

		if tri.Area {
			ring := RewindCCW(ds, tri.NodeIDs)
			conv.Triangles = Triangulate(ds, ring, log)
			ds.ConvertedRoads[id] = conv
			continue
		}

		strip := append([]navdata.NodeID(nil), tri.NodeIDs...)
		orig := ds.OriginalRoadWays[id]
		if orig != nil && len(orig.NodeIDs) > 1 && len(strip) >= 4 {
			if len(ds.Nodes[orig.Last()].WayIDs) == 1 {
				n1 := ds.Nodes[strip[len(strip)-1]]
				n2 := ds.Nodes[strip[len(strip)-2]]
				if ds.InBounds(n1.Coords) && ds.InBounds(n2.Coords) {
					c0, c1 := EndCaps(ds, n1, n2, tri.Width)
					strip = append(strip, c0, n2.ID, c1)
					caps++
				}
			}
			if len(ds.Nodes[orig.First()].WayIDs) == 1 {
				n1 := ds.Nodes[strip[0]]
				n2 := ds.Nodes[strip[1]]
				if ds.InBounds(n1.Coords) && ds.InBounds(n2.Coords) {
					c0, c1 := EndCaps(ds, n1, n2, tri.Width)
					strip = append([]navdata.NodeID{c1, n2.ID, c0}, strip...)
					caps++
				}
			}
		}
		conv.NodeIDs = strip
		conv.Triangles = StripToTriangles(strip)
		ds.ConvertedRoads[id] = conv
	}
	log.Info("Triangle lists built",
		zap.Int("ways", len(ds.ConvertedRoads)), zap.Int("end_caps", caps))
}
