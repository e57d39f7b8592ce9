package geometry

import (
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// RewindCCW returns the ring in counter-clockwise order.
func RewindCCW(ds *navdata.Dataset, ring []navdata.NodeID) []navdata.NodeID {
	out := append([]navdata.NodeID(nil), ring...)
	if !geom.IsCCW(ds.Coords(out)) {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Triangulate ear-clips a counter-clockwise ring. A closing duplicate node
// is ignored. When a full pass finds no ear the remaining vertices are
// dropped and the triangles found so far are returned.
func Triangulate(ds *navdata.Dataset, ring []navdata.NodeID, log *zap.Logger) []navdata.Triangle {
	ids := append([]navdata.NodeID(nil), ring...)
	if len(ids) > 1 && ids[0] == ids[len(ids)-1] {
		ids = ids[:len(ids)-1]
	}

	tris := make([]navdata.Triangle, 0, len(ids))
	for len(ids) >= 3 {
		n := len(ids)
		clipped := false
		for i := 0; i < n; i++ {
			prev, cur, next := ids[(i+n-1)%n], ids[i], ids[(i+1)%n]
			a, b, c := ds.Nodes[prev].Coords, ds.Nodes[cur].Coords, ds.Nodes[next].Coords
			if !geom.TriangleIsCCW(a, b, c) {
				continue
			}
			if earContainsVertex(ds, ids, prev, cur, next) {
				continue
			}
			tris = append(tris, navdata.Triangle{prev, cur, next})
			ids = append(ids[:i], ids[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			if log != nil {
				log.Debug("Polygon triangulation stalled", zap.Int("remaining", len(ids)))
			}
			break
		}
	}
	return tris
}

func earContainsVertex(ds *navdata.Dataset, ids []navdata.NodeID, prev, cur, next navdata.NodeID) bool {
	a, b, c := ds.Nodes[prev].Coords, ds.Nodes[cur].Coords, ds.Nodes[next].Coords
	for _, id := range ids {
		if id == prev || id == cur || id == next {
			continue
		}
		if geom.PointInTriangle(ds.Nodes[id].Coords, a, b, c) {
			return true
		}
	}
	return false
}
