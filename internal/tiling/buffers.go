package tiling

import (
	"math"

	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// BuildBuffers fills the vertex and index buffers of every tile. Indices
// are grouped into draw ranges in draw order: parking, buildings, inner
// ways, areas, then roads by road type. Each tile node becomes exactly one
// vertex and its Index is set to the vertex position.
func BuildBuffers(ds *navdata.Dataset, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	vertices, indices := 0, 0
	ds.EachTile(func(t *navdata.Tile) {
		buildTileBuffers(t)
		vertices += len(t.Vertices)
		indices += len(t.Indices)
	})
	log.Info("Tile buffers built",
		zap.Int("tiles", ds.NumCols*ds.NumRows),
		zap.Int("vertices", vertices),
		zap.Int("indices", indices))
}

type bufferBuilder struct {
	tile    *navdata.Tile
	seen    map[navdata.NodeID]uint32
	normals [][3]float64
}

func buildTileBuffers(t *navdata.Tile) {
	t.Vertices = t.Vertices[:0]
	t.Indices = t.Indices[:0]
	t.DrawRanges = t.DrawRanges[:0]
	b := &bufferBuilder{tile: t, seen: make(map[navdata.NodeID]uint32)}

	b.addRange(navdata.WayParking, navdata.RoadNone, t.ParkingWays)
	b.addRange(navdata.WayBuilding, navdata.RoadNone, t.BuildWays)
	b.addRange(navdata.WayInner, navdata.RoadNone, t.InnerWays)
	b.addRange(navdata.WayAreaOutline, navdata.RoadNone, t.AreaWays)
	for rt := navdata.RoadMotorway; rt < navdata.RoadNone; rt++ {
		var ways []*navdata.ConvertedWay
		for _, w := range t.RoadWays {
			if w.RoadType == rt {
				ways = append(ways, w)
			}
		}
		b.addRange(navdata.WayRoad, rt, ways)
	}

	for i := range t.Vertices {
		t.Vertices[i].Normal = normalize(b.normals[i])
	}
}

func (b *bufferBuilder) addRange(cat navdata.WayType, rt navdata.RoadType, ways []*navdata.ConvertedWay) {
	start := uint32(len(b.tile.Indices))
	for _, w := range ways {
		for _, tri := range w.Triangles {
			b.addTriangle(tri)
		}
	}
	count := uint32(len(b.tile.Indices)) - start
	if count == 0 {
		return
	}
	b.tile.DrawRanges = append(b.tile.DrawRanges, navdata.DrawRange{
		Category: cat,
		RoadType: rt,
		Start:    start,
		Count:    count,
	})
}

func (b *bufferBuilder) addTriangle(tri navdata.Triangle) {
	var idx [3]uint32
	var pos [3][3]float64
	for i, id := range tri {
		n := b.tile.Nodes[id]
		if n == nil {
			return
		}
		pos[i] = [3]float64{n.Coords[0], n.Coords[1], n.Height}
	}
	for i, id := range tri {
		idx[i] = b.vertex(b.tile.Nodes[id])
	}
	b.tile.Indices = append(b.tile.Indices, idx[:]...)

	face := faceNormal(pos[0], pos[1], pos[2])
	for _, i := range idx {
		for k := 0; k < 3; k++ {
			b.normals[i][k] += face[k]
		}
	}
}

func (b *bufferBuilder) vertex(n *navdata.Node) uint32 {
	if i, ok := b.seen[n.ID]; ok {
		return i
	}
	i := uint32(len(b.tile.Vertices))
	n.Index = i
	b.seen[n.ID] = i
	b.tile.Vertices = append(b.tile.Vertices, navdata.Vertex{
		Position: n.Coords,
		Height:   n.Height,
		UV:       n.UV,
	})
	b.normals = append(b.normals, [3]float64{})
	return i
}

// faceNormal returns the area weighted normal of the triangle, turned to
// face up so that strip triangles of either winding agree.
func faceNormal(a, b, c [3]float64) [3]float64 {
	u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	if n[2] < 0 {
		n = [3]float64{-n[0], -n[1], -n[2]}
	}
	return n
}

func normalize(n [3]float64) [3]float64 {
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float64{0, 0, 1}
	}
	return [3]float64{n[0] / l, n[1] / l, n[2] / l}
}
