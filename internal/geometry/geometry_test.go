package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

func newDataset(points ...orb.Point) *navdata.Dataset {
	ds := navdata.New(navdata.Variant2D)
	ds.Bounds = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	for i, p := range points {
		ds.AddNode(&navdata.Node{ID: navdata.NodeID(i + 1), Coords: p})
	}
	return ds
}

func triangleArea(ds *navdata.Dataset, tri navdata.Triangle) float64 {
	ring := orb.Ring{ds.Nodes[tri[0]].Coords, ds.Nodes[tri[1]].Coords, ds.Nodes[tri[2]].Coords, ds.Nodes[tri[0]].Coords}
	return math.Abs(planar.Area(ring))
}

func TestTriangulateTwoPointRoad(t *testing.T) {
	ds := newDataset(orb.Point{1, 1}, orb.Point{3, 1})
	way := &navdata.Way{ID: 1, NodeIDs: []navdata.NodeID{1, 2}, Width: 0.5}

	before := len(ds.Nodes)
	strip := TriangulateRoad(ds, way)

	require.Len(t, strip.NodeIDs, 4)
	assert.Equal(t, before+4, len(ds.Nodes))
	for i, id := range strip.NodeIDs {
		n := ds.Nodes[id]
		if i%2 == 0 {
			assert.Equal(t, navdata.TexUVLeft, n.UV[0], "node %d should be left", i)
			assert.InDelta(t, 1.25, n.Coords[1], 1e-12)
		} else {
			assert.Equal(t, navdata.TexUVRight, n.UV[0], "node %d should be right", i)
			assert.InDelta(t, 0.75, n.Coords[1], 1e-12)
		}
		assert.Equal(t, navdata.TexUVUp, n.UV[1])
	}

	tris := StripToTriangles(strip.NodeIDs)
	require.Len(t, tris, 2)
	total := triangleArea(ds, tris[0]) + triangleArea(ds, tris[1])
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestTriangulateLongerRoadGivesPairPerNode(t *testing.T) {
	ds := newDataset(orb.Point{1, 1}, orb.Point{3, 1}, orb.Point{3, 3}, orb.Point{5, 3})
	way := &navdata.Way{ID: 1, NodeIDs: []navdata.NodeID{1, 2, 3, 4}, Width: 0.5}

	strip := TriangulateRoad(ds, way)
	require.Len(t, strip.NodeIDs, 8)

	// mitred corner at (3,1) turning north
	left := ds.Nodes[strip.NodeIDs[2]].Coords
	assert.InDelta(t, 2.75, left[0], 1e-9)
	assert.InDelta(t, 1.25, left[1], 1e-9)
}

func TestClockwiseRectangleTriangulates(t *testing.T) {
	ds := newDataset(orb.Point{0, 0}, orb.Point{0, 1}, orb.Point{2, 1}, orb.Point{2, 0})
	ring := []navdata.NodeID{1, 2, 3, 4, 1}

	require.Empty(t, Triangulate(ds, ring, nil), "clockwise ring should have no ears")

	tris := Triangulate(ds, RewindCCW(ds, ring), nil)
	require.Len(t, tris, 2)

	total := 0.0
	for _, tri := range tris {
		total += triangleArea(ds, tri)
	}
	assert.InDelta(t, 2.0, total, 1e-9)
}

func TestTriangulateConcavePolygon(t *testing.T) {
	// L shape, counter-clockwise
	ds := newDataset(
		orb.Point{0, 0}, orb.Point{3, 0}, orb.Point{3, 1},
		orb.Point{1, 1}, orb.Point{1, 3}, orb.Point{0, 3},
	)
	tris := Triangulate(ds, []navdata.NodeID{1, 2, 3, 4, 5, 6}, nil)
	require.Len(t, tris, 4)

	total := 0.0
	for _, tri := range tris {
		total += triangleArea(ds, tri)
	}
	assert.InDelta(t, 5.0, total, 1e-9)
}

func TestTessellateRoundsCorner(t *testing.T) {
	ds := newDataset(orb.Point{1, 1}, orb.Point{3, 1}, orb.Point{3, 3})
	for _, id := range []navdata.NodeID{1, 2, 3} {
		ds.Nodes[id].WayIDs = []navdata.WayID{7}
	}
	way := &navdata.Way{ID: 7, NodeIDs: []navdata.NodeID{1, 2, 3}, Width: 0.5}

	out := Tessellate(ds, way)
	require.Greater(t, len(out), 3)
	assert.Equal(t, navdata.NodeID(1), out[0])
	assert.Equal(t, navdata.NodeID(3), out[len(out)-1])
	assert.Contains(t, out, navdata.NodeID(2))

	corner := ds.Nodes[2].Coords
	if corner == (orb.Point{3, 1}) {
		t.Error("expected corner node to move onto the curve")
	}
}

func TestTessellateSkipsJunctionAndStraight(t *testing.T) {
	tests := []struct {
		name   string
		points []orb.Point
		ways   []navdata.WayID
	}{
		{"junction corner", []orb.Point{{1, 1}, {3, 1}, {3, 3}}, []navdata.WayID{7, 8}},
		{"straight", []orb.Point{{1, 1}, {3, 1}, {5, 1}}, []navdata.WayID{7}},
		{"short edge", []orb.Point{{1, 1}, {1.1, 1}, {1.1, 3}}, []navdata.WayID{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newDataset(tt.points...)
			ds.Nodes[2].WayIDs = tt.ways
			way := &navdata.Way{ID: 7, NodeIDs: []navdata.NodeID{1, 2, 3}, Width: 0.5}

			out := Tessellate(ds, way)
			assert.Equal(t, []navdata.NodeID{1, 2, 3}, out)
		})
	}
}

func TestConvertToTriangleListAddsEndCaps(t *testing.T) {
	ds := newDataset(orb.Point{1, 1}, orb.Point{3, 1})
	ds.Nodes[1].WayIDs = []navdata.WayID{1}
	ds.Nodes[2].WayIDs = []navdata.WayID{1}
	ds.OriginalRoadWays[1] = &navdata.Way{ID: 1, NodeIDs: []navdata.NodeID{1, 2}, Width: 0.5, Type: navdata.WayRoad}

	TriangulateAllRoads(ds, nil)
	ConvertToTriangleList(ds, nil)

	conv := ds.ConvertedRoads[1]
	require.NotNil(t, conv)
	require.Len(t, conv.NodeIDs, 10)
	assert.Len(t, conv.Triangles, 8)

	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, id := range conv.NodeIDs {
		x := ds.Nodes[id].Coords[0]
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}
	assert.InDelta(t, 0.75, minX, 1e-9)
	assert.InDelta(t, 3.25, maxX, 1e-9)
}

func TestConvertToTriangleListFillsRoadArea(t *testing.T) {
	ds := newDataset(orb.Point{1, 1}, orb.Point{1, 2}, orb.Point{2, 2}, orb.Point{2, 1})
	ds.OriginalRoadWays[1] = &navdata.Way{ID: 1, NodeIDs: []navdata.NodeID{1, 2, 3, 4, 1}, Area: true}

	TriangulateAllRoads(ds, nil)
	ConvertToTriangleList(ds, nil)

	assert.Len(t, ds.ConvertedRoads[1].Triangles, 2)
}
