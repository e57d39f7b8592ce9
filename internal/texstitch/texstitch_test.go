package texstitch

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/navtiles-go/internal/geometry"
	"github.com/wegman-software/navtiles-go/internal/junction"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// junctionDataset builds roads from a hub at (5,5) to each end point and
// runs them through triangulation, junction resolution and conversion.
func junctionDataset(t *testing.T, roundabout bool, ends ...orb.Point) *navdata.Dataset {
	t.Helper()
	ds := navdata.New(navdata.Variant2D)
	ds.Bounds = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	ds.AddNode(&navdata.Node{ID: 1, Coords: orb.Point{5, 5}})
	for i, p := range ends {
		nid := navdata.NodeID(i + 2)
		wid := navdata.WayID(i + 1)
		ds.AddNode(&navdata.Node{ID: nid, Coords: p, WayIDs: []navdata.WayID{wid}})
		hub := ds.Nodes[1]
		hub.WayIDs = append(hub.WayIDs, wid)
		if len(hub.WayIDs) == 2 {
			ds.OriginalIntersections = append(ds.OriginalIntersections, 1)
		}
		ds.ReserveWayID(wid)
		ds.OriginalRoadWays[wid] = &navdata.Way{
			ID:           wid,
			NodeIDs:      []navdata.NodeID{1, nid},
			Type:         navdata.WayRoad,
			RoadType:     navdata.RoadPrimary,
			Width:        1,
			OnRoundabout: roundabout && i < 2,
		}
	}
	for _, id := range navdata.SortedWayIDs(ds.OriginalRoadWays) {
		ds.TriangulatedRoads[id] = geometry.TriangulateRoad(ds, ds.OriginalRoadWays[id])
	}
	require.NoError(t, junction.NewResolver(ds, navdata.NewChecker(true, nil), nil).Resolve())
	geometry.ConvertToTriangleList(ds, nil)
	return ds
}

func fanUVs(ds *navdata.Dataset, data *navdata.IntersectionData) map[navdata.NodeID]orb.Point {
	out := make(map[navdata.NodeID]orb.Point)
	for _, tri := range data.Fan {
		for _, id := range tri {
			out[id] = ds.Nodes[id].UV
		}
	}
	return out
}

func TestJunctions(t *testing.T) {
	tests := []struct {
		name       string
		roundabout bool
		ends       []orb.Point
		expected   JunctionStats
	}{
		{"tee", false, []orb.Point{{9, 5}, {5, 9}, {1, 5}}, JunctionStats{Tees: 1}},
		{"roundabout", true, []orb.Point{{9, 5}, {5, 9}, {1, 5}}, JunctionStats{Roundabouts: 1}},
		{"crossroad", false, []orb.Point{{9, 5}, {5, 9}, {1, 5}, {5, 1}}, JunctionStats{Crossroads: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := junctionDataset(t, tt.roundabout, tt.ends...)
			data := ds.Intersections[1]
			require.NotNil(t, data)
			before := fanUVs(ds, data)
			watermark := ds.NewNodeID()

			st := Junctions(ds, nil)
			if st != tt.expected {
				t.Fatalf("expected %+v, got %+v", tt.expected, st)
			}

			conv := ds.ConvertedRoads[data.WayID]
			require.Len(t, conv.Triangles, 4)
			centre := 0
			for _, tri := range conv.Triangles {
				for _, id := range tri {
					assert.Greater(t, id, watermark, "rebuilt fans use fresh nodes")
					n := ds.Nodes[id]
					require.NotNil(t, n)
					assert.True(t, n.HasWay(conv.ID))
					if n.UV == (orb.Point{navdata.TexUVCenter, navdata.TexUVUp}) {
						centre++
						assert.True(t, n.Coords[0] >= 4.5-1e-9 && n.Coords[0] <= 5.5+1e-9)
						assert.True(t, n.Coords[1] >= 4.5-1e-9 && n.Coords[1] <= 5.5+1e-9)
					}
				}
			}
			assert.Positive(t, centre)
			assert.Len(t, conv.NodeIDs, 12)

			for id, uv := range before {
				if ds.Nodes[id].UV != uv {
					t.Errorf("node %d: expected uv %v to stay, got %v", id, uv, ds.Nodes[id].UV)
				}
			}
		})
	}
}

func TestJunctionsSkipsPlainJoins(t *testing.T) {
	ds := junctionDataset(t, false, orb.Point{9, 5}, orb.Point{5, 9})
	assert.Empty(t, ds.Intersections)
	assert.Equal(t, JunctionStats{}, Junctions(ds, nil))
}

// edgeTile is a single tile covering the whole map.
func edgeTile() (*navdata.Dataset, *navdata.Tile) {
	ds := navdata.New(navdata.Variant2D)
	ds.Bounds = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	t := navdata.NewTile(0, 0, ds.Bounds)
	ds.Tiles = [][]*navdata.Tile{{t}}
	ds.BoundaryNodes = [][]map[navdata.WayID]*navdata.BoundaryRef{{make(map[navdata.WayID]*navdata.BoundaryRef)}}
	ds.NumCols, ds.NumRows = 1, 1
	return ds, t
}

type edgeNode struct {
	id     navdata.NodeID
	coords orb.Point
	u      float64
	bound  bool
}

func addEdgeWay(ds *navdata.Dataset, t *navdata.Tile, id navdata.WayID, nodes ...edgeNode) {
	w := &navdata.ConvertedWay{Way: navdata.Way{ID: id, Type: navdata.WayRoad, RoadType: navdata.RoadPrimary, Width: 1}}
	for _, e := range nodes {
		t.Nodes[e.id] = &navdata.Node{
			ID:        e.id,
			Coords:    e.coords,
			UV:        orb.Point{e.u, 0},
			TileBound: e.bound,
			WayIDs:    []navdata.WayID{id},
		}
		w.NodeIDs = append(w.NodeIDs, e.id)
	}
	ds.BoundaryNodes[0][0][id] = &navdata.BoundaryRef{Index: len(t.RoadWays)}
	t.RoadWays = append(t.RoadWays, w)
}

func TestBoundariesInterpolatesAcrossEdge(t *testing.T) {
	ds, tile := edgeTile()
	addEdgeWay(ds, tile, 7,
		edgeNode{1, orb.Point{0, 1}, navdata.TexUVLeft, true},
		edgeNode{2, orb.Point{0, 1.5}, 0.3, true},
		edgeNode{3, orb.Point{0, 1.5}, 0.7, true},
		edgeNode{4, orb.Point{0, 2}, navdata.TexUVRight, true},
		edgeNode{5, orb.Point{1, 1.5}, 0.5, false},
	)

	assert.Equal(t, 1, Boundaries(ds, nil))

	assert.True(t, ds.BoundaryNodes[0][0][7].Consumed)
	assert.InDelta(t, navdata.TexUVLeft, tile.Nodes[1].UV[0], 1e-9)
	assert.InDelta(t, 0.0, tile.Nodes[2].UV[0], 1e-9)
	assert.InDelta(t, 0.0, tile.Nodes[3].UV[0], 1e-9)
	assert.InDelta(t, navdata.TexUVUp, tile.Nodes[2].UV[1], 1e-9)
	assert.InDelta(t, navdata.TexUVRight, tile.Nodes[4].UV[0], 1e-9)
	assert.InDelta(t, 0.5, tile.Nodes[5].UV[0], 1e-9, "interior nodes are left alone")
}

func TestBoundariesMergesNeighbouringWays(t *testing.T) {
	ds, tile := edgeTile()
	addEdgeWay(ds, tile, 7,
		edgeNode{1, orb.Point{1, 0}, navdata.TexUVLeft, true},
		edgeNode{2, orb.Point{1.2, 0}, 0.9, true},
	)
	addEdgeWay(ds, tile, 8,
		edgeNode{3, orb.Point{1.8, 0}, -0.9, true},
		edgeNode{4, orb.Point{2, 0}, navdata.TexUVRight, true},
	)

	assert.Equal(t, 1, Boundaries(ds, nil))

	assert.True(t, ds.BoundaryNodes[0][0][7].Consumed)
	assert.True(t, ds.BoundaryNodes[0][0][8].Consumed)
	assert.InDelta(t, -0.6, tile.Nodes[2].UV[0], 1e-9)
	assert.InDelta(t, 0.6, tile.Nodes[3].UV[0], 1e-9)
}

func TestBoundariesFlipsMatchingEnds(t *testing.T) {
	ds, tile := edgeTile()
	addEdgeWay(ds, tile, 7,
		edgeNode{1, orb.Point{10, 4}, navdata.TexUVLeft, true},
		edgeNode{2, orb.Point{10, 4.5}, 0.2, true},
		edgeNode{3, orb.Point{10, 5}, navdata.TexUVLeft, true},
	)

	Boundaries(ds, nil)

	assert.InDelta(t, navdata.TexUVRight, tile.Nodes[3].UV[0], 1e-9)
	assert.InDelta(t, 0.0, tile.Nodes[2].UV[0], 1e-9)
}

func TestBoundariesSkipsSingleNode(t *testing.T) {
	ds, tile := edgeTile()
	addEdgeWay(ds, tile, 7, edgeNode{1, orb.Point{0, 3}, 0.4, true})

	assert.Zero(t, Boundaries(ds, nil))
	assert.InDelta(t, 0.4, tile.Nodes[1].UV[0], 1e-9)
}
