package junction

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/navtiles-go/internal/geometry"
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

// addRoad registers a road the way ingest does. Tests triangulate
// afterwards without tessellation.
func addRoad(ds *navdata.Dataset, id navdata.WayID, nodes ...navdata.NodeID) {
	w := &navdata.Way{ID: id, NodeIDs: nodes, Type: navdata.WayRoad, RoadType: navdata.RoadPrimary, Width: 1}
	for _, nid := range nodes {
		n := ds.Nodes[nid]
		n.WayIDs = append(n.WayIDs, id)
		if len(n.WayIDs) == 2 {
			ds.OriginalIntersections = append(ds.OriginalIntersections, nid)
		}
	}
	ds.ReserveWayID(id)
	ds.OriginalRoadWays[id] = w
}

func triangulate(ds *navdata.Dataset) {
	for _, id := range navdata.SortedWayIDs(ds.OriginalRoadWays) {
		ds.TriangulatedRoads[id] = geometry.TriangulateRoad(ds, ds.OriginalRoadWays[id])
	}
}

func resolve(t *testing.T, ds *navdata.Dataset) *Resolver {
	t.Helper()
	r := NewResolver(ds, navdata.NewChecker(true, nil), nil)
	require.NoError(t, r.Resolve())
	return r
}

func TestTwoWayCornerSnapsInnerEdges(t *testing.T) {
	// west arm and north arm meeting at (5,5)
	ds := newDataset(orb.Point{1, 5}, orb.Point{5, 5}, orb.Point{5, 9})
	addRoad(ds, 1, 1, 2)
	addRoad(ds, 2, 2, 3)
	triangulate(ds)

	r := resolve(t, ds)

	assert.Equal(t, Reconciled, r.State(2))
	assert.Equal(t, 1, r.Stats().Snapped)
	assert.Empty(t, ds.Intersections, "2-way junctions get no intersection way")

	north := ds.TriangulatedRoads[2].NodeIDs
	west := ds.TriangulatedRoads[1].NodeIDs
	want := orb.Point{4.5, 5.5}
	assert.InDeltaSlice(t, want[:], ds.Nodes[north[0]].Coords[:], 1e-9)
	// the west road ends at the junction, its left node is second to last
	assert.InDeltaSlice(t, want[:], ds.Nodes[west[2]].Coords[:], 1e-9)
}

func TestParallelFarEdgesLeaveSeam(t *testing.T) {
	ds := newDataset(orb.Point{1, 5}, orb.Point{5, 5}, orb.Point{9, 5})
	addRoad(ds, 1, 1, 2)
	addRoad(ds, 2, 2, 3)
	triangulate(ds)

	// lift the west road's north edge so both north edges are nearly
	// parallel but too far apart to merge
	ds.Nodes[ds.TriangulatedRoads[1].NodeIDs[2]].Coords = orb.Point{5, 5.6}

	r := resolve(t, ds)
	assert.Equal(t, 0, r.Stats().Snapped)
	assert.Equal(t, 1, r.Stats().Seams)
}

func TestMidWaySplitBuildsFan(t *testing.T) {
	// A(1,5) - J(5,5) - B(9,5) with a branch from J north to C(5,9)
	ds := newDataset(orb.Point{1, 5}, orb.Point{5, 5}, orb.Point{9, 5}, orb.Point{5, 9})
	addRoad(ds, 1, 1, 2, 3)
	addRoad(ds, 2, 2, 4)
	triangulate(ds)

	r := resolve(t, ds)

	require.Contains(t, ds.OriginalRoadWays, navdata.WayID(3), "road 1 split at the junction")
	assert.Equal(t, []navdata.NodeID{1, 2}, ds.OriginalRoadWays[1].NodeIDs)
	assert.Equal(t, []navdata.NodeID{2, 3}, ds.OriginalRoadWays[3].NodeIDs)
	assert.Len(t, ds.TriangulatedRoads[1].NodeIDs, 4)
	assert.Len(t, ds.TriangulatedRoads[3].NodeIDs, 4)
	assert.ElementsMatch(t, []navdata.WayID{1, 2, 3}, ds.Nodes[2].WayIDs)
	assert.ElementsMatch(t, []navdata.WayID{3}, ds.Nodes[3].WayIDs)
	assert.Equal(t, 1, r.Stats().Splits)

	// both halves own their junction pair
	assert.NotEqual(t, ds.TriangulatedRoads[1].NodeIDs[2], ds.TriangulatedRoads[3].NodeIDs[0])

	data := ds.Intersections[2]
	require.NotNil(t, data)
	assert.ElementsMatch(t, []navdata.WayID{1, 2, 3}, data.WayIDs)
	require.Len(t, data.Fan, 3)

	conv := ds.ConvertedRoads[data.WayID]
	require.NotNil(t, conv)
	assert.True(t, conv.IsIntersection)
	assert.False(t, conv.IsRoundabout)
	assert.False(t, conv.IsFork)
	assert.Equal(t, navdata.RoadPrimary, conv.RoadType)
	assert.Equal(t, 1.0, conv.Width)

	hub := ds.Nodes[data.Fan[0][0]]
	assert.Equal(t, orb.Point{5, 5}, hub.Coords)
	assert.Equal(t, orb.Point{navdata.TexUVCenter, navdata.TexUVUp}, hub.UV)

	// east half left edge mitred against the branch's right edge
	east := ds.TriangulatedRoads[3].NodeIDs
	branch := ds.TriangulatedRoads[2].NodeIDs
	corner := orb.Point{5.5, 5.5}
	assert.InDeltaSlice(t, corner[:], ds.Nodes[east[0]].Coords[:], 1e-9)
	assert.InDeltaSlice(t, corner[:], ds.Nodes[branch[1]].Coords[:], 1e-9)

	other := orb.Point{4.5, 5.5}
	assert.InDeltaSlice(t, other[:], ds.Nodes[branch[0]].Coords[:], 1e-9)
}

func TestLoopIsBrokenIntoArcs(t *testing.T) {
	ds := newDataset(
		orb.Point{5, 5}, orb.Point{7, 5}, orb.Point{7, 7}, orb.Point{5, 7}, orb.Point{2, 5},
	)
	addRoad(ds, 1, 1, 2, 3, 4, 1)
	addRoad(ds, 2, 1, 5)
	triangulate(ds)

	r := resolve(t, ds)

	assert.Equal(t, []navdata.NodeID{1, 2, 3}, ds.OriginalRoadWays[1].NodeIDs)
	assert.Equal(t, []navdata.NodeID{3, 4, 1}, ds.OriginalRoadWays[3].NodeIDs)
	assert.ElementsMatch(t, []navdata.WayID{1, 2, 3}, ds.Nodes[1].WayIDs)
	assert.ElementsMatch(t, []navdata.WayID{1, 3}, ds.Nodes[3].WayIDs)

	assert.Equal(t, Reconciled, r.State(1))
	assert.Equal(t, Reconciled, r.State(3), "the cut node is queued and reconciled")
	assert.Contains(t, ds.Intersections, navdata.NodeID(1))
	assert.NotContains(t, ds.Intersections, navdata.NodeID(3))
}

func TestIntersectionFlags(t *testing.T) {
	tests := []struct {
		name       string
		roundabout bool
		oneWays    int
		fork       bool
	}{
		{"plain", false, 0, false},
		{"roundabout", true, 0, false},
		{"fork", false, 2, true},
		{"three one-way", false, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newDataset(orb.Point{5, 5}, orb.Point{9, 5}, orb.Point{5, 9}, orb.Point{1, 5})
			addRoad(ds, 1, 1, 2)
			addRoad(ds, 2, 1, 3)
			addRoad(ds, 3, 1, 4)
			ds.OriginalRoadWays[1].OnRoundabout = tt.roundabout
			for i := 0; i < tt.oneWays; i++ {
				ds.OriginalRoadWays[navdata.WayID(i+1)].OneWay = true
			}
			triangulate(ds)
			resolve(t, ds)

			data := ds.Intersections[1]
			require.NotNil(t, data)
			conv := ds.ConvertedRoads[data.WayID]
			if conv.IsRoundabout != tt.roundabout {
				t.Errorf("expected roundabout %v, got %v", tt.roundabout, conv.IsRoundabout)
			}
			if conv.IsFork != tt.fork {
				t.Errorf("expected fork %v, got %v", tt.fork, conv.IsFork)
			}
			require.NoError(t, navdata.NewChecker(true, nil).CheckFlags(ds))
		})
	}
}

func TestDominantRoadType(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[navdata.RoadType]int
		expected navdata.RoadType
	}{
		{"majority", map[navdata.RoadType]int{navdata.RoadService: 2, navdata.RoadPrimary: 1}, navdata.RoadService},
		{"tie picks major", map[navdata.RoadType]int{navdata.RoadSecondary: 1, navdata.RoadTrunk: 1}, navdata.RoadTrunk},
		{"empty", map[navdata.RoadType]int{}, navdata.RoadNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantRoadType(tt.counts); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestOutOfBoundsJunctionIgnored(t *testing.T) {
	ds := newDataset(orb.Point{1, 5}, orb.Point{11, 5}, orb.Point{11, 9})
	addRoad(ds, 1, 1, 2)
	addRoad(ds, 2, 2, 3)
	triangulate(ds)

	r := resolve(t, ds)
	assert.Equal(t, Unprocessed, r.State(2))
	assert.Equal(t, 0, r.Stats().Queued)
}
