package navdata

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

func TestNewNodeIDAfterAddNode(t *testing.T) {
	ds := New(Variant2D)
	ds.AddNode(&Node{ID: 42})
	ds.AddNode(&Node{ID: 7})

	id := ds.NewNodeID()
	if id != 43 {
		t.Errorf("expected 43, got %d", id)
	}
	n := ds.NewNode(orb.Point{1, 2}, orb.Point{})
	if n.ID != 44 {
		t.Errorf("expected 44, got %d", n.ID)
	}
	if ds.Node(44) != n {
		t.Error("expected new node to be stored in the node table")
	}
}

func TestNewWayIDNeverReused(t *testing.T) {
	ds := New(Variant2D)
	ds.ReserveWayID(100)
	ds.ReserveWayID(50)

	seen := make(map[WayID]bool)
	for i := 0; i < 10; i++ {
		id := ds.NewWayID()
		if id <= 100 {
			t.Errorf("expected id above 100, got %d", id)
		}
		if seen[id] {
			t.Errorf("id %d handed out twice", id)
		}
		seen[id] = true
	}
}

func TestMarkTilingRollsBack(t *testing.T) {
	ds := New(Variant2D)
	ds.AddNode(&Node{ID: 10})
	ds.MarkTiling()

	first := ds.NewNode(orb.Point{}, orb.Point{}).ID
	ds.NewNode(orb.Point{}, orb.Point{})

	ds.MarkTiling()
	if len(ds.Nodes) != 1 {
		t.Errorf("expected 1 node after rollback, got %d", len(ds.Nodes))
	}
	if again := ds.NewNodeID(); again != first {
		t.Errorf("expected %d after rollback, got %d", first, again)
	}
}

func TestBuildingTypeFromTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     osm.Tags
		expected BuildingType
	}{
		{"no tags", nil, BuildingNone},
		{"empty value", osm.Tags{{Key: "amenity", Value: ""}}, BuildingNone},
		{"known amenity", osm.Tags{{Key: "amenity", Value: "cafe"}}, BuildingCafe},
		{"supermarket shop", osm.Tags{{Key: "shop", Value: "supermarket"}}, BuildingShop},
		{"fuel", osm.Tags{{Key: "amenity", Value: "fuel"}}, BuildingPetrolStation},
		{"pet shop", osm.Tags{{Key: "shop", Value: "pet"}}, BuildingVeterinary},
		{"unknown value", osm.Tags{{Key: "amenity", Value: "bench"}}, BuildingOther},
		{"first tag wins", osm.Tags{{Key: "shop", Value: "florist"}, {Key: "amenity", Value: "bank"}}, BuildingFlorist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildingTypeFromTags(tt.tags)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCheckerStrictness(t *testing.T) {
	strict := NewChecker(true, nil)
	err := strict.Check(false, "node %d", 1)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}

	lenient := NewChecker(false, nil)
	if err := lenient.Check(false, "node %d", 1); err != nil {
		t.Errorf("expected nil in lenient mode, got %v", err)
	}
}

func TestCheckReferences(t *testing.T) {
	ds := New(Variant2D)
	ds.AddNode(&Node{ID: 1})
	ds.OriginalRoadWays[5] = &Way{ID: 5, NodeIDs: []NodeID{1, 2}}

	err := NewChecker(true, nil).CheckReferences(ds)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("expected missing node to be reported, got %v", err)
	}
}

func TestCheckFlags(t *testing.T) {
	ds := New(Variant2D)
	ds.ConvertedRoads[1] = &ConvertedWay{Way: Way{ID: 1, IsFork: true}}

	if err := NewChecker(true, nil).CheckFlags(ds); !errors.Is(err, ErrInvariant) {
		t.Errorf("expected fork without intersection flag to fail, got %v", err)
	}

	ds.ConvertedRoads[1].IsIntersection = true
	if err := NewChecker(true, nil).CheckFlags(ds); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
