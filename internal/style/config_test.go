package style

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name     string
		tags     osm.Tags
		expected navdata.WayType
		matched  bool
		area     bool
	}{
		{"residential road", osm.Tags{{Key: "highway", Value: "residential"}}, navdata.WayRoad, true, false},
		{"footway excluded", osm.Tags{{Key: "highway", Value: "footway"}}, navdata.WayDefault, false, false},
		{"parking", osm.Tags{{Key: "amenity", Value: "parking"}}, navdata.WayParking, true, false},
		{"building", osm.Tags{{Key: "building", Value: "yes"}}, navdata.WayBuilding, true, false},
		{"retail landuse", osm.Tags{{Key: "landuse", Value: "retail"}}, navdata.WayBuilding, true, false},
		{"shop", osm.Tags{{Key: "shop", Value: "bakery"}}, navdata.WayBuilding, true, false},
		{"pedestrian area", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "area", Value: "yes"}}, navdata.WayRoad, true, true},
		{"last match wins", osm.Tags{{Key: "highway", Value: "service"}, {Key: "amenity", Value: "parking"}}, navdata.WayParking, true, false},
		{"untagged", nil, navdata.WayDefault, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.tags)
			if got.Type != tt.expected {
				t.Errorf("expected type %v, got %v", tt.expected, got.Type)
			}
			if got.Matched != tt.matched {
				t.Errorf("expected matched %v, got %v", tt.matched, got.Matched)
			}
			if got.Area != tt.area {
				t.Errorf("expected area %v, got %v", tt.area, got.Area)
			}
		})
	}
}

func TestRoadStyle(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		highway  string
		roadType navdata.RoadType
		width    float64
	}{
		{"motorway", navdata.RoadMotorway, 0.015},
		{"motorway_link", navdata.RoadTrunk, 0.01},
		{"trunk_link", navdata.RoadPrimary, 0.007},
		{"tertiary", navdata.RoadSecondary, 0.005},
		{"service", navdata.RoadService, 0.0015},
		{"residential", navdata.RoadOther, 0.0025},
	}

	for _, tt := range tests {
		t.Run(tt.highway, func(t *testing.T) {
			rt, w := c.RoadStyle(tt.highway)
			if rt != tt.roadType {
				t.Errorf("expected %v, got %v", tt.roadType, rt)
			}
			if w != tt.width {
				t.Errorf("expected width %v, got %v", tt.width, w)
			}
		})
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	data := []byte(`
road_classes:
  - values: [residential]
    type: secondary
    width: 0.004
    color: "#cccccc"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Road == nil || cfg.Parking == nil {
		t.Fatal("expected default filters to be kept")
	}

	c := NewClassifier(cfg)
	rt, w := c.RoadStyle("residential")
	if rt != navdata.RoadSecondary || w != 0.004 {
		t.Errorf("expected secondary/0.004, got %v/%v", rt, w)
	}
	if c.Color(navdata.RoadSecondary) != "#cccccc" {
		t.Errorf("expected configured color, got %q", c.Color(navdata.RoadSecondary))
	}
}

func TestLoadConfigRejectsUnknownRoadType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	data := []byte(`
road_classes:
  - values: [residential]
    type: lane
    width: 0.004
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown road type")
	}
}

func TestFilterEmptyMatchesNothing(t *testing.T) {
	f := NewFilter(nil)
	if f.Match(map[string]string{"highway": "primary"}) {
		t.Error("expected empty filter not to match")
	}
}
