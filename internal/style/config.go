package style

import (
	"fmt"
	"os"

	"github.com/paulmach/osm"
	"gopkg.in/yaml.v3"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Config is the tag classification and road style table
type Config struct {
	// Road matches ways drawn as roads
	Road *FilterConfig `yaml:"road,omitempty"`
	// Parking matches parking lots
	Parking *FilterConfig `yaml:"parking,omitempty"`
	// Building matches building and retail outlines
	Building *FilterConfig `yaml:"building,omitempty"`
	// Area marks a way as a filled area
	Area *FilterConfig `yaml:"area,omitempty"`
	// RoadClasses maps highway values to a road type, width and color
	RoadClasses []RoadClass `yaml:"road_classes,omitempty"`
	// DefaultRoad applies to highway values no class lists
	DefaultRoad *RoadClass `yaml:"default_road,omitempty"`
}

// RoadClass describes how a group of highway values is drawn
type RoadClass struct {
	Values []string `yaml:"values"`
	Type   string   `yaml:"type"`
	Width  float64  `yaml:"width"`
	Color  string   `yaml:"color"`
}

// FilterConfig defines matching rules for a single category
type FilterConfig struct {
	// Include specifies which tag keys/values match
	// A key with no values matches any value
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude is applied after include rules
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny specifies that at least one of these tags must be present
	RequireAny []string `yaml:"require_any,omitempty"`
}

// LoadConfig loads a style table from a YAML file. Sections missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}

	def := DefaultConfig()
	if cfg.Road == nil {
		cfg.Road = def.Road
	}
	if cfg.Parking == nil {
		cfg.Parking = def.Parking
	}
	if cfg.Building == nil {
		cfg.Building = def.Building
	}
	if cfg.Area == nil {
		cfg.Area = def.Area
	}
	if len(cfg.RoadClasses) == 0 {
		cfg.RoadClasses = def.RoadClasses
	}
	if cfg.DefaultRoad == nil {
		cfg.DefaultRoad = def.DefaultRoad
	}

	for _, rc := range cfg.RoadClasses {
		if navdata.ParseRoadType(rc.Type) == navdata.RoadNone {
			return nil, fmt.Errorf("unknown road type %q in style file", rc.Type)
		}
		if rc.Width <= 0 {
			return nil, fmt.Errorf("road class %q must have a positive width", rc.Type)
		}
	}

	return &cfg, nil
}

// DefaultConfig returns the built-in road and area classification
func DefaultConfig() *Config {
	return &Config{
		Road: &FilterConfig{
			Include: map[string][]string{"highway": nil},
			Exclude: map[string][]string{"highway": {
				"footway", "bus_guideway", "raceway", "bridleway", "steps", "path",
				"cycleway", "proposed", "construction", "track", "pedestrian",
			}},
		},
		Parking: &FilterConfig{
			Include: map[string][]string{"amenity": {"parking"}},
		},
		Building: &FilterConfig{
			Include: map[string][]string{"building": nil, "shop": nil, "landuse": {"retail"}},
		},
		Area: &FilterConfig{
			Include: map[string][]string{"area": {"yes"}},
		},
		RoadClasses: []RoadClass{
			{Values: []string{"motorway"}, Type: "motorway", Width: 0.015, Color: "#e892a2"},
			{Values: []string{"trunk", "motorway_link"}, Type: "trunk", Width: 0.01, Color: "#f9b29c"},
			{Values: []string{"primary", "primary_link", "trunk_link"}, Type: "primary", Width: 0.007, Color: "#fcd6a4"},
			{Values: []string{"secondary", "tertiary", "secondary_link", "tertiary_link"}, Type: "secondary", Width: 0.005, Color: "#f7fabf"},
			{Values: []string{"service"}, Type: "service", Width: 0.0015, Color: "#ffffff"},
		},
		DefaultRoad: &RoadClass{Type: "other", Width: 0.0025, Color: "#ffffff"},
	}
}

// Classifier assigns way categories and road styles from tags
type Classifier struct {
	road     *Filter
	parking  *Filter
	building *Filter
	area     *Filter
	classes  map[string]RoadClass
	fallback RoadClass
	colors   map[navdata.RoadType]string
}

// NewClassifier builds a classifier from a style table
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Classifier{
		road:     NewFilter(cfg.Road),
		parking:  NewFilter(cfg.Parking),
		building: NewFilter(cfg.Building),
		area:     NewFilter(cfg.Area),
		classes:  make(map[string]RoadClass),
		colors:   make(map[navdata.RoadType]string),
	}
	for _, rc := range cfg.RoadClasses {
		for _, v := range rc.Values {
			c.classes[v] = rc
		}
		c.colors[navdata.ParseRoadType(rc.Type)] = rc.Color
	}
	if cfg.DefaultRoad != nil {
		c.fallback = *cfg.DefaultRoad
		c.colors[navdata.ParseRoadType(cfg.DefaultRoad.Type)] = cfg.DefaultRoad.Color
	}
	return c
}

// Classification is the outcome of classifying a way's tags
type Classification struct {
	Type    navdata.WayType
	Matched bool
	Area    bool
}

// Classify walks the tags in order. Each tag is matched on its own and the
// last matching category wins.
func (c *Classifier) Classify(tags osm.Tags) Classification {
	res := Classification{Type: navdata.WayDefault}
	for _, t := range tags {
		single := map[string]string{t.Key: t.Value}
		switch {
		case c.road.Match(single):
			res.Type, res.Matched = navdata.WayRoad, true
		case c.parking.Match(single):
			res.Type, res.Matched = navdata.WayParking, true
		case c.building.Match(single):
			res.Type, res.Matched = navdata.WayBuilding, true
		case c.area.Match(single):
			res.Area = true
		}
	}
	return res
}

// RoadStyle returns the road type and width for a highway value
func (c *Classifier) RoadStyle(highway string) (navdata.RoadType, float64) {
	rc, ok := c.classes[highway]
	if !ok {
		rc = c.fallback
	}
	return navdata.ParseRoadType(rc.Type), rc.Width
}

// Color returns the configured color of a road type
func (c *Classifier) Color(t navdata.RoadType) string {
	return c.colors[t]
}

// Filter checks if tags match the filter configuration
type Filter struct {
	cfg *FilterConfig
}

// NewFilter creates a filter from configuration
func NewFilter(cfg *FilterConfig) *Filter {
	if cfg == nil {
		return &Filter{cfg: &FilterConfig{}}
	}
	return &Filter{cfg: cfg}
}

// Match reports whether the tags satisfy the filter. An empty filter
// matches nothing so that a missing category never claims a way.
func (f *Filter) Match(tags map[string]string) bool {
	if !f.HasFilter() {
		return false
	}

	if len(f.cfg.RequireAny) > 0 {
		found := false
		for _, key := range f.cfg.RequireAny {
			if _, ok := tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.cfg.Include) > 0 {
		matched := false
		for key, values := range f.cfg.Include {
			tagValue, ok := tags[key]
			if !ok {
				continue
			}
			if len(values) == 0 || contains(values, tagValue) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for key, values := range f.cfg.Exclude {
		if tagValue, ok := tags[key]; ok {
			if len(values) == 0 || contains(values, tagValue) {
				return false
			}
		}
	}

	return true
}

// HasFilter returns true if any rule is configured
func (f *Filter) HasFilter() bool {
	if f.cfg == nil {
		return false
	}
	return len(f.cfg.Include) > 0 || len(f.cfg.Exclude) > 0 || len(f.cfg.RequireAny) > 0
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v || candidate == "*" {
			return true
		}
	}
	return false
}
