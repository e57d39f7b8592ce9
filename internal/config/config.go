package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"

	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// BBox represents a geographic bounding box
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
	IsSet                          bool
}

// Contains checks if a point is within the bounding box
func (b *BBox) Contains(lat, lon float64) bool {
	if !b.IsSet {
		return true
	}
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Bounds returns the box as map bounds, or nil when unset.
func (b *BBox) Bounds() *osm.Bounds {
	if b == nil || !b.IsSet {
		return nil
	}
	return &osm.Bounds{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: b.MaxLon}
}

// ParseBBox parses a bbox string in format "minlon,minlat,maxlon,maxlat"
func ParseBBox(s string) (*BBox, error) {
	if s == "" {
		return &BBox{IsSet: false}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values: minlon,minlat,maxlon,maxlat")
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate %q: %w", p, err)
		}
		coords[i] = v
	}

	bbox := &BBox{
		MinLon: coords[0],
		MinLat: coords[1],
		MaxLon: coords[2],
		MaxLat: coords[3],
		IsSet:  true,
	}

	if bbox.MinLon >= bbox.MaxLon {
		return nil, fmt.Errorf("minlon (%f) must be < maxlon (%f)", bbox.MinLon, bbox.MaxLon)
	}
	if bbox.MinLat >= bbox.MaxLat {
		return nil, fmt.Errorf("minlat (%f) must be < maxlat (%f)", bbox.MinLat, bbox.MaxLat)
	}

	return bbox, nil
}

// Config holds the global configuration for a preparation run
type Config struct {
	// Input settings
	InputFile string
	BBox      *BBox  // Overrides the bounds element of the input
	StyleFile string // Path to style YAML file for tag classification

	// Map settings
	Variant        string  // "2d" or "3d"
	TileScale      float64 // Lon/lat degrees per tile, 0 uses the variant default
	ViewportWidth  int
	ViewportHeight int

	// Output settings
	OutputDir    string
	WriteParquet bool
	WriteGeoJSON bool
	BatchSize    int
	Workers      int // Concurrent export writers

	StrictInvariants bool
	Verbose          bool

	// Logging and metrics
	LogFile         string        // Path to log file (empty = no file logging)
	MetricsInterval time.Duration // Interval for system metrics logging, 0 disables
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BBox:             &BBox{},
		Variant:          string(navdata.Variant2D),
		ViewportWidth:    1280,
		ViewportHeight:   720,
		OutputDir:        "./navtiles_out",
		WriteParquet:     true,
		BatchSize:        10000,
		Workers:          runtime.NumCPU(),
		StrictInvariants: true,
		MetricsInterval:  30 * time.Second,
	}
}

// MapVariant returns the variant as its dataset type.
func (c *Config) MapVariant() navdata.Variant {
	return navdata.Variant(strings.ToLower(c.Variant))
}

// Viewport returns the viewport size used to derive the map world extent.
func (c *Config) Viewport() [2]float64 {
	return [2]float64{float64(c.ViewportWidth), float64(c.ViewportHeight)}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	switch c.MapVariant() {
	case navdata.Variant2D, navdata.Variant3D:
	default:
		return fmt.Errorf("variant must be 2d or 3d, got %q", c.Variant)
	}
	if c.TileScale < 0 {
		return fmt.Errorf("tile scale must not be negative")
	}
	if c.ViewportWidth < 1 || c.ViewportHeight < 1 {
		return fmt.Errorf("viewport must be at least 1x1, got %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.WriteParquet && c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}
