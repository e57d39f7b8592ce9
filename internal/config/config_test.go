package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		isSet   bool
	}{
		{"empty", "", false, false},
		{"valid", "7.1, 50.7, 7.2, 50.8", false, true},
		{"too few values", "7.1,50.7,7.2", true, false},
		{"not a number", "7.1,abc,7.2,50.8", true, false},
		{"inverted lon", "7.2,50.7,7.1,50.8", true, false},
		{"zero height", "7.1,50.7,7.2,50.7", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bbox, err := ParseBBox(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			require.NoError(t, err)
			if bbox.IsSet != tt.isSet {
				t.Errorf("expected IsSet %v, got %v", tt.isSet, bbox.IsSet)
			}
		})
	}
}

func TestBBoxBounds(t *testing.T) {
	bbox, err := ParseBBox("7.1,50.7,7.2,50.8")
	require.NoError(t, err)

	b := bbox.Bounds()
	require.NotNil(t, b)
	assert.Equal(t, 7.1, b.MinLon)
	assert.Equal(t, 50.8, b.MaxLat)
	assert.True(t, bbox.Contains(50.75, 7.15))
	assert.False(t, bbox.Contains(51, 7.15))

	assert.Nil(t, (&BBox{}).Bounds())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults with input", func(c *Config) {}, false},
		{"missing input", func(c *Config) { c.InputFile = "" }, true},
		{"3d upper case", func(c *Config) { c.Variant = "3D" }, false},
		{"unknown variant", func(c *Config) { c.Variant = "4d" }, true},
		{"negative scale", func(c *Config) { c.TileScale = -1 }, true},
		{"empty viewport", func(c *Config) { c.ViewportHeight = 0 }, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
		{"no batch without parquet", func(c *Config) { c.BatchSize = 0; c.WriteParquet = false }, false},
		{"no batch with parquet", func(c *Config) { c.BatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InputFile = "map.osm"
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
