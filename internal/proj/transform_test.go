package proj

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestLonLatToMetres(t *testing.T) {
	tests := []struct {
		name   string
		target orb.Point
		x, y   float64
	}{
		{"origin", orb.Point{0, 0}, 0, 0},
		{"one degree east", orb.Point{1, 0}, 2 * EarthRadius * math.Asin(math.Sin(math.Pi/360)), 0},
		{"one degree north", orb.Point{0, 1}, 0, 2 * EarthRadius * math.Asin(math.Sin(math.Pi/360))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LonLatToMetres(orb.Point{0, 0}, tt.target)
			if math.Abs(got[0]-tt.x) > 1e-9 || math.Abs(got[1]-tt.y) > 1e-9 {
				t.Errorf("expected (%v, %v), got %v", tt.x, tt.y, got)
			}
		})
	}
}

func TestLonLatToMetresShrinksWithLatitude(t *testing.T) {
	equator := LonLatToMetres(orb.Point{0, 0}, orb.Point{0.01, 0})
	north := LonLatToMetres(orb.Point{0, 60}, orb.Point{0.01, 60})
	if north[0] >= equator[0] {
		t.Errorf("expected east-west distance to shrink at 60N, got %v >= %v", north[0], equator[0])
	}
	if math.Abs(north[0]/equator[0]-0.5) > 1e-3 {
		t.Errorf("expected ratio near cos(60), got %v", north[0]/equator[0])
	}
}

func TestProjectorNegatesBelowOrigin(t *testing.T) {
	p := NewProjector(orb.Point{10, 50}, orb.Point{10.1, 50.1})
	pt := p.Project(9.99, 49.99)
	if pt[0] >= 0 || pt[1] >= 0 {
		t.Errorf("expected negative components, got %v", pt)
	}

	b := p.Bounds()
	if b.Min != (orb.Point{0, 0}) {
		t.Errorf("expected bounds min at origin, got %v", b.Min)
	}
	if b.Max[0] <= 0 || b.Max[1] <= 0 {
		t.Errorf("expected positive bounds max, got %v", b.Max)
	}
}

func TestMapWorldDimensions(t *testing.T) {
	dim := MapWorldDimensions(orb.Point{0, 0}, orb.Point{0.01, 0.01}, orb.Point{2, 1})
	if math.Abs(dim[0]-640) > 1e-9 {
		t.Errorf("expected width 640, got %v", dim[0])
	}
	if math.Abs(dim[1]-320) > 1e-9 {
		t.Errorf("expected height 320, got %v", dim[1])
	}
}
