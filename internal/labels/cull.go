package labels

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// glyphAspect approximates glyph advance as a fraction of the text scale
const glyphAspect = 0.6

// extent is the circle covered by the last accepted label
type extent struct {
	center orb.Point
	radius float64
	set    bool
}

// Culler drops labels that would overlap the previously accepted one of
// the same LOD. It is stateful and meant to be fed labels in draw order.
type Culler struct {
	labels    [navdata.LODCount]extent
	amenities [navdata.LODCount]extent
}

// NewCuller creates a culler with empty state
func NewCuller() *Culler {
	return &Culler{}
}

// TextWidth estimates the rendered width of a possibly multi-line text.
func TextWidth(text string, scale float64) float64 {
	longest := 0
	for _, line := range strings.Split(text, "\n") {
		if len(line) > longest {
			longest = len(line)
		}
	}
	return float64(longest) * scale * glyphAspect
}

// SkipLabel reports whether a road label should be hidden. Road labels are
// also hidden when they would cross the tile edge or run past their
// segment.
func (c *Culler) SkipLabel(l *navdata.Label, textWidth float64) bool {
	half := textWidth / 1.95
	if l.DistToBoundary < half || l.DistToEndOfSegment < half {
		return true
	}
	return skipOverlap(&c.labels[l.LOD], l.Coords, half)
}

// SkipAmenityLabel reports whether an amenity name should be hidden.
func (c *Culler) SkipAmenityLabel(l *navdata.AmenityLabel, textWidth float64) bool {
	return skipOverlap(&c.amenities[l.LOD], l.Coords, textWidth/1.95)
}

func skipOverlap(ext *extent, p orb.Point, half float64) bool {
	if ext.set {
		d := geom.Distance(p, ext.center)
		if d < ext.radius+half && math.Abs(ext.radius-half) < d {
			return true
		}
	}
	*ext = extent{center: p, radius: half, set: true}
	return false
}
