package labels

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// ProcessLabelBoundary records how far the label may extend along the
// axes before it leaves the tile.
func ProcessLabelBoundary(l *navdata.Label, tile orb.Bound) {
	p := l.Coords
	reach := orb.Point{math.Abs(tile.Max[0]) * 2, math.Abs(tile.Max[1]) * 2}
	rays := []orb.Point{
		{p[0] - reach[0], p[1]},
		{p[0], p[1] + reach[1]},
		{p[0] + reach[0], p[1]},
		{p[0], p[1] - reach[1]},
	}

	best := math.Inf(1)
	for _, out := range rays {
		hit, side := geom.FindIntersect(p, out, tile.Min, tile.Max)
		if side == geom.SideNone {
			continue
		}
		best = math.Min(best, geom.Distance(p, hit))
	}
	if math.IsInf(best, 1) {
		best = 0
	}
	l.DistToBoundary = best
}
