package labels

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

const (
	// MinSpacing is the smallest allowed distance between kept labels of
	// the same LOD.
	MinSpacing = 0.03
	// minSegment drops candidate pairs that are nearly the same point
	minSegment = 0.01
)

// Process reduces each LOD's raw per-node candidates to one label per
// segment midpoint, oriented along the road and kept at least MinSpacing
// apart. dim is the render extent used to orient labels.
func Process(ds *navdata.Dataset, dim orb.Point, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	grid := ds.GridBound()
	half := orb.Point{dim[0] / 2, dim[1] / 2}
	toRender := func(p orb.Point) orb.Point {
		return geom.Scale(geom.Remap(p, grid.Min, grid.Max, orb.Point{-half[0], -half[1]}, half), -1)
	}

	for lod := 0; lod < navdata.LODCount; lod++ {
		candidates := ds.Labels[lod]
		if len(candidates) == 0 {
			continue
		}
		kept := make([]navdata.Label, 0, len(candidates)/2)
		grid := newSpacingGrid(MinSpacing)

		for i := 1; i < len(candidates); i++ {
			prev, cur := candidates[i-1], candidates[i]
			if prev.WayID != cur.WayID {
				continue
			}
			if geom.Distance(prev.Coords, cur.Coords) < minSegment {
				continue
			}
			pos := geom.Midpoint(prev.Coords, cur.Coords)
			if grid.near(pos) {
				continue
			}

			angle := geom.AngleBetweenPoints(toRender(prev.Coords), toRender(cur.Coords))
			label := cur
			label.Coords = pos
			label.Rotation = FoldAngle(angle)
			label.DistToEndOfSegment = geom.Distance(pos, cur.Coords)
			kept = append(kept, label)
			grid.add(pos)
		}

		log.Debug("Labels reduced", zap.Int("lod", lod),
			zap.Int("candidates", len(candidates)), zap.Int("kept", len(kept)))
		ds.Labels[lod] = kept
	}
}

// FoldAngle wraps a bearing into (-90,90] so text never reads upside down.
func FoldAngle(deg float64) float64 {
	deg = geom.WrapDegrees(deg)
	if deg > 90 {
		deg -= 180
	} else if deg <= -90 {
		deg += 180
	}
	return deg
}

// spacingGrid answers "is any kept point closer than r" in constant time
type spacingGrid struct {
	r     float64
	cells map[[2]int][]orb.Point
}

func newSpacingGrid(r float64) *spacingGrid {
	return &spacingGrid{r: r, cells: make(map[[2]int][]orb.Point)}
}

func (g *spacingGrid) cell(p orb.Point) [2]int {
	return [2]int{int(math.Floor(p[0] / g.r)), int(math.Floor(p[1] / g.r))}
}

func (g *spacingGrid) add(p orb.Point) {
	c := g.cell(p)
	g.cells[c] = append(g.cells[c], p)
}

func (g *spacingGrid) near(p orb.Point) bool {
	c := g.cell(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, q := range g.cells[[2]int{c[0] + dx, c[1] + dy}] {
				if geom.Distance(p, q) < g.r {
					return true
				}
			}
		}
	}
	return false
}
