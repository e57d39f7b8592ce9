// Package tiling partitions the map into a uniform tile grid and clips
// every triangle so that it lies inside exactly one tile.
package tiling

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Default tile scales in lon/lat degrees per tile.
var (
	Scale2D = orb.Point{0.005, 0.005}
	Scale3D = orb.Point{0.002, 0.002}
)

// ScaleFor returns the default tile scale of a variant.
func ScaleFor(v navdata.Variant) orb.Point {
	if v == navdata.Variant3D {
		return Scale3D
	}
	return Scale2D
}

// InitTiles builds the tile grid over the projected bounds. The column and
// row counts come from the lon/lat span divided by scale. Tiles share
// their edges exactly and the outermost edges equal the map bounds.
func InitTiles(ds *navdata.Dataset, scale orb.Point, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	span := geom.Sub(ds.MaxLonLat, ds.MinLonLat)
	cols := int(math.Ceil(span[0] / scale[0]))
	rows := int(math.Ceil(span[1] / scale[1]))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	min, max := ds.Bounds.Min, ds.Bounds.Max
	size := orb.Point{(max[0] - min[0]) / float64(cols), (max[1] - min[1]) / float64(rows)}
	edge := func(i, n int, axis int) float64 {
		if i == n {
			return max[axis]
		}
		return min[axis] + size[axis]*float64(i)
	}

	ds.TileScale = scale
	ds.TileSize = size
	ds.NumCols = cols
	ds.NumRows = rows
	ds.Tiles = make([][]*navdata.Tile, cols)
	ds.BoundaryNodes = make([][]map[navdata.WayID]*navdata.BoundaryRef, cols)
	for c := 0; c < cols; c++ {
		ds.Tiles[c] = make([]*navdata.Tile, rows)
		ds.BoundaryNodes[c] = make([]map[navdata.WayID]*navdata.BoundaryRef, rows)
		for r := 0; r < rows; r++ {
			b := orb.Bound{
				Min: orb.Point{edge(c, cols, 0), edge(r, rows, 1)},
				Max: orb.Point{edge(c+1, cols, 0), edge(r+1, rows, 1)},
			}
			ds.Tiles[c][r] = navdata.NewTile(c, r, b)
			ds.BoundaryNodes[c][r] = make(map[navdata.WayID]*navdata.BoundaryRef)
		}
	}

	log.Info("Tiles initialised",
		zap.Int("cols", cols),
		zap.Int("rows", rows),
		zap.Float64("tile_width", size[0]),
		zap.Float64("tile_height", size[1]))
}

// FindTile maps p to a tile index by dividing by the tile size. A point on
// a shared edge resolves to the lower tile. The result is not clamped, so
// callers clamp it to the grid.
func FindTile(ds *navdata.Dataset, p orb.Point) (col, row int) {
	return findAxis(p[0]-ds.Bounds.Min[0], ds.TileSize[0]), findAxis(p[1]-ds.Bounds.Min[1], ds.TileSize[1])
}

func findAxis(v, size float64) int {
	if size <= 0 {
		return 0
	}
	ratio := v / size
	f := math.Floor(ratio)
	if ratio == f {
		f--
	}
	return int(f)
}

// FindTile2 finds the tile of p by scanning tile edges. A point exactly on
// a shared edge is nudged into the lower tile, which moves p. Points past
// the grid resolve to the last tile.
func FindTile2(ds *navdata.Dataset, p *orb.Point) (col, row int) {
	col, row = ds.NumCols-1, ds.NumRows-1
	for i := 0; i < ds.NumCols; i++ {
		max := ds.Tiles[i][0].Bound.Max[0]
		if p[0] <= max {
			if p[0] == max && i != ds.NumCols-1 {
				p[0] -= nudge
			}
			col = i
			break
		}
	}
	for j := 0; j < ds.NumRows; j++ {
		max := ds.Tiles[0][j].Bound.Max[1]
		if p[1] <= max {
			if p[1] == max && j != ds.NumRows-1 {
				p[1] -= nudge
			}
			row = j
			break
		}
	}
	return col, row
}

const nudge = 1e-7

func clampTile(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n-1 {
		return n - 1
	}
	return v
}
