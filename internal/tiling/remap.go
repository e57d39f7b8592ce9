package tiling

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geom"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// RemapItems maps tile bounds and every tile's labels and icons from map
// units into screen space centred on the origin with extent dim. Label
// crop distances are rescaled by the ratio of the two extents.
func RemapItems(ds *navdata.Dataset, dim orb.Point, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	grid := ds.GridBound()
	lo := orb.Point{-dim[0] / 2, -dim[1] / 2}
	hi := orb.Point{dim[0] / 2, dim[1] / 2}
	remap := func(p orb.Point) orb.Point { return geom.Remap(p, grid.Min, grid.Max, lo, hi) }

	ratio := 0.0
	if old := geom.Length(grid.Max); old > 0 {
		ratio = geom.Length(dim) / old
	}

	items := 0
	ds.EachTile(func(t *navdata.Tile) {
		t.ScreenMin = remap(t.Bound.Min)
		t.ScreenMax = remap(t.Bound.Max)
		for lod := 0; lod < navdata.LODCount; lod++ {
			for i := range t.Labels[lod] {
				l := &t.Labels[lod][i]
				l.Coords = remap(l.Coords)
				l.DistToBoundary *= ratio
				l.DistToEndOfSegment *= ratio
			}
			for i := range t.AmenityLabels[lod] {
				l := &t.AmenityLabels[lod][i]
				l.Coords = remap(l.Coords)
				l.Icon.Coords = remap(l.Icon.Coords)
			}
			for i := range t.Icons[lod] {
				t.Icons[lod][i].Coords = remap(t.Icons[lod][i].Coords)
			}
			items += len(t.Labels[lod]) + len(t.AmenityLabels[lod]) + len(t.Icons[lod])
		}
	})
	log.Info("Items remapped to screen space",
		zap.Int("items", items),
		zap.Float64("world_width", dim[0]),
		zap.Float64("world_height", dim[1]))
}
