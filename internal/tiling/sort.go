package tiling

import (
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/geometry"
	"github.com/wegman-software/navtiles-go/internal/navdata"
)

// Sort distributes every converted road, label, icon, parking lot and
// building over the tile grid. Inner ways of multipolygons are inserted
// last so they draw over their outer ways.
//
// Running Sort again on the same dataset first discards the tiles and the
// clip vertices of the previous run, so the result is identical.
func Sort(ds *navdata.Dataset, checker *navdata.Checker, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ds.MarkTiling()
	resetTiles(ds)

	c := NewClipper(ds, checker, log)

	for _, id := range navdata.SortedWayIDs(ds.ConvertedRoads) {
		cw := ds.ConvertedRoads[id]
		header := cw.Way
		for _, tri := range cw.Triangles {
			f, ok := faceOf(ds, tri)
			if !ok {
				log.Debug("Skipping triangle with missing node", zap.Int64("way_id", int64(id)))
				continue
			}
			if err := c.ClipTriangle(f, &header); err != nil {
				return c.Stats(), err
			}
		}
	}
	roads := c.Stats().Inserted

	placed := 0
	for lod := navdata.L0; lod < navdata.LODCount; lod++ {
		placed += FillLabelTiles(ds, lod)
		placed += FillIconTiles(ds, lod)
		placed += FillAmenityTiles(ds, lod)
	}

	var inner []*navdata.Way
	for _, table := range []map[navdata.WayID]*navdata.Way{ds.ParkingWays, ds.BuildWays} {
		for _, id := range navdata.SortedWayIDs(table) {
			w := table[id]
			if w.Inner {
				inner = append(inner, w)
				continue
			}
			if err := clipPolygon(ds, c, w, *w, log); err != nil {
				return c.Stats(), err
			}
		}
	}
	for _, w := range inner {
		header := *w
		header.Type = navdata.WayInner
		if err := clipPolygon(ds, c, w, header, log); err != nil {
			return c.Stats(), err
		}
	}

	st := c.Stats()
	log.Info("Tiles sorted",
		zap.Int("faces", st.Faces),
		zap.Int("road_triangles", roads),
		zap.Int("inserted", st.Inserted),
		zap.Int("degenerate", st.Degenerate),
		zap.Int("splits", st.Splits),
		zap.Int("inner_ways", len(inner)),
		zap.Int("placements", placed))
	return st, nil
}

// clipPolygon ear-clips the outline of w and clips each triangle under
// the given way header.
func clipPolygon(ds *navdata.Dataset, c *Clipper, w *navdata.Way, header navdata.Way, log *zap.Logger) error {
	ring := geometry.RewindCCW(ds, w.NodeIDs)
	for _, tri := range geometry.Triangulate(ds, ring, log) {
		f, ok := faceOf(ds, tri)
		if !ok {
			continue
		}
		if err := c.ClipTriangle(f, &header); err != nil {
			return err
		}
	}
	return nil
}

func faceOf(ds *navdata.Dataset, tri navdata.Triangle) (Face, bool) {
	var f Face
	for i, id := range tri {
		n := ds.Nodes[id]
		if n == nil {
			return f, false
		}
		f[i] = *n
	}
	return f, true
}

func resetTiles(ds *navdata.Dataset) {
	ds.EachTile(func(t *navdata.Tile) {
		fresh := navdata.NewTile(t.Col, t.Row, t.Bound)
		fresh.ScreenMin, fresh.ScreenMax = t.ScreenMin, t.ScreenMax
		*t = *fresh
		ds.BoundaryNodes[t.Col][t.Row] = make(map[navdata.WayID]*navdata.BoundaryRef)
	})
}
