// Package export writes a prepared dataset to disk.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/navtiles-go/internal/labels"
	"github.com/wegman-software/navtiles-go/internal/navdata"
	"github.com/wegman-software/navtiles-go/internal/parquet"
	"github.com/wegman-software/navtiles-go/internal/wkb"
)

// File names written into the output directory
const (
	TilesFile   = "tiles.parquet"
	LabelsFile  = "labels.parquet"
	GeoJSONFile = "map.geojson"
)

// Options selects the outputs to write
type Options struct {
	OutputDir string
	Parquet   bool
	GeoJSON   bool
	BatchSize int
	Workers   int
}

// Stats counts what was written
type Stats struct {
	TileRows  int64
	LabelRows int64
	Culled    int64
	Features  int64
}

// Exporter writes the outputs of a finished dataset. The dataset must not
// change while Run is in progress.
type Exporter struct {
	ds   *navdata.Dataset
	opts Options
	log  *zap.Logger
}

// New creates an exporter
func New(ds *navdata.Dataset, opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Exporter{ds: ds, opts: opts, log: log}
}

// Run writes every selected output concurrently.
func (e *Exporter) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	var tileRows, labelRows, culled, features atomic.Int64
	if e.opts.Parquet {
		g.Go(func() error {
			n, err := e.writeTiles(gctx, filepath.Join(e.opts.OutputDir, TilesFile))
			if err != nil {
				return fmt.Errorf("tiles export failed: %w", err)
			}
			tileRows.Store(n)
			return nil
		})
		g.Go(func() error {
			n, c, err := e.writeLabels(gctx, filepath.Join(e.opts.OutputDir, LabelsFile))
			if err != nil {
				return fmt.Errorf("labels export failed: %w", err)
			}
			labelRows.Store(n)
			culled.Store(c)
			return nil
		})
	}
	if e.opts.GeoJSON {
		g.Go(func() error {
			n, err := WriteGeoJSON(e.ds, filepath.Join(e.opts.OutputDir, GeoJSONFile))
			if err != nil {
				return fmt.Errorf("geojson export failed: %w", err)
			}
			features.Store(n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats = Stats{
		TileRows:  tileRows.Load(),
		LabelRows: labelRows.Load(),
		Culled:    culled.Load(),
		Features:  features.Load(),
	}
	e.log.Info("Export complete",
		zap.String("dir", e.opts.OutputDir),
		zap.Int64("tile_rows", stats.TileRows),
		zap.Int64("label_rows", stats.LabelRows),
		zap.Int64("culled", stats.Culled),
		zap.Int64("features", stats.Features))
	return stats, nil
}

// tileLists pairs each way list of a tile with its category name
func tileLists(t *navdata.Tile) []struct {
	category string
	ways     []*navdata.ConvertedWay
} {
	return []struct {
		category string
		ways     []*navdata.ConvertedWay
	}{
		{navdata.WayParking.String(), t.ParkingWays},
		{navdata.WayBuilding.String(), t.BuildWays},
		{navdata.WayInner.String(), t.InnerWays},
		{"area", t.AreaWays},
		{navdata.WayRoad.String(), t.RoadWays},
	}
}

func (e *Exporter) writeTiles(ctx context.Context, path string) (int64, error) {
	w, err := parquet.NewTileWriter(path, e.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	enc := wkb.NewEncoder(128)

	var werr error
	e.ds.EachTile(func(t *navdata.Tile) {
		if werr != nil {
			return
		}
		if werr = ctx.Err(); werr != nil {
			return
		}
		for _, list := range tileLists(t) {
			for _, way := range list.ways {
				for _, tri := range way.Triangles {
					a, b, c := t.Nodes[tri[0]], t.Nodes[tri[1]], t.Nodes[tri[2]]
					if a == nil || b == nil || c == nil {
						continue
					}
					row := parquet.TileRow{
						Col:      int32(t.Col),
						Row:      int32(t.Row),
						Category: list.category,
						RoadType: way.RoadType.String(),
						WayID:    int64(way.ID),
						GeomWKB:  append([]byte(nil), enc.EncodeTriangle(a.Coords, b.Coords, c.Coords)...),
					}
					if werr = w.Write(row); werr != nil {
						return
					}
				}
			}
		}
	})
	if werr != nil {
		w.Close()
		return 0, werr
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Rows(), nil
}

// writeLabels writes every placed label and icon in draw order. The
// culled column records what an overlap culler fed in that order hides.
func (e *Exporter) writeLabels(ctx context.Context, path string) (int64, int64, error) {
	w, err := parquet.NewLabelWriter(path, e.opts.BatchSize)
	if err != nil {
		return 0, 0, err
	}

	var culled int64
	var werr error
	write := func(r parquet.LabelRow) {
		if werr == nil {
			werr = w.Write(r)
			if r.Culled {
				culled++
			}
		}
	}

	e.ds.EachTile(func(t *navdata.Tile) {
		if werr != nil {
			return
		}
		if werr = ctx.Err(); werr != nil {
			return
		}
		culler := labels.NewCuller()
		col, row := int32(t.Col), int32(t.Row)
		for lod := 0; lod < navdata.LODCount; lod++ {
			for i := range t.Labels[lod] {
				l := &t.Labels[lod][i]
				write(parquet.LabelRow{
					Col: col, Row: row, LOD: int32(lod),
					Kind: "label", Name: l.Text,
					X: l.Coords[0], Y: l.Coords[1],
					Rotation: l.Rotation, Scale: l.Scale,
					Culled: culler.SkipLabel(l, labels.TextWidth(l.Text, l.Scale)),
				})
			}
			for i := range t.AmenityLabels[lod] {
				l := &t.AmenityLabels[lod][i]
				write(parquet.LabelRow{
					Col: col, Row: row, LOD: int32(lod),
					Kind: "amenity", Name: l.Text,
					X: l.Coords[0], Y: l.Coords[1],
					Rotation: l.Rotation, Scale: l.Scale,
					Culled: culler.SkipAmenityLabel(l, labels.TextWidth(l.Text, l.Scale)),
				})
			}
			for _, ic := range t.Icons[lod] {
				write(parquet.LabelRow{
					Col: col, Row: row, LOD: int32(lod),
					Kind: "icon", Name: ic.Type.String(),
					X: ic.Coords[0], Y: ic.Coords[1],
					Scale: ic.Scale,
				})
			}
		}
	})
	if werr != nil {
		w.Close()
		return 0, 0, werr
	}
	if err := w.Close(); err != nil {
		return 0, 0, err
	}
	return w.Rows(), culled, nil
}
