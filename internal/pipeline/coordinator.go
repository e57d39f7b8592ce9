// Package pipeline runs the preparation stages in order over one dataset.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/config"
	"github.com/wegman-software/navtiles-go/internal/export"
	"github.com/wegman-software/navtiles-go/internal/geometry"
	"github.com/wegman-software/navtiles-go/internal/ingest"
	"github.com/wegman-software/navtiles-go/internal/junction"
	"github.com/wegman-software/navtiles-go/internal/labels"
	"github.com/wegman-software/navtiles-go/internal/logger"
	"github.com/wegman-software/navtiles-go/internal/metrics"
	"github.com/wegman-software/navtiles-go/internal/navdata"
	"github.com/wegman-software/navtiles-go/internal/proj"
	"github.com/wegman-software/navtiles-go/internal/route"
	"github.com/wegman-software/navtiles-go/internal/style"
	"github.com/wegman-software/navtiles-go/internal/texstitch"
	"github.com/wegman-software/navtiles-go/internal/tiling"
)

// Stage is one named step of the pipeline
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// StageStats records how a stage went
type StageStats struct {
	Name     string
	Duration time.Duration
	RSSMB    float64
}

// Stats holds the report of a full run
type Stats struct {
	Input     ingest.Stats
	Stages    []StageStats
	Dataset   navdata.Stats
	Tiling    tiling.Stats
	Junctions texstitch.JunctionStats
	Export    export.Stats
	Total     time.Duration
	PeakRSSMB float64
}

// Coordinator owns the dataset and runs the stages over it
type Coordinator struct {
	cfg        *config.Config
	log        *zap.Logger
	classifier *style.Classifier
	checker    *navdata.Checker
	sampler    *metrics.Sampler

	ds    *navdata.Dataset
	dim   orb.Point
	stats Stats
}

// NewCoordinator validates cfg and loads the style table.
func NewCoordinator(cfg *config.Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	styleCfg := style.DefaultConfig()
	if cfg.StyleFile != "" {
		loaded, err := style.LoadConfig(cfg.StyleFile)
		if err != nil {
			return nil, err
		}
		styleCfg = loaded
	}

	log := logger.Named("pipeline")
	return &Coordinator{
		cfg:        cfg,
		log:        log,
		classifier: style.NewClassifier(styleCfg),
		checker:    navdata.NewChecker(cfg.StrictInvariants, logger.Named("invariants")),
		sampler:    metrics.NewSampler(cfg.MetricsInterval, logger.Named("metrics")),
	}, nil
}

// Dataset returns the dataset built by the last run, or nil.
func (c *Coordinator) Dataset() *navdata.Dataset {
	return c.ds
}

// Stages returns the preparation stages in the order they must run.
func (c *Coordinator) Stages() []Stage {
	variant := c.cfg.MapVariant()
	return []Stage{
		{"ingest", c.ingest},
		{"tiles.init", func(ctx context.Context) error {
			scale := tiling.ScaleFor(variant)
			if c.cfg.TileScale > 0 {
				scale = orb.Point{c.cfg.TileScale, c.cfg.TileScale}
			}
			tiling.InitTiles(c.ds, scale, logger.Named("tiling"))
			c.dim = proj.MapWorldDimensions(c.ds.MinLonLat, c.ds.MaxLonLat, c.ds.Bounds.Max)
			c.ds.MapWorldDim = c.dim
			return nil
		}},
		{"route.calculate", func(ctx context.Context) error {
			route.Calculate(c.ds, logger.Named("route"))
			return nil
		}},
		{"roads.triangulate", func(ctx context.Context) error {
			geometry.TriangulateAllRoads(c.ds, logger.Named("geometry"))
			return nil
		}},
		{"junctions.resolve", func(ctx context.Context) error {
			return junction.NewResolver(c.ds, c.checker, logger.Named("junction")).Resolve()
		}},
		{"roads.convert", func(ctx context.Context) error {
			geometry.ConvertToTriangleList(c.ds, logger.Named("geometry"))
			return nil
		}},
		{"junctions.stitch", func(ctx context.Context) error {
			c.stats.Junctions = texstitch.Junctions(c.ds, logger.Named("texstitch"))
			return nil
		}},
		{"labels.process", func(ctx context.Context) error {
			labels.Process(c.ds, c.labelExtent(), logger.Named("labels"))
			return nil
		}},
		{"tiles.sort", func(ctx context.Context) error {
			st, err := tiling.Sort(c.ds, c.checker, logger.Named("tiling"))
			c.stats.Tiling = st
			return err
		}},
		{"boundaries.stitch", func(ctx context.Context) error {
			texstitch.Boundaries(c.ds, logger.Named("texstitch"))
			return nil
		}},
		{"tiles.buffers", func(ctx context.Context) error {
			tiling.BuildBuffers(c.ds, logger.Named("tiling"))
			return nil
		}},
		{"route.convert", func(ctx context.Context) error {
			route.Convert(c.ds, c.dim, logger.Named("route"))
			return nil
		}},
		{"tiles.remap", func(ctx context.Context) error {
			tiling.RemapItems(c.ds, c.dim, logger.Named("tiling"))
			return nil
		}},
		{"dataset.clean", func(ctx context.Context) error {
			c.stats.Dataset = c.ds.Stats()
			c.ds.Clean()
			return nil
		}},
	}
}

// labelExtent is the extent labels are oriented in. The 3D build orients
// them on screen.
func (c *Coordinator) labelExtent() orb.Point {
	if c.cfg.MapVariant() == navdata.Variant3D {
		vp := c.cfg.Viewport()
		return orb.Point{vp[0], vp[1]}
	}
	return c.dim
}

func (c *Coordinator) ingest(ctx context.Context) error {
	log := logger.Named("ingest")
	if fi, err := os.Stat(c.cfg.InputFile); err == nil {
		log.Info("Reading input",
			zap.String("file", c.cfg.InputFile),
			zap.String("size", FormatBytes(fi.Size())))
	}

	began := time.Now()
	doc, readStats, err := ingest.Open(ctx, c.cfg.InputFile)
	c.stats.Input = readStats
	if err != nil {
		return err
	}
	if secs := time.Since(began).Seconds(); secs > 0 {
		elements := readStats.Nodes + readStats.Ways + readStats.Relations
		log.Info("Input read",
			zap.Int64("elements", elements),
			zap.String("rate", FormatThroughput(float64(elements)/secs)))
	}
	if b := c.cfg.BBox.Bounds(); b != nil {
		doc.Bounds = b
	}

	ds, err := ingest.NewBuilder(c.classifier, c.cfg.MapVariant(), log).Build(doc)
	if err != nil {
		return err
	}
	c.ds = ds
	return nil
}

// Run executes every stage in order and then writes the enabled outputs.
// The context is only checked between stages.
func (c *Coordinator) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	c.stats = Stats{}

	if c.cfg.MetricsInterval > 0 {
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()
		go c.sampler.Start(metricsCtx)
		c.log.Info("System metrics collection started",
			zap.Duration("interval", c.cfg.MetricsInterval))
	}

	if err := c.runStages(ctx, c.Stages()); err != nil {
		return nil, err
	}

	if c.cfg.WriteParquet || c.cfg.WriteGeoJSON {
		ex := export.New(c.ds, export.Options{
			OutputDir: c.cfg.OutputDir,
			Parquet:   c.cfg.WriteParquet,
			GeoJSON:   c.cfg.WriteGeoJSON,
			BatchSize: c.cfg.BatchSize,
			Workers:   c.cfg.Workers,
		}, logger.Named("export"))
		st, err := ex.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("stage export: %w", err)
		}
		c.stats.Export = st
	}

	c.stats.Total = time.Since(start)
	c.stats.PeakRSSMB = c.sampler.PeakRSSMB()
	c.report()
	stats := c.stats
	return &stats, nil
}

// Inspect runs the ingest stage only and returns the dataset statistics.
func (c *Coordinator) Inspect(ctx context.Context) (*Stats, error) {
	start := time.Now()
	c.stats = Stats{}
	if err := c.runStages(ctx, c.Stages()[:1]); err != nil {
		return nil, err
	}
	c.stats.Dataset = c.ds.Stats()
	c.stats.Total = time.Since(start)
	stats := c.stats
	return &stats, nil
}

func (c *Coordinator) runStages(ctx context.Context, stages []Stage) error {
	tracker := NewProgressTracker(len(stages))
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
		began := time.Now()
		if err := st.Run(ctx); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
		sample := c.sampler.Sample()
		c.stats.Stages = append(c.stats.Stages, StageStats{
			Name:     st.Name,
			Duration: time.Since(began),
			RSSMB:    sample.RSSMB,
		})

		p := tracker.Advance(st.Name)
		c.log.Info("Stage complete",
			zap.String("stage", st.Name),
			zap.Duration("took", time.Since(began)),
			zap.String("rss", metrics.FormatMB(sample.RSSMB)),
			zap.String("progress", fmt.Sprintf("%.0f%%", p.Percentage)),
			zap.String("eta", FormatETA(p.ETA)))
	}
	return nil
}

func (c *Coordinator) report() {
	s := c.stats
	c.log.Info("Preparation complete",
		zap.Duration("total", s.Total),
		zap.Int64("input_nodes", s.Input.Nodes),
		zap.Int64("input_ways", s.Input.Ways),
		zap.Int("tiles", s.Dataset.Tiles),
		zap.Int("triangles", s.Dataset.Triangles),
		zap.Int("route_points", s.Dataset.RoutePoints),
		zap.Int("clip_splits", s.Tiling.Splits),
		zap.Int("junction_tees", s.Junctions.Tees),
		zap.Int("junction_crossroads", s.Junctions.Crossroads),
		zap.Int64("tile_rows", s.Export.TileRows),
		zap.Int64("label_rows", s.Export.LabelRows),
		zap.String("peak_rss", metrics.FormatMB(s.PeakRSSMB)))
}
