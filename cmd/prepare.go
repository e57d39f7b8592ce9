package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/config"
	"github.com/wegman-software/navtiles-go/internal/logger"
	"github.com/wegman-software/navtiles-go/internal/metrics"
	"github.com/wegman-software/navtiles-go/internal/pipeline"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <input.osm>",
	Short: "Run the full preparation pipeline",
	Long: `Run every preparation stage over an OSM XML extract and write the tiles:

  1. Parse nodes, ways and relations and project them onto the map plane
  2. Plan the route and triangulate the road network
  3. Resolve intersections and stitch junction textures
  4. Place labels, clip everything into tiles and stitch tile boundaries
  5. Write tiles.parquet, labels.parquet and optionally a GeoJSON preview

The input may be gzip-compressed (.osm.gz).`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindCommandFlags,
	Run:     runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	addMapFlags(prepareCmd)
	defaults := config.DefaultConfig()
	prepareCmd.Flags().Int("viewport-width", defaults.ViewportWidth, "Viewport width in pixels")
	prepareCmd.Flags().Int("viewport-height", defaults.ViewportHeight, "Viewport height in pixels")
	prepareCmd.Flags().Bool("parquet", defaults.WriteParquet, "Write tiles and labels as Parquet")
	prepareCmd.Flags().Bool("geojson", defaults.WriteGeoJSON, "Write a GeoJSON preview of the tiles")
	prepareCmd.Flags().Int("batch-size", defaults.BatchSize, "Rows per Parquet row group")
}

// addMapFlags registers the flags shared by every command that reads a map.
func addMapFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().StringP("bbox", "b", "", "Map bounds override: minlon,minlat,maxlon,maxlat")
	cmd.Flags().StringP("style", "S", "", "Style YAML file for tag classification")
	cmd.Flags().String("variant", defaults.Variant, "Map variant (2d or 3d)")
	cmd.Flags().Float64("tile-scale", 0, "Tile size in degrees, 0 uses the variant default")
	cmd.Flags().Bool("strict", defaults.StrictInvariants, "Fail on broken dataset invariants instead of logging them")
}

// bindCommandFlags binds the running command's flags so that only one
// command owns a viper key at a time.
func bindCommandFlags(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

func runPrepare(cmd *cobra.Command, args []string) {
	log := logger.Get()
	defer logger.Sync()

	cfg, err := loadConfig(args[0])
	if err != nil {
		exitWithError("invalid configuration", err)
	}

	// Build log fields
	logFields := []zap.Field{
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.String("variant", cfg.Variant),
		zap.Int("workers", cfg.Workers),
	}
	if cfg.BBox != nil && cfg.BBox.IsSet {
		logFields = append(logFields, zap.String("bbox",
			fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", cfg.BBox.MinLon, cfg.BBox.MinLat, cfg.BBox.MaxLon, cfg.BBox.MaxLat)))
	}
	if cfg.StyleFile != "" {
		logFields = append(logFields, zap.String("style", cfg.StyleFile))
	}
	log.Info("Starting navtiles preparation", logFields...)

	coordinator, err := pipeline.NewCoordinator(cfg)
	if err != nil {
		exitWithError("failed to create pipeline", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := coordinator.Run(ctx)
	if err != nil {
		exitWithError("preparation failed", err)
	}

	log.Info("Preparation finished",
		zap.Duration("total_time", stats.Total.Round(time.Millisecond)),
		zap.Int64("nodes", stats.Input.Nodes),
		zap.Int64("ways", stats.Input.Ways),
		zap.Int("tiles", stats.Dataset.Tiles),
		zap.Int("triangles", stats.Dataset.Triangles),
		zap.Int64("tile_rows", stats.Export.TileRows),
		zap.Int64("label_rows", stats.Export.LabelRows),
		zap.Int64("geojson_features", stats.Export.Features),
		zap.String("peak_rss", metrics.FormatMB(stats.PeakRSSMB)),
	)
}
