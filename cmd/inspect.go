package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wegman-software/navtiles-go/internal/logger"
	"github.com/wegman-software/navtiles-go/internal/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.osm>",
	Short: "Parse an extract and print its table sizes",
	Long: `Parse an OSM XML extract without running the later stages and print what
the parser kept: nodes, roads, areas, intersections and label candidates.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindCommandFlags,
	Run:     runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addMapFlags(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	defer logger.Sync()

	cfg, err := loadConfig(args[0])
	if err != nil {
		exitWithError("invalid configuration", err)
	}
	cfg.MetricsInterval = 0

	coordinator, err := pipeline.NewCoordinator(cfg)
	if err != nil {
		exitWithError("failed to create pipeline", err)
	}
	stats, err := coordinator.Inspect(context.Background())
	if err != nil {
		exitWithError("inspect failed", err)
	}

	ds := coordinator.Dataset()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "input\t%s\n", cfg.InputFile)
	fmt.Fprintf(w, "bounds\t%.5f,%.5f,%.5f,%.5f\n", ds.MinLonLat[0], ds.MinLonLat[1], ds.MaxLonLat[0], ds.MaxLonLat[1])
	fmt.Fprintf(w, "nodes read\t%d\n", stats.Input.Nodes)
	fmt.Fprintf(w, "ways read\t%d\n", stats.Input.Ways)
	fmt.Fprintf(w, "relations read\t%d\n", stats.Input.Relations)
	fmt.Fprintf(w, "nodes kept\t%d\n", stats.Dataset.Nodes)
	fmt.Fprintf(w, "road ways\t%d\n", stats.Dataset.RoadWays)
	fmt.Fprintf(w, "parking ways\t%d\n", stats.Dataset.ParkingWays)
	fmt.Fprintf(w, "building ways\t%d\n", stats.Dataset.BuildWays)
	fmt.Fprintf(w, "intersections\t%d\n", stats.Dataset.Intersections)
	fmt.Fprintf(w, "label candidates\t%d\n", stats.Dataset.Labels)
	fmt.Fprintf(w, "icons\t%d\n", stats.Dataset.Icons)
	if err := w.Flush(); err != nil {
		exitWithError("failed to write report", err)
	}
}
