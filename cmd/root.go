package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wegman-software/navtiles-go/internal/config"
	"github.com/wegman-software/navtiles-go/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "navtiles",
	Short: "Navigation map data preparation",
	Long: `navtiles turns an OpenStreetMap XML extract into render-ready navigation tiles.

Features:
  - Triangulated road ribbons with resolved intersections
  - Tile clipping with boundary texture stitching
  - Route planning along the road graph
  - Label and icon placement per level of detail
  - Parquet and GeoJSON output of the prepared tiles`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger with optional file output
		if logFile := viper.GetString("log-file"); logFile != "" {
			logger.InitWithFile(viper.GetBool("verbose"), logFile)
		} else {
			logger.Init(viper.GetBool("verbose"))
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Get().Debug("Using config file", zap.String("file", used))
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./navtiles.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output-dir", "o", defaults.OutputDir, "Directory for prepared tile output")
	rootCmd.PersistentFlags().IntP("workers", "j", defaults.Workers, "Number of parallel export writers")

	// Logging and metrics flags
	rootCmd.PersistentFlags().String("log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().Duration("metrics-interval", defaults.MetricsInterval, "Interval for system metrics logging, 0 disables")

	for _, name := range []string{"verbose", "output-dir", "workers", "log-file", "metrics-interval"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("navtiles")
	}

	viper.SetEnvPrefix("NAVTILES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing default file is fine, an explicit one must load.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		os.Exit(1)
	}
}

// loadConfig assembles a Config from flags, environment and config file.
// Keys nobody set keep their DefaultConfig value.
func loadConfig(input string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.InputFile = input

	setString(&cfg.LogFile, "log-file")
	setString(&cfg.OutputDir, "output-dir")
	setString(&cfg.StyleFile, "style")
	setString(&cfg.Variant, "variant")
	setInt(&cfg.Workers, "workers")
	setInt(&cfg.ViewportWidth, "viewport-width")
	setInt(&cfg.ViewportHeight, "viewport-height")
	setInt(&cfg.BatchSize, "batch-size")
	setBool(&cfg.Verbose, "verbose")
	setBool(&cfg.StrictInvariants, "strict")
	setBool(&cfg.WriteParquet, "parquet")
	setBool(&cfg.WriteGeoJSON, "geojson")
	if viper.IsSet("tile-scale") {
		cfg.TileScale = viper.GetFloat64("tile-scale")
	}
	if viper.IsSet("metrics-interval") {
		cfg.MetricsInterval = viper.GetDuration("metrics-interval")
	}

	bbox, err := config.ParseBBox(viper.GetString("bbox"))
	if err != nil {
		return nil, fmt.Errorf("invalid bbox: %w", err)
	}
	cfg.BBox = bbox
	return cfg, nil
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
