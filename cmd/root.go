package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmpkg-go/internal/config"
	"github.com/wegman-software/osmpkg-go/internal/logger"
)

var (
	cfg             = config.DefaultConfig()
	verbose         bool
	logFile         string
	metricsInterval time.Duration
	log             *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "osmpkg",
	Short: "Convert OSM PBF extracts into columnar .osmpkg packages",
	Long: `osmpkg converts OpenStreetMap PBF extracts into .osmpkg packages:
tar archives of zstd-compressed Parquet tables, normalized for tabular
analysis tools.

Tables:
  node.parquet         (id, lon, lat)
  node_tag.parquet     (owner_id, key, value)
  way.parquet          (way_id, u, v) - one row per consecutive node pair
  way_tag.parquet      (owner_id, key, value)
  relation.parquet     (relation_id, ref, type, role)
  relation_tag.parquet (owner_id, key, value)

The conversion is a single streaming pass with bounded memory, so
multi-gigabyte extracts convert without loading the dataset.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.Verbose = verbose
		cfg.LogFile = logFile
		cfg.MetricsInterval = metricsInterval

		log = logger.New(verbose, logFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&metricsInterval, "metrics-interval", 30*time.Second, "Interval for system metrics logging (e.g., 10s, 1m)")
}

func exitWithError(msg string, err error) {
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	log.Sync()
	os.Exit(1)
}
