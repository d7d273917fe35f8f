package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmpkg-go/internal/config"
	"github.com/wegman-software/osmpkg-go/internal/metrics"
	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
	"github.com/wegman-software/osmpkg-go/internal/parquet"
	"github.com/wegman-software/osmpkg-go/internal/pbf"
)

var (
	convertForce      bool
	convertNoProgress bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.osm.pbf> [output.osmpkg]",
	Short: "Convert a PBF extract to an .osmpkg package",
	Long: `Stream a PBF file through the converter and bundle the resulting
Parquet tables into an .osmpkg archive.

The output path defaults to the input with its .osm.pbf suffix replaced
by .osmpkg. Intermediate tables are written next to the output and
removed once the archive is sealed; on failure no archive is produced.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per Parquet row group")
	convertCmd.Flags().BoolVar(&convertForce, "force", false, "Overwrite an existing output file")
	convertCmd.Flags().BoolVar(&convertNoProgress, "no-progress", false, "Hide the progress bar")
}

func runConvert(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	cfg.Overwrite = convertForce
	cfg.ShowProgress = !convertNoProgress

	if len(args) > 1 {
		cfg.OutputPath = args[1]
	} else {
		cfg.OutputPath = config.DefaultOutputPath(cfg.InputFile)
	}

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}
	if _, err := os.Stat(cfg.OutputPath); err == nil && !cfg.Overwrite {
		exitWithError(fmt.Sprintf("output %s exists, use --force to overwrite", cfg.OutputPath), nil)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(cfg.OutputPath), ".osmpkg-work-*")
	if err != nil {
		exitWithError("failed to create work directory", err)
	}
	// Partial table files never outlive the run.
	defer os.RemoveAll(workDir)
	cfg.WorkDir = workDir

	log.Info("Starting conversion",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputPath),
		zap.Int("batch_size", cfg.BatchSize),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsInterval > 0 {
		go metrics.NewCollector(cfg.MetricsInterval, log).Start(ctx)
	}

	var sink parquet.ProgressSink
	var bar *pbf.BarSink
	if cfg.ShowProgress {
		bar = pbf.NewBarSink()
		sink = bar
	}

	start := time.Now()

	converter, err := pbf.NewConverter(cfg, log, sink)
	if err != nil {
		exitWithError("failed to create converter", err)
	}

	stats, err := converter.Run(ctx, cfg.InputFile)
	if err != nil {
		exitWithError("conversion failed", err)
	}
	if bar != nil {
		bar.Finish()
	}

	if err := osmpkg.Assemble(workDir, cfg.OutputPath); err != nil {
		exitWithError("failed to assemble package", err)
	}

	elapsed := time.Since(start)

	log.Info("Conversion complete",
		zap.String("output", cfg.OutputPath),
		zap.Duration("duration", elapsed.Round(time.Second)),
		zap.Int64("nodes", stats.Nodes),
		zap.Int64("ways", stats.Ways),
		zap.Int64("relations", stats.Relations),
		zap.Int64("segments", stats.Segments),
		zap.Int64("members", stats.Members),
		zap.Int64("tags", stats.Tags),
		zap.Int64("skipped_nodes", stats.SkippedNodes),
		zap.Int64("skipped_ways", stats.SkippedWays),
		zap.Float64("throughput_mb_s", float64(stats.BytesRead)/(1024*1024)/elapsed.Seconds()),
	)
}
