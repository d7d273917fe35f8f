package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmpkg-go/internal/osmium"
)

var (
	filterForce      bool
	filterNoProgress bool
	filterSuffix     string
	filterPreset     string
	filterTags       []string
)

var filterCmd = &cobra.Command{
	Use:   "filter <input.osm.pbf>",
	Short: "Filter a PBF extract by tags using the external osmium tool",
	Long: `Invoke "osmium tags-filter" to cut an extract down to matching
primitives before conversion. With no --tag or --preset the railway
preset is used.

If the output file already exists the run is skipped unless --force is
given; the existing path is reported unchanged.`,
	Args: cobra.ExactArgs(1),
	Run:  runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().BoolVar(&filterForce, "force", false, "Overwrite an existing output file")
	filterCmd.Flags().BoolVar(&filterNoProgress, "no-progress", false, "Hide osmium's progress bar")
	filterCmd.Flags().StringVar(&filterSuffix, "suffix", "", "Suffix for the output file name")
	filterCmd.Flags().StringVar(&filterPreset, "preset", "", "YAML preset file with suffix and tag expressions")
	filterCmd.Flags().StringArrayVar(&filterTags, "tag", nil, "osmium filter expression (repeatable)")
}

func runFilter(cmd *cobra.Command, args []string) {
	if !osmium.Installed() {
		exitWithError("osmium is not installed or not on PATH", nil)
	}

	opts := osmium.Options{
		Input:    args[0],
		Tags:     filterTags,
		Suffix:   filterSuffix,
		Force:    filterForce,
		Progress: !filterNoProgress,
	}

	if filterPreset != "" {
		preset, err := osmium.LoadPreset(filterPreset)
		if err != nil {
			exitWithError("failed to load preset", err)
		}
		if len(opts.Tags) == 0 {
			opts.Tags = preset.Tags
		}
		if opts.Suffix == "" {
			opts.Suffix = preset.Suffix
		}
	}

	out, err := osmium.TagsFilter(context.Background(), log, opts)
	if err != nil {
		exitWithError("filter failed", err)
	}

	log.Info("Filter complete", zap.String("output", out))
}
