package cmd

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmpkg-go/internal/export"
	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <package.osmpkg>",
	Short: "Export an .osmpkg package to GeoJSON or XLSX",
	Long: `Load a package and export it:

  geojson  reconstructed way geometries and tagged nodes as a
           FeatureCollection, tags as feature properties
  xlsx     one worksheet per non-empty table`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "geojson", "Output format: geojson or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default: input with format extension)")
}

func runExport(cmd *cobra.Command, args []string) {
	input := args[0]

	out := exportOutput
	if out == "" {
		out = strings.TrimSuffix(input, ".osmpkg") + "." + exportFormat
	}

	pkg, err := osmpkg.Load(input, log)
	if err != nil {
		exitWithError("failed to load package", err)
	}

	switch exportFormat {
	case "geojson":
		f, err := os.Create(out)
		if err != nil {
			exitWithError("failed to create output file", err)
		}
		if err := export.GeoJSON(pkg, f); err != nil {
			f.Close()
			exitWithError("geojson export failed", err)
		}
		if err := f.Close(); err != nil {
			exitWithError("failed to finish output file", err)
		}
	case "xlsx":
		if err := export.XLSX(pkg, out); err != nil {
			exitWithError("xlsx export failed", err)
		}
	default:
		exitWithError(fmt.Sprintf("unknown export format %q", exportFormat), nil)
	}

	log.Info("Export complete", zap.String("output", out), zap.String("format", exportFormat))
}
