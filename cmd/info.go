package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
	"github.com/wegman-software/osmpkg-go/internal/schema"
)

var infoCmd = &cobra.Command{
	Use:   "info <package.osmpkg>",
	Short: "Print per-table row counts of an .osmpkg package",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	pkg, err := osmpkg.Load(args[0], log)
	if err != nil {
		exitWithError("failed to load package", err)
	}

	counts := pkg.Counts()
	fmt.Println(pkg)
	for _, table := range schema.TableNames {
		fmt.Printf("  %-14s %d rows\n", table, counts[table])
	}
}
