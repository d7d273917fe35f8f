package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the settings for one conversion run.
type Config struct {
	// Input settings
	InputFile string

	// Output settings
	OutputPath string // Final .osmpkg archive path
	WorkDir    string // Directory for intermediate per-table Parquet files
	Overwrite  bool

	// Processing settings
	BatchSize int // Rows per Parquet row group

	// UI and logging
	ShowProgress    bool
	Verbose         bool
	LogFile         string        // Path to log file (empty = no file logging)
	MetricsInterval time.Duration // Interval for system metrics logging (0 = off)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       500_000,
		ShowProgress:    true,
		MetricsInterval: 30 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}

// DefaultOutputPath derives the .osmpkg path for a PBF input:
// "berlin.osm.pbf" becomes "berlin.osmpkg".
func DefaultOutputPath(input string) string {
	if out, found := strings.CutSuffix(input, ".osm.pbf"); found {
		return out + ".osmpkg"
	}
	if i := strings.LastIndex(input, "."); i > strings.LastIndex(input, "/") {
		return input[:i] + ".osmpkg"
	}
	return input + ".osmpkg"
}
