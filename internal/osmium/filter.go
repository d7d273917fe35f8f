// Package osmium wraps the external `osmium tags-filter` binary. The
// tool's own correctness is its own business; this package only owns the
// calling contract, including skipping the run when the output already
// exists.
package osmium

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultSuffix is appended to the input stem to form the output name.
const DefaultSuffix = "-railway"

// DefaultTags is the railway filter preset the tool originally shipped
// for.
var DefaultTags = []string{
	"nwr/railway",
	"r/route=train",
	"r/route_master=train",
	"r/public_transport",
}

// Options controls one tags-filter invocation.
type Options struct {
	Input    string
	Tags     []string // osmium filter expressions; DefaultTags when empty
	Suffix   string   // output name suffix; DefaultSuffix when empty
	Force    bool     // overwrite an existing output
	Progress bool     // let osmium draw its progress bar
}

// OutputPath derives the filtered file's path:
// "berlin.osm.pbf" + "-railway" -> "berlin-railway.osm.pbf".
func OutputPath(input, suffix string) string {
	dir := filepath.Dir(input)
	stem := filepath.Base(input)
	stem = strings.TrimSuffix(stem, ".pbf")
	stem = strings.TrimSuffix(stem, ".osm")
	return filepath.Join(dir, stem+suffix+".osm.pbf")
}

// TagsFilter runs `osmium tags-filter` on the input file. If the output
// already exists and Force is unset, the run is skipped and the existing
// path returned unchanged.
func TagsFilter(ctx context.Context, log *zap.Logger, opts Options) (string, error) {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if len(opts.Tags) == 0 {
		opts.Tags = DefaultTags
	}

	out := OutputPath(opts.Input, opts.Suffix)
	if _, err := os.Stat(out); err == nil && !opts.Force {
		log.Info("output exists, skipping osmium run",
			zap.String("input", opts.Input),
			zap.String("output", out),
		)
		return out, nil
	}

	args := []string{"tags-filter", opts.Input}
	args = append(args, opts.Tags...)
	args = append(args, "-o", out)
	if opts.Force {
		args = append(args, "--overwrite")
	}
	if opts.Progress {
		args = append(args, "--progress")
	} else {
		args = append(args, "--no-progress")
	}

	log.Info("running osmium", zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, "osmium", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("osmium tags-filter failed: %w", err)
	}

	return out, nil
}

// Installed reports whether the osmium binary is on PATH.
func Installed() bool {
	_, err := exec.LookPath("osmium")
	return err == nil
}

// Preset is a named filter configuration loaded from YAML.
type Preset struct {
	Suffix string   `yaml:"suffix,omitempty"`
	Tags   []string `yaml:"tags"`
}

// LoadPreset reads a filter preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset YAML: %w", err)
	}
	if len(p.Tags) == 0 {
		return nil, fmt.Errorf("preset %s defines no tags", path)
	}

	return &p, nil
}
