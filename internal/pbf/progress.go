package pbf

import (
	"fmt"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

// CounterSink accumulates per-kind counts. Updates are plain increments;
// the pipeline is single-threaded so no locking is needed.
type CounterSink struct {
	counts map[string]int64
}

// NewCounterSink creates an empty counter sink.
func NewCounterSink() *CounterSink {
	return &CounterSink{counts: make(map[string]int64)}
}

// Report adds delta to the named counter.
func (s *CounterSink) Report(kind string, delta int64) {
	s.counts[kind] += delta
}

// Count returns the accumulated total for a kind.
func (s *CounterSink) Count(kind string) int64 {
	return s.counts[kind]
}

// barKinds fixes the display order of the terminal counters.
var barKinds = []string{"nodes", "ways", "relations"}

// BarSink renders an indeterminate terminal progress bar whose
// description carries the per-kind totals.
type BarSink struct {
	bar    *progressbar.ProgressBar
	counts map[string]int64
}

// NewBarSink creates the terminal progress bar.
func NewBarSink() *BarSink {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("converting..."),
	)
	return &BarSink{
		bar:    bar,
		counts: make(map[string]int64),
	}
}

// Report updates the counter and redraws the bar. Writers already bound
// the call frequency, so redrawing here is cheap enough.
func (s *BarSink) Report(kind string, delta int64) {
	s.counts[kind] += delta
	s.bar.Describe(s.describe())
	s.bar.Add64(delta)
}

func (s *BarSink) describe() string {
	parts := make([]string, 0, len(barKinds))
	for _, kind := range barKinds {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, s.counts[kind]))
	}
	return strings.Join(parts, ", ")
}

// Finish completes the bar and moves the cursor to a fresh line.
func (s *BarSink) Finish() {
	s.bar.Finish()
	fmt.Fprintln(ansi.NewAnsiStdout())
}
