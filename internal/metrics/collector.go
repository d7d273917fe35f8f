// Package metrics logs system resource usage during long conversions.
package metrics

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Collector periodically samples and logs CPU and memory usage. The
// conversion core is single-threaded and memory-bounded; the collector
// exists to make that visible on real inputs.
type Collector struct {
	interval time.Duration
	log      *zap.Logger
	proc     *process.Process
}

// NewCollector creates a collector logging at the given interval.
func NewCollector(interval time.Duration, log *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}

	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		log:      log,
		proc:     proc,
	}
}

// Start collects until the context is cancelled. Run it on its own
// goroutine.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("metrics collection stopped")
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	fields := make([]zap.Field, 0, 4)

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		fields = append(fields, zap.Float64("cpu_pct", round1(percents[0])))
	}
	if c.proc != nil {
		if p, err := c.proc.CPUPercent(); err == nil {
			fields = append(fields, zap.Float64("proc_cpu_pct", round1(p)))
		}
		if mi, err := c.proc.MemoryInfo(); err == nil {
			fields = append(fields, zap.Float64("proc_rss_gb", round1(float64(mi.RSS)/(1<<30))))
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, zap.Float64("mem_used_pct", round1(vm.UsedPercent)))
	}

	c.log.Info("system metrics", fields...)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
