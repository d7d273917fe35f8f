// Package pbf turns an OSM PBF stream into the normalized osmpkg tables.
// The conversion is a single sequential pass: the decoder hands over one
// primitive at a time and the converter routes its rows into the batched
// per-table writers. Peak memory is bounded by the writer batch size, not
// by the input file.
package pbf

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpkg-go/internal/config"
	"github.com/wegman-software/osmpkg-go/internal/parquet"
	"github.com/wegman-software/osmpkg-go/internal/schema"
)

// Stats holds conversion statistics.
type Stats struct {
	Nodes     int64
	Ways      int64
	Relations int64

	Segments int64
	Members  int64
	Tags     int64

	SkippedNodes int64 // nodes without a valid location
	SkippedWays  int64 // ways with fewer than 2 node refs

	BytesRead int64
}

// Converter decomposes nodes, ways and relations into the six osmpkg
// tables. It is not safe for concurrent use; the whole conversion runs on
// one goroutine.
type Converter struct {
	cfg *config.Config
	log *zap.Logger

	nodes     *parquet.PairWriter
	ways      *parquet.PairWriter
	relations *parquet.PairWriter

	stats  Stats
	closed bool
}

// NewConverter creates the per-table writers in cfg.WorkDir. sink may be
// nil; it receives bounded-frequency counts for the three primitive kinds.
func NewConverter(cfg *config.Config, log *zap.Logger, sink parquet.ProgressSink) (*Converter, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	c := &Converter{cfg: cfg, log: log}

	var err error
	if c.nodes, err = parquet.NewPairWriter(cfg.WorkDir, schema.TableNode, cfg.BatchSize, sink, "nodes"); err != nil {
		return nil, err
	}
	if c.ways, err = parquet.NewPairWriter(cfg.WorkDir, schema.TableWay, cfg.BatchSize, sink, "ways"); err != nil {
		c.nodes.Close()
		return nil, err
	}
	if c.relations, err = parquet.NewPairWriter(cfg.WorkDir, schema.TableRelation, cfg.BatchSize, sink, "relations"); err != nil {
		c.nodes.Close()
		c.ways.Close()
		return nil, err
	}

	return c, nil
}

// HandleNode emits one primary row and one tag row per tag. Nodes without
// a valid location are dropped along with their tags.
func (c *Converter) HandleNode(n *osm.Node) error {
	if !validLocation(n.Lat, n.Lon) {
		c.stats.SkippedNodes++
		c.log.Debug("skipping node without valid location", zap.Int64("id", int64(n.ID)))
		return nil
	}

	if err := c.nodes.AddPrimary(int64(n.ID), n.Lon, n.Lat); err != nil {
		return err
	}
	for _, tag := range n.Tags {
		if err := c.nodes.AddTag(int64(n.ID), tag.Key, tag.Value); err != nil {
			return err
		}
		c.stats.Tags++
	}

	c.stats.Nodes++
	return nil
}

// HandleWay emits one segment row per consecutive node pair, preserving
// traversal order. Ways with fewer than 2 node refs produce nothing, tags
// included.
func (c *Converter) HandleWay(w *osm.Way) error {
	if len(w.Nodes) < 2 {
		c.stats.SkippedWays++
		c.log.Debug("skipping degenerate way", zap.Int64("id", int64(w.ID)), zap.Int("node_refs", len(w.Nodes)))
		return nil
	}

	for i := 0; i+1 < len(w.Nodes); i++ {
		if err := c.ways.AddPrimary(int64(w.ID), int64(w.Nodes[i].ID), int64(w.Nodes[i+1].ID)); err != nil {
			return err
		}
		c.stats.Segments++
	}
	for _, tag := range w.Tags {
		if err := c.ways.AddTag(int64(w.ID), tag.Key, tag.Value); err != nil {
			return err
		}
		c.stats.Tags++
	}

	c.stats.Ways++
	return nil
}

// HandleRelation emits one member row per member in original order.
// Relations are never filtered by cardinality; a zero-member relation
// legally emits no member rows but keeps its tags.
func (c *Converter) HandleRelation(r *osm.Relation) error {
	for _, m := range r.Members {
		if err := c.relations.AddPrimary(int64(r.ID), m.Ref, string(m.Type), m.Role); err != nil {
			return err
		}
		c.stats.Members++
	}
	for _, tag := range r.Tags {
		if err := c.relations.AddTag(int64(r.ID), tag.Key, tag.Value); err != nil {
			return err
		}
		c.stats.Tags++
	}

	c.stats.Relations++
	return nil
}

// Run streams the PBF file through the handler and seals the writers. On
// a decode error the per-table files in the work directory are incomplete
// and must be discarded by the caller; no archive may be built from them.
func (c *Converter) Run(ctx context.Context, input string) (*Stats, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	c.stats.BytesRead = info.Size()

	// Decoding is parallel inside the scanner; handling stays on this
	// goroutine so writer state needs no locking.
	scanner := osmpbf.New(ctx, f, runtime.NumCPU())
	defer scanner.Close()

	for scanner.Scan() {
		var err error
		switch o := scanner.Object().(type) {
		case *osm.Node:
			err = c.HandleNode(o)
		case *osm.Way:
			err = c.HandleWay(o)
		case *osm.Relation:
			err = c.HandleRelation(o)
		}
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		c.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", input, err)
	}

	if err := c.Close(); err != nil {
		return nil, err
	}

	return &c.stats, nil
}

// Stats returns the counts accumulated so far.
func (c *Converter) Stats() Stats {
	return c.stats
}

// Close flushes and seals all six table writers. Tables that stayed empty
// leave no file behind.
func (c *Converter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.nodes.Close()
	if err2 := c.ways.Close(); err == nil {
		err = err2
	}
	if err2 := c.relations.Close(); err == nil {
		err = err2
	}
	return err
}

// validLocation reports whether lat/lon form a usable WGS84 coordinate.
// The decoder yields NaN for nodes whose location block is absent.
func validLocation(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
