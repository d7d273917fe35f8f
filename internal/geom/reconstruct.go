// Package geom reconstructs way geometries from the normalized segment
// table of a loaded package.
package geom

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"github.com/wegman-software/osmpkg-go/internal/nodeindex"
	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
)

// mmapThreshold is the node count above which reconstruction spills the
// coordinate lookup to a memory-mapped file instead of a Go map.
const mmapThreshold = 20_000_000

// ReconstructWays joins each segment's endpoints to node coordinates and
// merges same-id segments into one geometry per way. A segment with
// either endpoint missing from the coordinate source is dropped; a line
// cannot be drawn without both ends. Segments that stay connected form a
// LineString, disjoint runs form a MultiLineString, and a way whose
// segments all dropped is omitted.
func ReconstructWays(segments []osmpkg.SegmentRow, coords nodeindex.CoordSource) map[int64]orb.Geometry {
	grouped := make(map[int64][]osmpkg.SegmentRow)
	for _, s := range segments {
		grouped[s.WayID] = append(grouped[s.WayID], s)
	}

	out := make(map[int64]orb.Geometry, len(grouped))
	for wayID, segs := range grouped {
		var parts []orb.LineString
		var cur orb.LineString
		var lastV int64
		open := false

		for _, s := range segs {
			uLat, uLon, uOK := coords.Get(s.U)
			vLat, vLon, vOK := coords.Get(s.V)
			if !uOK || !vOK {
				if len(cur) >= 2 {
					parts = append(parts, cur)
				}
				cur = nil
				open = false
				continue
			}

			if open && s.U == lastV {
				cur = append(cur, orb.Point{vLon, vLat})
			} else {
				if len(cur) >= 2 {
					parts = append(parts, cur)
				}
				cur = orb.LineString{{uLon, uLat}, {vLon, vLat}}
			}
			lastV = s.V
			open = true
		}
		if len(cur) >= 2 {
			parts = append(parts, cur)
		}

		switch len(parts) {
		case 0:
		case 1:
			out[wayID] = parts[0]
		default:
			out[wayID] = orb.MultiLineString(parts)
		}
	}
	return out
}

// Reconstruct builds geometries for every way in the package. It needs
// both the way and node tables; either one absent is a
// missing-dependency error, not an empty result.
func Reconstruct(p *osmpkg.Package) (map[int64]orb.Geometry, error) {
	if p.Ways == nil {
		return nil, fmt.Errorf("%w: way", osmpkg.ErrMissingTable)
	}
	if p.Nodes == nil {
		return nil, fmt.Errorf("%w: node", osmpkg.ErrMissingTable)
	}

	if len(p.Nodes) < mmapThreshold {
		idx := nodeindex.NewMapIndex(len(p.Nodes))
		for _, n := range p.Nodes {
			idx.Put(n.ID, n.Lat, n.Lon)
		}
		return ReconstructWays(p.Ways, idx), nil
	}

	dir, err := os.MkdirTemp("", "osmpkg-nodeindex-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	var maxID int64
	for _, n := range p.Nodes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	idx, err := nodeindex.CreateMmapIndex(filepath.Join(dir, "node_index.bin"), maxID)
	if err != nil {
		return nil, err
	}
	defer idx.Close()
	for _, n := range p.Nodes {
		idx.Put(n.ID, n.Lat, n.Lon)
	}

	return ReconstructWays(p.Ways, idx), nil
}
