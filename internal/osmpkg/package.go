// Package osmpkg defines the .osmpkg archive format: an uncompressed tar
// container bundling up to six zstd-compressed Parquet tables, and the
// in-memory representation produced when one is loaded back.
package osmpkg

import (
	"errors"
	"fmt"
)

// ErrMissingTable reports an operation that requires a table absent from
// the loaded archive.
var ErrMissingTable = errors.New("osmpkg: required table missing from package")

// NodeRow is one node with its WGS84 coordinate.
type NodeRow struct {
	ID  int64
	Lon float64
	Lat float64
}

// SegmentRow is one edge between two consecutive nodes of a way. A way
// with N nodes contributes N-1 rows in traversal order.
type SegmentRow struct {
	WayID int64
	U     int64
	V     int64
}

// MemberRow is one relation member in original member order.
type MemberRow struct {
	RelationID int64
	Ref        int64
	Type       string
	Role       string
}

// TagRow is one key/value annotation. OwnerID is a loose reference; the
// owning row may be absent from a filtered extract.
type TagRow struct {
	OwnerID int64
	Key     string
	Value   string
}

// Package is a loaded .osmpkg archive. A nil slice means the archive
// carried no entry for that table; an empty one means the entry existed
// with zero rows.
type Package struct {
	Nodes           []NodeRow
	NodeTags        []TagRow
	Ways            []SegmentRow
	WayTags         []TagRow
	RelationMembers []MemberRow
	RelationTags    []TagRow
}

// String summarizes per-table row counts.
func (p *Package) String() string {
	return fmt.Sprintf(
		"Package(nodes/tags=%d/%d, way segments/tags=%d/%d, relation members/tags=%d/%d)",
		len(p.Nodes), len(p.NodeTags),
		len(p.Ways), len(p.WayTags),
		len(p.RelationMembers), len(p.RelationTags),
	)
}

// Counts returns the row count per table name.
func (p *Package) Counts() map[string]int {
	return map[string]int{
		"node":         len(p.Nodes),
		"node_tag":     len(p.NodeTags),
		"way":          len(p.Ways),
		"way_tag":      len(p.WayTags),
		"relation":     len(p.RelationMembers),
		"relation_tag": len(p.RelationTags),
	}
}

// WayIDs returns the distinct way ids in first-seen order.
func (p *Package) WayIDs() []int64 {
	seen := make(map[int64]bool, len(p.Ways))
	ids := make([]int64, 0, len(p.Ways))
	for _, s := range p.Ways {
		if !seen[s.WayID] {
			seen[s.WayID] = true
			ids = append(ids, s.WayID)
		}
	}
	return ids
}

// RelationIDs returns the distinct relation ids in first-seen order.
func (p *Package) RelationIDs() []int64 {
	seen := make(map[int64]bool, len(p.RelationMembers))
	ids := make([]int64, 0, len(p.RelationMembers))
	for _, m := range p.RelationMembers {
		if !seen[m.RelationID] {
			seen[m.RelationID] = true
			ids = append(ids, m.RelationID)
		}
	}
	return ids
}

// NodeIDs returns the node ids in table order.
func (p *Package) NodeIDs() []int64 {
	ids := make([]int64, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}
