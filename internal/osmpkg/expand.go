package osmpkg

import (
	"errors"
	"sort"
)

// ErrMissingTagTable reports a tag expansion with no tag table available:
// the archive carried none and the caller supplied none.
var ErrMissingTagTable = errors.New("osmpkg: no tag table available")

// WideTable is a primary table joined with its tags pivoted into columns:
// one column per tag key, one row per primary id.
type WideTable struct {
	IDs  []int64
	Keys []string            // materialized keys, sorted
	Rows []map[string]string // parallel to IDs; a missing key is a null cell
}

// Value returns the tag value of a row, and whether the cell is non-null.
func (t *WideTable) Value(row int, key string) (string, bool) {
	if row < 0 || row >= len(t.Rows) || t.Rows[row] == nil {
		return "", false
	}
	v, ok := t.Rows[row][key]
	return v, ok
}

// ExpandTags left-joins tag rows onto the given ids: every id keeps its
// row, with null cells where no tag matched. With an explicit key subset
// only those keys are materialized; otherwise every distinct key present
// in the tag table becomes a column.
func ExpandTags(ids []int64, tags []TagRow, keys ...string) *WideTable {
	var keep map[string]bool
	if len(keys) > 0 {
		keep = make(map[string]bool, len(keys))
		for _, k := range keys {
			keep[k] = true
		}
	}

	byOwner := make(map[int64]map[string]string)
	seen := make(map[string]bool)
	for _, t := range tags {
		if keep != nil && !keep[t.Key] {
			continue
		}
		m := byOwner[t.OwnerID]
		if m == nil {
			m = make(map[string]string)
			byOwner[t.OwnerID] = m
		}
		m[t.Key] = t.Value
		seen[t.Key] = true
	}

	out := &WideTable{
		IDs:  ids,
		Keys: make([]string, 0, len(seen)),
		Rows: make([]map[string]string, len(ids)),
	}
	for k := range seen {
		out.Keys = append(out.Keys, k)
	}
	sort.Strings(out.Keys)
	for i, id := range ids {
		out.Rows[i] = byOwner[id]
	}
	return out
}

// ExpandNodeTags pivots the node tag table onto the node table.
func (p *Package) ExpandNodeTags(keys ...string) (*WideTable, error) {
	if p.NodeTags == nil {
		return nil, ErrMissingTagTable
	}
	return ExpandTags(p.NodeIDs(), p.NodeTags, keys...), nil
}

// ExpandWayTags pivots the way tag table onto the distinct way ids.
func (p *Package) ExpandWayTags(keys ...string) (*WideTable, error) {
	if p.WayTags == nil {
		return nil, ErrMissingTagTable
	}
	return ExpandTags(p.WayIDs(), p.WayTags, keys...), nil
}

// ExpandRelationTags pivots the relation tag table onto the distinct
// relation ids.
func (p *Package) ExpandRelationTags(keys ...string) (*WideTable, error) {
	if p.RelationTags == nil {
		return nil, ErrMissingTagTable
	}
	return ExpandTags(p.RelationIDs(), p.RelationTags, keys...), nil
}
