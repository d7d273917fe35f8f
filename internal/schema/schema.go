// Package schema holds the fixed column schemas of the six osmpkg tables
// and the mapping between table names and archive entry names.
package schema

import (
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
)

// Table names, which double as the archive entry stems.
const (
	TableNode        = "node"
	TableNodeTag     = "node_tag"
	TableWay         = "way"
	TableWayTag      = "way_tag"
	TableRelation    = "relation"
	TableRelationTag = "relation_tag"
)

// TableNames lists all six tables in lexicographic order, which is the
// order archive entries are written in.
var TableNames = []string{
	TableNode,
	TableNodeTag,
	TableRelation,
	TableRelationTag,
	TableWay,
	TableWayTag,
}

const entrySuffix = ".parquet"

// EntryName returns the archive entry name for a table.
func EntryName(table string) string {
	return table + entrySuffix
}

// TableForEntry maps an archive entry name back to its table name.
// ok is false for entries that are not part of the package format.
func TableForEntry(entry string) (table string, ok bool) {
	stem, found := strings.CutSuffix(entry, entrySuffix)
	if !found {
		return "", false
	}
	for _, t := range TableNames {
		if t == stem {
			return t, true
		}
	}
	return "", false
}

// Node holds one row per node: id and WGS84 coordinates.
var Node = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "lon", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	{Name: "lat", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
}, nil)

// WaySegment holds one row per consecutive node pair of a way.
var WaySegment = arrow.NewSchema([]arrow.Field{
	{Name: "way_id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "u", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "v", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
}, nil)

// RelationMember holds one row per relation member, in member order.
var RelationMember = arrow.NewSchema([]arrow.Field{
	{Name: "relation_id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "ref", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "role", Type: arrow.BinaryTypes.String, Nullable: false},
}, nil)

// Tag holds one row per (owner, key) pair. The owner id is a loose
// reference: the owning row may have been filtered out upstream.
var Tag = arrow.NewSchema([]arrow.Field{
	{Name: "owner_id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "key", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "value", Type: arrow.BinaryTypes.String, Nullable: false},
}, nil)

// ForTable returns the column schema for a table name, or nil for an
// unknown table.
func ForTable(table string) *arrow.Schema {
	switch table {
	case TableNode:
		return Node
	case TableWay:
		return WaySegment
	case TableRelation:
		return RelationMember
	case TableNodeTag, TableWayTag, TableRelationTag:
		return Tag
	}
	return nil
}
