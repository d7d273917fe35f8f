package schema

import "testing"

func TestTableForEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  string
		ok    bool
	}{
		{"node.parquet", TableNode, true},
		{"node_tag.parquet", TableNodeTag, true},
		{"way.parquet", TableWay, true},
		{"relation_tag.parquet", TableRelationTag, true},
		{"node", "", false},
		{"nodes.parquet", "", false},
		{"README.txt", "", false},
	}

	for _, tt := range tests {
		got, ok := TableForEntry(tt.entry)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TableForEntry(%q) = (%q, %v), want (%q, %v)", tt.entry, got, ok, tt.want, tt.ok)
		}
	}
}

func TestForTable(t *testing.T) {
	for _, table := range TableNames {
		if ForTable(table) == nil {
			t.Errorf("ForTable(%q) returned nil", table)
		}
	}
	if ForTable("bogus") != nil {
		t.Error("ForTable should return nil for unknown tables")
	}

	if got := Node.NumFields(); got != 3 {
		t.Errorf("node schema has %d fields, want 3", got)
	}
	if got := RelationMember.NumFields(); got != 4 {
		t.Errorf("relation member schema has %d fields, want 4", got)
	}
}
