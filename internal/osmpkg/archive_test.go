package osmpkg

import (
	"archive/tar"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/wegman-software/osmpkg-go/internal/parquet"
	"github.com/wegman-software/osmpkg-go/internal/schema"
)

// writeTables fills a work dir with parquet tables the way the converter
// would.
func writeTables(t *testing.T, dir string, nodes []NodeRow, nodeTags []TagRow, segments []SegmentRow) {
	t.Helper()

	if nodes != nil {
		w, err := parquet.NewTableWriter(filepath.Join(dir, schema.EntryName(schema.TableNode)), schema.Node, 10, nil, "")
		if err != nil {
			t.Fatalf("node writer: %v", err)
		}
		for _, n := range nodes {
			if err := w.Append(n.ID, n.Lon, n.Lat); err != nil {
				t.Fatalf("append node: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close node writer: %v", err)
		}
	}

	if nodeTags != nil {
		w, err := parquet.NewTableWriter(filepath.Join(dir, schema.EntryName(schema.TableNodeTag)), schema.Tag, 10, nil, "")
		if err != nil {
			t.Fatalf("tag writer: %v", err)
		}
		for _, tag := range nodeTags {
			if err := w.Append(tag.OwnerID, tag.Key, tag.Value); err != nil {
				t.Fatalf("append tag: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close tag writer: %v", err)
		}
	}

	if segments != nil {
		w, err := parquet.NewTableWriter(filepath.Join(dir, schema.EntryName(schema.TableWay)), schema.WaySegment, 10, nil, "")
		if err != nil {
			t.Fatalf("segment writer: %v", err)
		}
		for _, s := range segments {
			if err := w.Append(s.WayID, s.U, s.V); err != nil {
				t.Fatalf("append segment: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close segment writer: %v", err)
		}
	}
}

func TestAssembleLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	nodes := []NodeRow{
		{ID: 3, Lon: 13.1, Lat: 52.1},
		{ID: 1, Lon: 13.2, Lat: 52.2},
		{ID: 2, Lon: 13.3, Lat: 52.3},
	}
	tags := []TagRow{
		{OwnerID: 1, Key: "railway", Value: "halt"},
		{OwnerID: 3, Key: "name", Value: "West"},
	}
	segments := []SegmentRow{
		{WayID: 7, U: 1, V: 2},
		{WayID: 7, U: 2, V: 3},
	}
	writeTables(t, dir, nodes, tags, segments)

	archive := filepath.Join(t.TempDir(), "test.osmpkg")
	if err := Assemble(dir, archive); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	pkg, err := Load(archive, zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Row multisets survive; compare after sorting on primary key.
	gotNodes := append([]NodeRow(nil), pkg.Nodes...)
	sort.Slice(gotNodes, func(i, j int) bool { return gotNodes[i].ID < gotNodes[j].ID })
	wantNodes := append([]NodeRow(nil), nodes...)
	sort.Slice(wantNodes, func(i, j int) bool { return wantNodes[i].ID < wantNodes[j].ID })
	for i := range wantNodes {
		if gotNodes[i] != wantNodes[i] {
			t.Errorf("node %d: got %+v, want %+v", i, gotNodes[i], wantNodes[i])
		}
	}

	if len(pkg.NodeTags) != 2 {
		t.Errorf("expected 2 node tags, got %d", len(pkg.NodeTags))
	}
	if len(pkg.Ways) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(pkg.Ways))
	}
	// Segment order within the table is preserved.
	if pkg.Ways[0] != (SegmentRow{WayID: 7, U: 1, V: 2}) || pkg.Ways[1] != (SegmentRow{WayID: 7, U: 2, V: 3}) {
		t.Errorf("unexpected segment order: %+v", pkg.Ways)
	}
}

func TestArchiveEntryOrderIsStable(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir,
		[]NodeRow{{ID: 1, Lon: 1, Lat: 1}},
		[]TagRow{{OwnerID: 1, Key: "k", Value: "v"}},
		[]SegmentRow{{WayID: 1, U: 1, V: 2}},
	)

	archive := filepath.Join(t.TempDir(), "test.osmpkg")
	if err := Assemble(dir, archive); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	f, err := os.Open(archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}

	want := []string{"node.parquet", "node_tag.parquet", "way.parquet"}
	if len(names) != len(want) {
		t.Fatalf("expected entries %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d: got %s, want %s", i, names[i], want[i])
		}
	}
}

func TestLoadToleratesMissingTables(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, []NodeRow{{ID: 1, Lon: 1, Lat: 1}}, nil, nil)

	archive := filepath.Join(t.TempDir(), "test.osmpkg")
	if err := Assemble(dir, archive); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	pkg, err := Load(archive, zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(pkg.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(pkg.Nodes))
	}
	for name, rows := range map[string]int{
		"node_tag":     len(pkg.NodeTags),
		"way":          len(pkg.Ways),
		"way_tag":      len(pkg.WayTags),
		"relation":     len(pkg.RelationMembers),
		"relation_tag": len(pkg.RelationTags),
	} {
		if rows != 0 {
			t.Errorf("expected empty %s table, got %d rows", name, rows)
		}
	}
}

func TestLoadSkipsUnrecognizedEntries(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, []NodeRow{{ID: 1, Lon: 1, Lat: 1}}, nil, nil)

	// Hand-build an archive with a bogus entry in front of a real one.
	archive := filepath.Join(t.TempDir(), "test.osmpkg")
	out, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	tw := tar.NewWriter(out)

	junk := []byte("not a parquet file")
	if err := tw.WriteHeader(&tar.Header{Name: "README.txt", Mode: 0644, Size: int64(len(junk))}); err != nil {
		t.Fatalf("write junk header: %v", err)
	}
	if _, err := tw.Write(junk); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "node.parquet"))
	if err != nil {
		t.Fatalf("read node table: %v", err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "node.parquet", Mode: 0644, Size: int64(len(data))}); err != nil {
		t.Fatalf("write node header: %v", err)
	}
	if _, err := tw.Write(data); err != nil {
		t.Fatalf("write node entry: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	pkg, err := Load(archive, zap.NewNop())
	if err != nil {
		t.Fatalf("load should tolerate unknown entries: %v", err)
	}
	if len(pkg.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(pkg.Nodes))
	}
}
