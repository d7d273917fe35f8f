package parquet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/wegman-software/osmpkg-go/internal/schema"
)

// readSegments loads a way-segment parquet file back as rows.
func readSegments(t *testing.T, path string) [][3]int64 {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		t.Fatalf("arrow reader: %v", err)
	}
	tbl, err := reader.ReadTable(context.Background())
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	defer tbl.Release()

	var rows [][3]int64
	wayIDs := tbl.Column(0).Data()
	us := tbl.Column(1).Data()
	vs := tbl.Column(2).Data()
	for c := range wayIDs.Chunks() {
		wc := wayIDs.Chunk(c).(*array.Int64)
		uc := us.Chunk(c).(*array.Int64)
		vc := vs.Chunk(c).(*array.Int64)
		for i := 0; i < wc.Len(); i++ {
			rows = append(rows, [3]int64{wc.Value(i), uc.Value(i), vc.Value(i)})
		}
	}
	return rows
}

func TestTableWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "way.parquet")

	w, err := NewTableWriter(path, schema.WaySegment, 10, nil, "")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	want := [][3]int64{{1, 10, 11}, {1, 11, 12}, {2, 20, 21}}
	for _, row := range want {
		if err := w.Append(row[0], row[1], row[2]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.Total() != 3 {
		t.Errorf("expected total 3, got %d", w.Total())
	}

	got := readSegments(t, path)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTableWriterSchemaMismatch(t *testing.T) {
	w, err := NewTableWriter(filepath.Join(t.TempDir(), "way.parquet"), schema.WaySegment, 10, nil, "")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	tests := []struct {
		name string
		vals []any
	}{
		{"too few values", []any{int64(1), int64(2)}},
		{"too many values", []any{int64(1), int64(2), int64(3), int64(4)}},
		{"wrong type", []any{int64(1), "ten", int64(3)}},
		{"int instead of int64", []any{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.Append(tt.vals...); !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestTableWriterClosed(t *testing.T) {
	w, err := NewTableWriter(filepath.Join(t.TempDir(), "way.parquet"), schema.WaySegment, 10, nil, "")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := w.Append(int64(1), int64(2), int64(3)); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}

	// Close is safe to call again.
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestTableWriterEmptyFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "way.parquet")
	w, err := NewTableWriter(path, schema.WaySegment, 10, nil, "")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	// Flushing with nothing buffered must not write a zero-row batch.
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := readSegments(t, path); len(got) != 0 {
		t.Errorf("expected 0 rows, got %d", len(got))
	}
}

func TestBatchSizeInvariance(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.parquet")
	large := filepath.Join(dir, "large.parquet")

	rows := make([][3]int64, 57)
	for i := range rows {
		rows[i] = [3]int64{int64(i / 4), int64(i), int64(i + 1)}
	}

	for _, tc := range []struct {
		path      string
		batchSize int
	}{
		{small, 2},
		{large, 1_000_000},
	} {
		w, err := NewTableWriter(tc.path, schema.WaySegment, tc.batchSize, nil, "")
		if err != nil {
			t.Fatalf("new writer: %v", err)
		}
		for _, row := range rows {
			if err := w.Append(row[0], row[1], row[2]); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	gotSmall := readSegments(t, small)
	gotLarge := readSegments(t, large)
	if len(gotSmall) != len(rows) || len(gotLarge) != len(rows) {
		t.Fatalf("expected %d rows, got %d and %d", len(rows), len(gotSmall), len(gotLarge))
	}
	for i := range rows {
		if gotSmall[i] != gotLarge[i] {
			t.Errorf("row %d differs between batch sizes: %v vs %v", i, gotSmall[i], gotLarge[i])
		}
	}
}

type countingSink struct {
	counts map[string]int64
	calls  int
}

func (s *countingSink) Report(kind string, delta int64) {
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	s.counts[kind] += delta
	s.calls++
}

func TestProgressReportingIsCoarse(t *testing.T) {
	sink := &countingSink{}
	w, err := NewTableWriter(filepath.Join(t.TempDir(), "way.parquet"), schema.WaySegment, 1_000_000, sink, "ways")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	const n = 2500
	for i := 0; i < n; i++ {
		if err := w.Append(int64(1), int64(i), int64(i+1)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if sink.counts["ways"] != n {
		t.Errorf("expected %d rows reported, got %d", n, sink.counts["ways"])
	}
	// 2 threshold reports plus the remainder at flush.
	if sink.calls != 3 {
		t.Errorf("expected 3 sink calls, got %d", sink.calls)
	}
}

func TestPairWriterRemovesEmptyTables(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPairWriter(dir, schema.TableRelation, 10, nil, "relations")
	if err != nil {
		t.Fatalf("new pair writer: %v", err)
	}

	if err := p.AddPrimary(int64(9), int64(100), "way", "outer"); err != nil {
		t.Fatalf("add primary: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "relation.parquet")); err != nil {
		t.Errorf("expected relation.parquet to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "relation_tag.parquet")); !os.IsNotExist(err) {
		t.Errorf("expected relation_tag.parquet to be removed, stat err = %v", err)
	}
}
