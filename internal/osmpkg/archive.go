package osmpkg

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpkg-go/internal/schema"
)

// Assemble bundles the finished per-table Parquet files from dir into a
// single uncompressed tar archive at outPath. Entries are written in
// lexicographic table order; tables without a file are omitted. The
// archive is immutable once written.
func Assemble(dir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	tw := tar.NewWriter(out)
	for _, table := range schema.TableNames {
		entry := schema.EntryName(table)
		path := filepath.Join(dir, entry)

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			out.Close()
			return err
		}

		hdr := &tar.Header{
			Name:    entry,
			Mode:    0644,
			Size:    info.Size(),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			out.Close()
			return fmt.Errorf("failed to write archive header %s: %w", entry, err)
		}

		f, err := os.Open(path)
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("failed to add %s to archive: %w", entry, err)
		}
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Load reads an archive back into memory. Entries with unrecognized names
// are logged and skipped; absent tables stay nil in the result.
func Load(path string, log *zap.Logger) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pkg := &Package{}
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		table, ok := schema.TableForEntry(hdr.Name)
		if !ok {
			log.Warn("ignoring unrecognized archive entry", zap.String("entry", hdr.Name))
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w", hdr.Name, err)
		}

		tbl, err := readParquet(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %s: %w", hdr.Name, err)
		}

		switch table {
		case schema.TableNode:
			pkg.Nodes = nodeRows(tbl)
		case schema.TableNodeTag:
			pkg.NodeTags = tagRows(tbl)
		case schema.TableWay:
			pkg.Ways = segmentRows(tbl)
		case schema.TableWayTag:
			pkg.WayTags = tagRows(tbl)
		case schema.TableRelation:
			pkg.RelationMembers = memberRows(tbl)
		case schema.TableRelationTag:
			pkg.RelationTags = tagRows(tbl)
		}
		tbl.Release()
	}

	return pkg, nil
}

// readParquet decodes one Parquet entry into an Arrow table. Entries are
// read fully into memory first; the Parquet reader needs random access
// that a tar stream cannot provide.
func readParquet(data []byte) (arrow.Table, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, err
	}

	return reader.ReadTable(context.Background())
}

func nodeRows(tbl arrow.Table) []NodeRow {
	rows := make([]NodeRow, 0, tbl.NumRows())
	ids := tbl.Column(0).Data()
	lons := tbl.Column(1).Data()
	lats := tbl.Column(2).Data()
	for c := range ids.Chunks() {
		idc := ids.Chunk(c).(*array.Int64)
		lonc := lons.Chunk(c).(*array.Float64)
		latc := lats.Chunk(c).(*array.Float64)
		for i := 0; i < idc.Len(); i++ {
			rows = append(rows, NodeRow{ID: idc.Value(i), Lon: lonc.Value(i), Lat: latc.Value(i)})
		}
	}
	return rows
}

func segmentRows(tbl arrow.Table) []SegmentRow {
	rows := make([]SegmentRow, 0, tbl.NumRows())
	wayIDs := tbl.Column(0).Data()
	us := tbl.Column(1).Data()
	vs := tbl.Column(2).Data()
	for c := range wayIDs.Chunks() {
		wc := wayIDs.Chunk(c).(*array.Int64)
		uc := us.Chunk(c).(*array.Int64)
		vc := vs.Chunk(c).(*array.Int64)
		for i := 0; i < wc.Len(); i++ {
			rows = append(rows, SegmentRow{WayID: wc.Value(i), U: uc.Value(i), V: vc.Value(i)})
		}
	}
	return rows
}

func memberRows(tbl arrow.Table) []MemberRow {
	rows := make([]MemberRow, 0, tbl.NumRows())
	relIDs := tbl.Column(0).Data()
	refs := tbl.Column(1).Data()
	types := tbl.Column(2).Data()
	roles := tbl.Column(3).Data()
	for c := range relIDs.Chunks() {
		rc := relIDs.Chunk(c).(*array.Int64)
		refc := refs.Chunk(c).(*array.Int64)
		tc := types.Chunk(c).(*array.String)
		rolec := roles.Chunk(c).(*array.String)
		for i := 0; i < rc.Len(); i++ {
			rows = append(rows, MemberRow{
				RelationID: rc.Value(i),
				Ref:        refc.Value(i),
				Type:       tc.Value(i),
				Role:       rolec.Value(i),
			})
		}
	}
	return rows
}

func tagRows(tbl arrow.Table) []TagRow {
	rows := make([]TagRow, 0, tbl.NumRows())
	owners := tbl.Column(0).Data()
	keys := tbl.Column(1).Data()
	values := tbl.Column(2).Data()
	for c := range owners.Chunks() {
		oc := owners.Chunk(c).(*array.Int64)
		kc := keys.Chunk(c).(*array.String)
		vc := values.Chunk(c).(*array.String)
		for i := 0; i < oc.Len(); i++ {
			rows = append(rows, TagRow{OwnerID: oc.Value(i), Key: kc.Value(i), Value: vc.Value(i)})
		}
	}
	return rows
}
