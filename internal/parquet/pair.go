package parquet

import (
	"os"
	"path/filepath"

	"github.com/wegman-software/osmpkg-go/internal/schema"
)

// PairWriter routes one primitive kind's primary rows and tag rows to two
// independently batched writers. Tag volume per primitive differs sharply
// from primary-row volume, so the two files flush on their own cycles.
type PairWriter struct {
	primary *TableWriter
	tags    *TableWriter
}

// NewPairWriter creates the primary and tag writers for a table in dir.
// Only the primary writer reports to the sink, under kind.
func NewPairWriter(dir, table string, batchSize int, sink ProgressSink, kind string) (*PairWriter, error) {
	primary, err := NewTableWriter(filepath.Join(dir, schema.EntryName(table)), schema.ForTable(table), batchSize, sink, kind)
	if err != nil {
		return nil, err
	}

	tagTable := table + "_tag"
	tags, err := NewTableWriter(filepath.Join(dir, schema.EntryName(tagTable)), schema.Tag, batchSize, nil, "")
	if err != nil {
		primary.Close()
		return nil, err
	}

	return &PairWriter{primary: primary, tags: tags}, nil
}

// AddPrimary appends one row to the primary table.
func (p *PairWriter) AddPrimary(vals ...any) error {
	return p.primary.Append(vals...)
}

// AddTag appends one (owner, key, value) row to the tag table.
func (p *PairWriter) AddTag(ownerID int64, key, value string) error {
	return p.tags.Append(ownerID, key, value)
}

// PrimaryRows returns the number of primary rows written so far.
func (p *PairWriter) PrimaryRows() int64 {
	return p.primary.Total()
}

// TagRows returns the number of tag rows written so far.
func (p *PairWriter) TagRows() int64 {
	return p.tags.Total()
}

// Close seals both files. Tables that never received a row are removed so
// the archive omits their entries entirely.
func (p *PairWriter) Close() error {
	err := p.primary.Close()
	if err2 := p.tags.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return err
	}
	if p.primary.Total() == 0 {
		if err := os.Remove(p.primary.Path()); err != nil {
			return err
		}
	}
	if p.tags.Total() == 0 {
		if err := os.Remove(p.tags.Path()); err != nil {
			return err
		}
	}
	return nil
}
