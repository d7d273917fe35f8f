// Package parquet implements the batched columnar writers behind the
// osmpkg tables. Rows accumulate in Arrow builders and are written as one
// zstd-compressed row group once the batch threshold is reached, so peak
// memory stays proportional to the batch size rather than the input file.
package parquet

import (
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

var (
	// ErrSchemaMismatch reports a row whose arity or value types do not
	// match the table schema. This is an integration bug, not bad input.
	ErrSchemaMismatch = errors.New("parquet: row does not match table schema")

	// ErrWriterClosed reports an append after Close.
	ErrWriterClosed = errors.New("parquet: writer is closed")
)

// ProgressSink receives named row-count increments. Writers report at a
// coarse granularity, never per row.
type ProgressSink interface {
	Report(kind string, delta int64)
}

// DefaultBatchSize is the number of rows buffered before a row group is
// written.
const DefaultBatchSize = 500_000

// reportEvery bounds how often a writer calls its progress sink.
const reportEvery = 1000

// TableWriter accumulates rows for one fixed schema and appends them to a
// Parquet file in batches.
type TableWriter struct {
	path      string
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	schema    *arrow.Schema
	batchSize int

	count   int   // rows buffered since the last flush
	total   int64 // rows appended over the writer's lifetime
	pending int64 // rows not yet reported to the sink
	sink    ProgressSink
	kind    string
	closed  bool
}

// NewTableWriter creates the output file and an empty batch buffer. sink
// may be nil; kind names the counter reported to it.
func NewTableWriter(path string, schema *arrow.Schema, batchSize int, sink ProgressSink, kind string) (*TableWriter, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(schema, f, writerProps, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &TableWriter{
		path:      path,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		schema:    schema,
		batchSize: batchSize,
		sink:      sink,
		kind:      kind,
	}, nil
}

// Append adds one row. Values must match the schema's column order and
// types exactly.
func (w *TableWriter) Append(vals ...any) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(vals) != w.schema.NumFields() {
		return fmt.Errorf("%w: got %d values for %d columns", ErrSchemaMismatch, len(vals), w.schema.NumFields())
	}

	// Validate the whole row before touching any builder so a rejected
	// row never leaves ragged columns behind.
	for i, v := range vals {
		switch w.builder.Field(i).(type) {
		case *array.Int64Builder:
			if _, ok := v.(int64); !ok {
				return fmt.Errorf("%w: column %q wants int64, got %T", ErrSchemaMismatch, w.schema.Field(i).Name, v)
			}
		case *array.Float64Builder:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("%w: column %q wants float64, got %T", ErrSchemaMismatch, w.schema.Field(i).Name, v)
			}
		case *array.StringBuilder:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("%w: column %q wants string, got %T", ErrSchemaMismatch, w.schema.Field(i).Name, v)
			}
		default:
			return fmt.Errorf("%w: unsupported builder for column %q", ErrSchemaMismatch, w.schema.Field(i).Name)
		}
	}

	for i, v := range vals {
		switch b := w.builder.Field(i).(type) {
		case *array.Int64Builder:
			b.Append(v.(int64))
		case *array.Float64Builder:
			b.Append(v.(float64))
		case *array.StringBuilder:
			b.Append(v.(string))
		}
	}

	w.count++
	w.total++
	w.pending++
	if w.sink != nil && w.pending >= reportEvery {
		w.sink.Report(w.kind, w.pending)
		w.pending = 0
	}

	if w.count >= w.batchSize {
		return w.writeBatch()
	}
	return nil
}

// writeBatch serializes the buffered columns into one row group. A no-op
// when nothing is buffered, so no empty record is ever written.
func (w *TableWriter) writeBatch() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Flush forces a batch write of any buffered rows and reports outstanding
// counts to the sink.
func (w *TableWriter) Flush() error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.sink != nil && w.pending > 0 {
		w.sink.Report(w.kind, w.pending)
		w.pending = 0
	}
	return w.writeBatch()
}

// Close flushes remaining rows and seals the file, writing the Parquet
// footer. The writer accepts no rows afterwards.
func (w *TableWriter) Close() error {
	if w.closed {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	w.closed = true
	w.builder.Release()
	// The pqarrow writer owns the file and closes it with the footer.
	return w.writer.Close()
}

// Total returns the number of rows appended over the writer's lifetime.
func (w *TableWriter) Total() int64 {
	return w.total
}

// Path returns the output file path.
func (w *TableWriter) Path() string {
	return w.path
}
