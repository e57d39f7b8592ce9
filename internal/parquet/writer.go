// Package parquet writes prepared tiles and labels as Parquet files.
package parquet

import (
	"errors"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

// TileRow is one triangle of a tile
type TileRow struct {
	Col      int32
	Row      int32
	Category string
	RoadType string
	WayID    int64
	GeomWKB  []byte
}

// LabelRow is one placed label or icon
type LabelRow struct {
	Col      int32
	Row      int32
	LOD      int32
	Kind     string
	Name     string
	X, Y     float64
	Rotation float64
	Scale    float64
	Culled   bool
}

var tileSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tile_col", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
	{Name: "tile_row", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
	{Name: "category", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "road_type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "way_id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	{Name: "geom_wkb", Type: arrow.BinaryTypes.Binary, Nullable: false},
}, nil)

var labelSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tile_col", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
	{Name: "tile_row", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
	{Name: "lod", Type: arrow.PrimitiveTypes.Int32, Nullable: false},
	{Name: "kind", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "x", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	{Name: "y", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	{Name: "rotation", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	{Name: "scale", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	{Name: "culled", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
}, nil)

// batchWriter buffers rows in a record builder and writes a row group
// every batchSize rows.
type batchWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
	total     int64
}

func newBatchWriter(path string, schema *arrow.Schema, batchSize int) (*batchWriter, error) {
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

	if batchSize < 1 {
		batchSize = 1
	}
	return &batchWriter{
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		batchSize: batchSize,
	}, nil
}

func (w *batchWriter) appended() error {
	w.count++
	w.total++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *batchWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

func (w *batchWriter) close() error {
	defer w.builder.Release()
	if err := w.flush(); err != nil {
		w.writer.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	// the parquet writer may already have closed its sink
	if err := w.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// TileWriter writes tile triangles
type TileWriter struct {
	w *batchWriter
}

// NewTileWriter creates a tile triangle Parquet writer
func NewTileWriter(path string, batchSize int) (*TileWriter, error) {
	w, err := newBatchWriter(path, tileSchema, batchSize)
	if err != nil {
		return nil, err
	}
	return &TileWriter{w: w}, nil
}

// Write appends a triangle row
func (t *TileWriter) Write(r TileRow) error {
	b := t.w.builder
	b.Field(0).(*array.Int32Builder).Append(r.Col)
	b.Field(1).(*array.Int32Builder).Append(r.Row)
	b.Field(2).(*array.StringBuilder).Append(r.Category)
	b.Field(3).(*array.StringBuilder).Append(r.RoadType)
	b.Field(4).(*array.Int64Builder).Append(r.WayID)
	b.Field(5).(*array.BinaryBuilder).Append(r.GeomWKB)
	return t.w.appended()
}

// Rows returns the number of rows written so far
func (t *TileWriter) Rows() int64 {
	return t.w.total
}

// Close flushes and closes the writer
func (t *TileWriter) Close() error {
	return t.w.close()
}

// LabelWriter writes labels and icons
type LabelWriter struct {
	w *batchWriter
}

// NewLabelWriter creates a label Parquet writer
func NewLabelWriter(path string, batchSize int) (*LabelWriter, error) {
	w, err := newBatchWriter(path, labelSchema, batchSize)
	if err != nil {
		return nil, err
	}
	return &LabelWriter{w: w}, nil
}

// Write appends a label row
func (l *LabelWriter) Write(r LabelRow) error {
	b := l.w.builder
	b.Field(0).(*array.Int32Builder).Append(r.Col)
	b.Field(1).(*array.Int32Builder).Append(r.Row)
	b.Field(2).(*array.Int32Builder).Append(r.LOD)
	b.Field(3).(*array.StringBuilder).Append(r.Kind)
	b.Field(4).(*array.StringBuilder).Append(r.Name)
	b.Field(5).(*array.Float64Builder).Append(r.X)
	b.Field(6).(*array.Float64Builder).Append(r.Y)
	b.Field(7).(*array.Float64Builder).Append(r.Rotation)
	b.Field(8).(*array.Float64Builder).Append(r.Scale)
	b.Field(9).(*array.BooleanBuilder).Append(r.Culled)
	return l.w.appended()
}

// Rows returns the number of rows written so far
func (l *LabelWriter) Rows() int64 {
	return l.w.total
}

// Close flushes and closes the writer
func (l *LabelWriter) Close() error {
	return l.w.close()
}
