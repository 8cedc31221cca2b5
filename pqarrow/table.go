package pqarrow

import (
	"strings"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/polarsignals/pqexplorer/recovery"
)

// ColumnChunkInfo describes one column chunk of a row group.
type ColumnChunkInfo struct {
	Path             string
	PhysicalType     string
	Codec            string
	Encodings        []string
	NumValues        int64
	CompressedSize   int64
	UncompressedSize int64
}

// RowGroupInfo describes one row group of a file.
type RowGroupInfo struct {
	NumRows       int64
	TotalByteSize int64
	Columns       []ColumnChunkInfo
}

// FileMetadata is the part of the parquet footer that outlives decoding.
type FileMetadata struct {
	NumRows   int64
	CreatedBy string
	RowGroups []RowGroupInfo
	// Codecs holds the distinct codec names in the order they were first seen.
	Codecs []string
	// Fields are the top-level fields of the file schema. They carry the
	// logical type annotations that the arrow schema does not preserve verbatim.
	Fields []parquet.Field
}

// Compression joins the distinct codecs of the file, or returns the empty
// string if the file has no column chunks.
func (m *FileMetadata) Compression() string {
	return strings.Join(m.Codecs, ", ")
}

func newFileMetadata(f *parquet.File) *FileMetadata {
	md := f.Metadata()
	meta := &FileMetadata{
		NumRows:   md.NumRows,
		CreatedBy: md.CreatedBy,
		RowGroups: make([]RowGroupInfo, 0, len(md.RowGroups)),
		Fields:    f.Schema().Fields(),
	}

	seen := map[format.CompressionCodec]struct{}{}
	for _, rg := range md.RowGroups {
		info := RowGroupInfo{
			NumRows:       rg.NumRows,
			TotalByteSize: rg.TotalByteSize,
			Columns:       make([]ColumnChunkInfo, 0, len(rg.Columns)),
		}
		for _, cc := range rg.Columns {
			encodings := make([]string, 0, len(cc.MetaData.Encoding))
			for _, e := range cc.MetaData.Encoding {
				encodings = append(encodings, e.String())
			}
			info.Columns = append(info.Columns, ColumnChunkInfo{
				Path:             strings.Join(cc.MetaData.PathInSchema, "."),
				PhysicalType:     cc.MetaData.Type.String(),
				Codec:            CodecName(cc.MetaData.Codec),
				Encodings:        encodings,
				NumValues:        cc.MetaData.NumValues,
				CompressedSize:   cc.MetaData.TotalCompressedSize,
				UncompressedSize: cc.MetaData.TotalUncompressedSize,
			})
			if _, ok := seen[cc.MetaData.Codec]; !ok {
				seen[cc.MetaData.Codec] = struct{}{}
				meta.Codecs = append(meta.Codecs, CodecName(cc.MetaData.Codec))
			}
		}
		meta.RowGroups = append(meta.RowGroups, info)
	}
	return meta
}

// Table is a decoded parquet file held in arrow memory. The memory is owned
// by the allocator the Decoder was configured with and is only returned to
// it by Release.
type Table struct {
	tbl      arrow.Table
	meta     *FileMetadata
	released atomic.Bool
}

// NewTable wraps an arrow table. The Table takes over the caller's reference.
func NewTable(tbl arrow.Table, meta *FileMetadata) *Table {
	if meta == nil {
		meta = &FileMetadata{NumRows: tbl.NumRows()}
	}
	return &Table{tbl: tbl, meta: meta}
}

func (t *Table) Arrow() arrow.Table { return t.tbl }

func (t *Table) Schema() *arrow.Schema { return t.tbl.Schema() }

// NumRows is the number of rows stored in the file.
func (t *Table) NumRows() int64 { return t.meta.NumRows }

func (t *Table) Metadata() *FileMetadata { return t.meta }

// Release frees the arrow buffers. Only the first call has an effect; any
// later call returns ErrReleased.
func (t *Table) Release() error {
	if !t.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	return recovery.Do(func() error {
		t.tbl.Release()
		return nil
	})()
}
