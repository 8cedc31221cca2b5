// Package pqtest writes small parquet files for tests.
package pqtest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/require"
)

// BaseMillis is the millisecond epoch stored in the first row of Sample.
const BaseMillis = int64(1700000000000)

// SampleSchema has an int64, a string and a millisecond timestamp column.
func SampleSchema() *parquet.Schema {
	return parquet.NewSchema("sample", parquet.Group{
		"id":   parquet.Int(64),
		"name": parquet.String(),
		"ts":   parquet.Timestamp(parquet.Millisecond),
	})
}

// SampleRow returns the i-th row of Sample: id=i, name=row-i and
// ts=BaseMillis+i seconds.
func SampleRow(i int) parquet.Row {
	return parquet.Row{
		parquet.Int64Value(int64(i)).Level(0, 0, 0),
		parquet.ByteArrayValue([]byte(fmt.Sprintf("row-%d", i))).Level(0, 0, 1),
		parquet.Int64Value(BaseMillis + int64(i)*1000).Level(0, 0, 2),
	}
}

// Sample writes numRows rows of SampleSchema compressed with codec, starting a
// new row group every rowGroupSize rows. A rowGroupSize <= 0 writes a single
// row group.
func Sample(t testing.TB, numRows, rowGroupSize int, codec compress.Codec) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := parquet.NewWriter(buf, SampleSchema(), parquet.Compression(codec))
	for i := 0; i < numRows; i++ {
		_, err := w.WriteRows([]parquet.Row{SampleRow(i)})
		require.NoError(t, err)
		if rowGroupSize > 0 && (i+1)%rowGroupSize == 0 && i+1 < numRows {
			require.NoError(t, w.Flush())
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// Nullable writes rows of a single optional string column "note" where
// every value is set unless it is nil.
func Nullable(t testing.TB, values []*string) []byte {
	t.Helper()
	schema := parquet.NewSchema("nullable", parquet.Group{
		"note": parquet.Optional(parquet.String()),
	})
	buf := &bytes.Buffer{}
	w := parquet.NewWriter(buf, schema)
	for _, v := range values {
		row := parquet.Row{parquet.NullValue().Level(0, 0, 0)}
		if v != nil {
			row = parquet.Row{parquet.ByteArrayValue([]byte(*v)).Level(0, 1, 0)}
		}
		_, err := w.WriteRows([]parquet.Row{row})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type Point struct {
	X float64 `parquet:"x"`
	Y float64 `parquet:"y"`
}

// NestedRow covers the nested and annotated types a viewer has to display.
type NestedRow struct {
	ID    int64            `parquet:"id"`
	Point Point            `parquet:"point"`
	Tags  []string         `parquet:"tags,list"`
	Attrs map[string]int64 `parquet:"attrs"`
	Day   int32            `parquet:"day,date"`
}

func Nested(t testing.TB, rows []NestedRow) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := parquet.NewGenericWriter[NestedRow](buf, parquet.Compression(&parquet.Zstd))
	_, err := w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// LZO is a pass-through codec that labels its pages as LZO, which is not
// in the supported codec set.
type LZO struct{}

var _ compress.Codec = LZO{}

func (LZO) String() string { return "LZO" }

func (LZO) CompressionCodec() format.CompressionCodec { return format.LZO }

func (LZO) Encode(dst, src []byte) ([]byte, error) { return append(dst[:0], src...), nil }

func (LZO) Decode(dst, src []byte) ([]byte, error) { return append(dst[:0], src...), nil }

// CorruptFirstPage returns a copy of data where the compressed bytes of the
// first page of the first column chunk are overwritten. The footer and the
// page header stay intact, so only decoding the page fails.
func CorruptFirstPage(t testing.TB, data []byte) []byte {
	t.Helper()
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	md := pf.Metadata().RowGroups[0].Columns[0].MetaData
	start := md.DataPageOffset
	if md.DictionaryPageOffset > 0 && md.DictionaryPageOffset < start {
		start = md.DictionaryPageOffset
	}

	r := bytes.NewReader(data[start:])
	var hdr format.PageHeader
	require.NoError(t, thrift.NewDecoder(new(thrift.CompactProtocol).NewReader(r)).Decode(&hdr))
	payload := len(data) - r.Len()
	require.Positive(t, hdr.CompressedPageSize)

	out := append([]byte(nil), data...)
	for i := payload; i < payload+int(hdr.CompressedPageSize); i++ {
		out[i] = 0xff
	}
	return out
}
