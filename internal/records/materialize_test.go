package records_test

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/pqexplorer/internal/records"
	"github.com/polarsignals/pqexplorer/pqarrow/convert"
)

// newTable builds a table of chunks records, each holding size rows of an
// int64 column "n" and a nullable string column "s".
func newTable(t *testing.T, mem memory.Allocator, chunks, size int) arrow.Table {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "n", Type: arrow.PrimitiveTypes.Int64},
		{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	recs := make([]arrow.Record, 0, chunks)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	n := 0
	for c := 0; c < chunks; c++ {
		for i := 0; i < size; i++ {
			b.Field(0).(*array.Int64Builder).Append(int64(n))
			if n%2 == 0 {
				b.Field(1).(*array.StringBuilder).Append(fmt.Sprintf("v%d", n))
			} else {
				b.Field(1).AppendNull()
			}
			n++
		}
		recs = append(recs, b.NewRecord())
	}
	tbl := array.NewTableFromRecords(schema, recs)
	for _, r := range recs {
		r.Release()
	}
	return tbl
}

func columns(tbl arrow.Table) []convert.Column {
	return convert.Columns(convert.Project(tbl.Schema(), nil, 0))
}

func sprint(v any, _ convert.Column) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func TestMaterialize(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := newTable(t, mem, 1, 5)
	defer tbl.Release()

	recs := records.Materialize(tbl, columns(tbl), records.DefaultRowCap, sprint)
	require.Len(t, recs, 5)
	for i, r := range recs {
		require.Equal(t, []string{"n", "s"}, r.Keys())
		n, ok := r.Get("n")
		require.True(t, ok)
		require.Equal(t, fmt.Sprint(i), n)
	}
	s, _ := recs[1].Get("s")
	require.Equal(t, "", s)
	s, _ = recs[2].Get("s")
	require.Equal(t, "v2", s)

	out, err := json.Marshal(recs[0])
	require.NoError(t, err)
	require.Equal(t, `{"n":"0","s":"v0"}`, string(out))
}

func TestMaterializeRowCap(t *testing.T) {
	tbl := newTable(t, memory.DefaultAllocator, 3, 10)
	defer tbl.Release()
	cols := columns(tbl)

	for _, c := range []struct {
		rowCap int
		want   int
	}{
		{rowCap: 0, want: 0},
		{rowCap: -1, want: 0},
		{rowCap: 1, want: 1},
		{rowCap: 15, want: 15},
		{rowCap: 30, want: 30},
		{rowCap: 31, want: 30},
		{rowCap: records.DefaultRowCap, want: 30},
	} {
		recs := records.Materialize(tbl, cols, c.rowCap, sprint)
		require.Len(t, recs, c.want, "cap %d", c.rowCap)
		for i, r := range recs {
			n, _ := r.Get("n")
			require.Equal(t, fmt.Sprint(i), n, "rows are in storage order")
		}
	}
}

func TestMaterializeMissingColumn(t *testing.T) {
	tbl := newTable(t, memory.DefaultAllocator, 1, 2)
	defer tbl.Release()

	cols := append(columns(tbl), convert.Column{Name: "ghost", Position: 7})
	recs := records.Materialize(tbl, cols, 10, sprint)
	require.Len(t, recs, 2)
	_, ok := recs[0].Get("ghost")
	require.False(t, ok)
	require.Equal(t, 2, recs[0].Len())
}

func TestMaterializeDuplicateNames(t *testing.T) {
	tbl := newTable(t, memory.DefaultAllocator, 1, 1)
	defer tbl.Release()

	cols := []convert.Column{
		{Name: "x", Position: 0},
		{Name: "y", Position: 1},
		{Name: "x", Position: 1},
	}
	recs := records.Materialize(tbl, cols, 10, sprint)
	require.Len(t, recs, 1)
	require.Equal(t, []string{"x", "y"}, recs[0].Keys())
	x, _ := recs[0].Get("x")
	require.Equal(t, "v0", x)
}

func TestMaterializeCellPanic(t *testing.T) {
	tbl := newTable(t, memory.DefaultAllocator, 1, 2)
	defer tbl.Release()

	recs := records.Materialize(tbl, columns(tbl), 10, func(v any, col convert.Column) string {
		if col.Name == "n" {
			panic("boom")
		}
		return sprint(v, col)
	})
	require.Len(t, recs, 2)
	n, _ := recs[1].Get("n")
	require.Equal(t, "1", n)
	s, _ := recs[1].Get("s")
	require.Equal(t, "", s)
}

func TestMaterializeDeterministic(t *testing.T) {
	tbl := newTable(t, memory.DefaultAllocator, 2, 3)
	defer tbl.Release()

	a := records.Materialize(tbl, columns(tbl), 100, sprint)
	b := records.Materialize(tbl, columns(tbl), 100, sprint)
	require.Equal(t, a, b)
}

func TestNewRecord(t *testing.T) {
	r := records.NewRecord([]string{"a", "b", "a", "c"}, []string{"1", "2", "3"})
	require.Equal(t, []string{"a", "b", "c"}, r.Keys())
	require.Equal(t, []string{"3", "2", ""}, r.Values())

	out, err := json.Marshal([]records.Record{r, {}})
	require.NoError(t, err)
	require.Equal(t, `[{"a":"3","b":"2","c":""},{}]`, string(out))
}

func TestRecordUnmarshalJSON(t *testing.T) {
	var recs []records.Record
	require.NoError(t, json.Unmarshal([]byte(`[{"z":"1","a":null,"n":2.5,"b":true,"o":{"k":[1]}},{}]`), &recs))
	require.Len(t, recs, 2)
	require.Equal(t, []string{"z", "a", "n", "b", "o"}, recs[0].Keys())
	require.Equal(t, []string{"1", "", "2.5", "true", `{"k":[1]}`}, recs[0].Values())
	require.Equal(t, 0, recs[1].Len())

	var r records.Record
	require.Error(t, json.Unmarshal([]byte(`["a"]`), &r))
}
