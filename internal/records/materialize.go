package records

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/polarsignals/pqexplorer/pqarrow/arrowutils"
	"github.com/polarsignals/pqexplorer/pqarrow/convert"
	"github.com/polarsignals/pqexplorer/recovery"
)

// DefaultRowCap bounds the number of rows materialized for display.
const DefaultRowCap = 20000

const maxBatchSize = 4096

// CellFunc renders one decoded value of col as display text.
type CellFunc func(value any, col convert.Column) string

// Materialize reads the first min(tbl.NumRows(), rowCap) rows of tbl in
// storage order. Columns whose position is not present in the table are
// left out of every record. A panic while rendering a cell is contained to
// that cell, which then holds the arrow string form of the value.
func Materialize(tbl arrow.Table, columns []convert.Column, rowCap int, cell CellFunc) []Record {
	if tbl == nil || rowCap <= 0 {
		return []Record{}
	}
	rows := min(tbl.NumRows(), int64(rowCap))
	if rows <= 0 {
		return []Record{}
	}
	if cell == nil {
		cell = sprint
	}

	tr := array.NewTableReader(tbl, min(rows, maxBatchSize))
	defer tr.Release()

	out := make([]Record, 0, rows)
	for int64(len(out)) < rows && tr.Next() {
		rec := tr.Record()
		ncols := int(rec.NumCols())
		for i := 0; i < int(rec.NumRows()) && int64(len(out)) < rows; i++ {
			b := newBuilder(len(columns))
			for _, col := range columns {
				if col.Position < 0 || col.Position >= ncols {
					continue
				}
				b.set(col.Name, render(rec.Column(col.Position), i, col, cell))
			}
			out = append(out, b.record())
		}
	}
	return out
}

func render(arr arrow.Array, i int, col convert.Column, cell CellFunc) string {
	var s string
	err := recovery.Do(func() error {
		v, err := arrowutils.GetValue(arr, i)
		if err != nil {
			return err
		}
		s = cell(v, col)
		return nil
	})()
	if err != nil {
		return fallback(arr, i)
	}
	return s
}

func fallback(arr arrow.Array, i int) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	if arr.IsNull(i) {
		return ""
	}
	return arr.ValueStr(i)
}

func sprint(v any, _ convert.Column) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
