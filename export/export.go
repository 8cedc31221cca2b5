// Package export writes materialized records to files a user can take
// elsewhere.
package export

import (
	"encoding/csv"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/polarsignals/pqexplorer/internal/records"
)

// Format names an export file format.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
)

// ParseFormat accepts the format names case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv", "CSV":
		return FormatCSV, nil
	case "json", "JSON":
		return FormatJSON, nil
	}
	return "", errors.Newf("unknown export format %q", s)
}

// Extension is the file extension of f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	}
	return ""
}

// Write exports recs in format f.
func Write(w io.Writer, f Format, recs []records.Record) error {
	switch f {
	case FormatCSV:
		return CSV(w, recs, nil)
	case FormatJSON:
		return JSON(w, recs)
	}
	return errors.Newf("unknown export format %q", string(f))
}

// CSV writes recs with a header row. The columns default to the keys of the
// first record. Nothing is written when recs is empty. Rows are separated by
// a single newline and the last row has none.
func CSV(w io.Writer, recs []records.Record, columns []string) error {
	if len(recs) == 0 {
		return nil
	}
	if columns == nil {
		columns = recs[0].Keys()
	}

	ew := &endWriter{w: w}
	cw := csv.NewWriter(ew)
	if err := cw.Write(columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	row := make([]string, len(columns))
	for _, rec := range recs {
		for i, c := range columns {
			row[i], _ = rec.Get(c)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return ew.err
}

// JSON writes recs as an array of objects indented by two spaces.
func JSON(w io.Writer, recs []records.Record) error {
	if recs == nil {
		recs = []records.Record{}
	}
	b, err := json.MarshalIndentWithOption(recs, "", "  ", json.DisableHTMLEscape())
	if err != nil {
		return errors.Wrap(err, "marshal records")
	}
	_, err = w.Write(b)
	return err
}

// endWriter holds back a trailing newline until more data follows it, so
// the output does not end in a line break.
type endWriter struct {
	w       io.Writer
	pending bool
	err     error
}

func (e *endWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n := len(p)
	if n == 0 {
		return 0, nil
	}
	if e.pending {
		if _, e.err = e.w.Write([]byte{'\n'}); e.err != nil {
			return 0, e.err
		}
		e.pending = false
	}
	if p[len(p)-1] == '\n' {
		p = p[:len(p)-1]
		e.pending = true
	}
	if _, e.err = e.w.Write(p); e.err != nil {
		return 0, e.err
	}
	return n, nil
}
