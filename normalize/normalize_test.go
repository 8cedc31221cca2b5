package normalize

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/datadriven"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/pqexplorer/pqarrow/arrowutils"
	"github.com/polarsignals/pqexplorer/pqarrow/convert"
)

const testdataDirectory = "testdata"

func TestNormalizeData(t *testing.T) {
	datadriven.Walk(t, testdataDirectory, func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, c *datadriven.TestData) string {
			out, err := runCmd(c)
			if err != nil {
				return "error: " + err.Error()
			}
			return out
		})
	})
}

func runCmd(c *datadriven.TestData) (string, error) {
	switch c.Cmd {
	case "normalize":
		return handleNormalize(c)
	case "format":
		return handleFormat(c)
	case "classify":
		return handleClassify(c)
	}
	return "", fmt.Errorf("unknown command %s", c.Cmd)
}

// handleNormalize renders every input line, "<kind> <literal>", as a cell of
// the class given by the class argument.
func handleNormalize(c *datadriven.TestData) (string, error) {
	class := convert.ClassOther
	var options []Option
	for _, arg := range c.CmdArgs {
		switch arg.Key {
		case "class":
			if err := class.UnmarshalText([]byte(arg.Vals[0])); err != nil {
				return "", err
			}
		case "tz":
			loc, err := time.LoadLocation(arg.Vals[0])
			if err != nil {
				return "", err
			}
			options = append(options, WithLocation(loc))
		}
	}

	lines := strings.Split(c.Input, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "layout ") {
		options = append(options, WithTimestampFormat(strings.TrimPrefix(lines[0], "layout ")))
		lines = lines[1:]
	}
	n := New(options...)

	res := &strings.Builder{}
	for _, line := range lines {
		v, err := parseValue(line)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(res, "%s => %s\n", line, show(n.Normalize(v, class)))
	}
	return res.String(), nil
}

// handleFormat formats the RFC 3339 times of the input with the layout on
// its first line.
func handleFormat(c *datadriven.TestData) (string, error) {
	lines := strings.Split(c.Input, "\n")
	p := Compile(lines[0])
	res := &strings.Builder{}
	for _, line := range lines[1:] {
		ts, err := time.Parse(time.RFC3339Nano, line)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(res, "%s => %s\n", line, show(p.Format(ts)))
	}
	return res.String(), nil
}

func handleClassify(c *datadriven.TestData) (string, error) {
	res := &strings.Builder{}
	for _, line := range strings.Split(c.Input, "\n") {
		fmt.Fprintf(res, "%s => %s\n", line, convert.Classify(line))
	}
	return res.String(), nil
}

func show(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}

func parseValue(line string) (any, error) {
	kind, lit, _ := strings.Cut(line, " ")
	switch kind {
	case "null":
		return nil, nil
	case "int":
		return strconv.ParseInt(lit, 10, 64)
	case "uint":
		return strconv.ParseUint(lit, 10, 64)
	case "float":
		return strconv.ParseFloat(lit, 64)
	case "bool":
		return strconv.ParseBool(lit)
	case "string":
		return lit, nil
	case "bytes":
		return hex.DecodeString(lit)
	case "decimal":
		return json.Number(lit), nil
	case "bigint":
		b, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return nil, fmt.Errorf("invalid bigint %q", lit)
		}
		return b, nil
	case "time":
		return time.Parse(time.RFC3339Nano, lit)
	case "json":
		var v any
		dec := json.NewDecoder(strings.NewReader(lit))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown value kind %q", kind)
}

func TestNormalizeNil(t *testing.T) {
	n := New()
	for c := convert.ClassOther; c <= convert.ClassMap; c++ {
		require.Equal(t, "", n.Normalize(nil, c))
	}
}

func TestNormalizeBoundaries(t *testing.T) {
	n := New()
	nanos := n.Normalize(int64(1700000000000000000), convert.ClassTimestamp)
	millis := n.Normalize(int64(1700000000000), convert.ClassTimestamp)
	require.Equal(t, millis, nanos)
	require.Equal(t, "2023-11-14 22:13:20.000", millis)

	seconds := n.Normalize(int64(1700000000), convert.ClassTimestamp)
	require.True(t, strings.HasPrefix(seconds, "2023-"), seconds)

	// Integer inputs never lose precision on the way to milliseconds.
	require.Equal(t, "2023-11-14 22:13:20.123", n.Normalize(int64(1700000000123456789), convert.ClassTimestamp))
	require.Equal(t, "2023-11-14 22:13:20.123", n.Normalize(uint64(1700000000123456789), convert.ClassTimestamp))
}

func TestNormalizeObject(t *testing.T) {
	n := New()
	obj := arrowutils.Object{
		{Key: "b", Value: int64(2)},
		{Key: "a", Value: []any{"x", nil}},
	}
	require.Equal(t, `{"b":2,"a":["x",null]}`, n.Normalize(obj, convert.ClassStruct))
	require.Equal(t, `{"a":"x<y & z"}`, n.Normalize(arrowutils.Object{{Key: "a", Value: "x<y & z"}}, convert.ClassStruct))
	require.Equal(t, `{"<k>":["&"]}`, n.Normalize(arrowutils.Object{{Key: "<k>", Value: []any{"&"}}}, convert.ClassMap))
	require.Equal(t, "", n.Normalize(arrowutils.Object{}, convert.ClassStruct))
	require.Equal(t, "", n.Normalize([]any{}, convert.ClassList))
	require.Equal(t, "", n.Normalize(map[string]any{}, convert.ClassMap))

	// Containers in a temporal class are not times.
	require.Equal(t, `[1,2]`, n.Normalize([]any{int64(1), int64(2)}, convert.ClassTimestamp))
}

type badJSON struct{}

func (badJSON) MarshalJSON() ([]byte, error) { return nil, fmt.Errorf("no") }

func TestNormalizeJSONFailure(t *testing.T) {
	n := New()
	v := []any{badJSON{}}
	require.Equal(t, fmt.Sprint(v), n.Normalize(v, convert.ClassList))
}

type panicky struct{}

func (panicky) Error() string { panic("boom") }

func TestNormalizeNeverPanics(t *testing.T) {
	n := New()
	require.NotPanics(t, func() {
		_ = n.Normalize(panicky{}, convert.ClassOther)
	})
}

func TestValue(t *testing.T) {
	require.Equal(t, "2023-11-14 22:13:20.000",
		Value(int64(1700000000), "timestamp[s]", DefaultTimestampFormat, DefaultDateFormat))
	require.Equal(t, "14/11/2023",
		Value(int64(19675), "date32", DefaultTimestampFormat, "DD/MM/YYYY"))
	require.Equal(t, "19675",
		Value(int64(19675), "int32", DefaultTimestampFormat, DefaultDateFormat))
	require.Equal(t, "2023-11-14T22:13:20Z",
		Value(int64(1700000000000), "TIMESTAMP_MILLIS", "YYYY-MM-DD[T]HH:mm:ss[Z]", DefaultDateFormat))
}

func TestCell(t *testing.T) {
	n := New(WithDateFormat("YYYY/MM/DD"))
	col := convert.Column{Name: "d", Type: "date32", Class: convert.ClassDate}
	require.Equal(t, "2023/11/14", n.Cell(int64(19675), col))
}

func TestFormatFloat(t *testing.T) {
	for f, want := range map[float64]string{
		1:                      "1",
		-2.5:                   "-2.5",
		123e18:                 "123000000000000000000",
		1e21:                   "1e+21",
		1.25e-7:                "1.25e-7",
		0.000001:               "0.000001",
		1 / 3.0:                "0.3333333333333333",
		5e-324:                 "5e-324",
		1.7976931348623157e308: "1.7976931348623157e+308",
	} {
		require.Equal(t, want, formatFloat(f), "%v", f)
	}
}
