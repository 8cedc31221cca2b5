package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/pqexplorer/internal/pqtest"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestView(t *testing.T) {
	path := writeFile(t, "a.parquet", pqtest.Sample(t, 30, 0, &parquet.Snappy))
	out, err := run(t, "view", path, "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "row-4")
	require.NotContains(t, out, "row-5")
	require.Contains(t, out, "2023-11-14 22:13:20.000")
	require.Contains(t, out, "5 of 30 rows, 1 row groups, compression SNAPPY")
}

func TestViewTimestampFormat(t *testing.T) {
	path := writeFile(t, "a.parquet", pqtest.Sample(t, 1, 0, &parquet.Snappy))
	t.Setenv("PQEXPLORER_TIMESTAMP_FORMAT", "YYYY/MM/DD")
	out, err := run(t, "view", path)
	require.NoError(t, err)
	require.Contains(t, out, "2023/11/14")

	out, err = run(t, "view", path, "--timezone", "Asia/Tokyo", "--timestamp-format", "HH:mm")
	require.NoError(t, err)
	require.Contains(t, out, "07:13")
}

func TestSchema(t *testing.T) {
	path := writeFile(t, "a.parquet", pqtest.Sample(t, 3, 0, &parquet.Zstd))
	out, err := run(t, "schema", path)
	require.NoError(t, err)

	var schema struct {
		Name     string `json:"name"`
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	require.Equal(t, "schema", schema.Name)
	require.Len(t, schema.Children, 3)
	require.Equal(t, "ts", schema.Children[2].Name)
}

func TestMeta(t *testing.T) {
	a := writeFile(t, "a.parquet", pqtest.Sample(t, 9, 3, &parquet.Snappy))
	b := writeFile(t, "b.parquet", pqtest.Sample(t, 2, 0, pqtest.LZO{}))
	out, err := run(t, "meta", a, b)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, "File:"))
	require.Equal(t, 4, strings.Count(out, "Row group:"))
	require.Contains(t, out, "LZO")
	require.Contains(t, out, "false")

	_, err = run(t, "meta", writeFile(t, "bad.parquet", []byte("nope")))
	require.Error(t, err)
}

func TestExport(t *testing.T) {
	path := writeFile(t, "a.parquet", pqtest.Sample(t, 2, 0, &parquet.Snappy))
	out, err := run(t, "export", path, "--format", "csv")
	require.NoError(t, err)
	require.Equal(t, "id,name,ts\n0,row-0,2023-11-14 22:13:20.000\n1,row-1,2023-11-14 22:13:21.000", out)

	target := filepath.Join(t.TempDir(), "out.json")
	_, err = run(t, "export", path, "--format", "json", "-o", target)
	require.NoError(t, err)
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"id":"0","name":"row-0","ts":"2023-11-14 22:13:20.000"},
		{"id":"1","name":"row-1","ts":"2023-11-14 22:13:21.000"}
	]`, string(b))

	_, err = run(t, "export", path, "--format", "xml")
	require.Error(t, err)
}

func TestFriendlyErrors(t *testing.T) {
	path := writeFile(t, "lzo.parquet", pqtest.Sample(t, 2, 0, pqtest.LZO{}))
	_, err := run(t, "view", path)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "Unsupported compression codec."), err.Error())

	path = writeFile(t, "big.parquet", pqtest.Sample(t, 100, 0, &parquet.Uncompressed))
	_, err = run(t, "view", path, "--max-size", "1KB")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "Parquet processing error: "), err.Error())
}

func TestInvalidFlags(t *testing.T) {
	path := writeFile(t, "a.parquet", pqtest.Sample(t, 1, 0, &parquet.Snappy))
	_, err := run(t, "view", path, "--timezone", "Mars/Olympus_Mons")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), `invalid timezone "Mars/Olympus_Mons": `), err.Error())

	_, err = run(t, "view", path, "--max-size", "lots")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), `invalid max size "lots": `), err.Error())
}
