package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"github.com/polarsignals/pqexplorer/internal/pqtest"
)

func TestBucketSource(t *testing.T) {
	ctx := context.Background()
	bucket := objstore.NewInMemBucket()
	data := pqtest.Sample(t, 10, 0, &parquet.Snappy)
	require.NoError(t, bucket.Upload(ctx, "sample.parquet", bytes.NewReader(data)))

	src := NewBucketSource(bucket)

	info, err := src.Stat(ctx, "sample.parquet")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), info.Size)

	got, err := src.ReadAll(ctx, "sample.parquet")
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = src.ReadAll(ctx, "missing.parquet")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = src.Stat(ctx, "missing.parquet")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestBucketSourceMaxSize(t *testing.T) {
	ctx := context.Background()
	bucket := objstore.NewInMemBucket()
	require.NoError(t, bucket.Upload(ctx, "big", bytes.NewReader(make([]byte, 128))))
	require.NoError(t, bucket.Upload(ctx, "small", bytes.NewReader(make([]byte, 16))))

	src := NewBucketSource(bucket, WithMaxSize(64))
	_, err := src.ReadAll(ctx, "big")
	require.True(t, errors.Is(err, ErrTooLarge))
	require.Contains(t, err.Error(), "limit is 64")

	got, err := src.ReadAll(ctx, "small")
	require.NoError(t, err)
	require.Len(t, got, 16)
}

func TestReaderAtFooter(t *testing.T) {
	ctx := context.Background()
	bucket := objstore.NewInMemBucket()
	data := pqtest.Sample(t, 7, 3, &parquet.Zstd)
	require.NoError(t, bucket.Upload(ctx, "f.parquet", bytes.NewReader(data)))

	r, size, err := NewBucketSource(bucket).ReaderAt(ctx, "f.parquet")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), size)

	f, err := parquet.OpenFile(r, size)
	require.NoError(t, err)
	require.Equal(t, int64(7), f.NumRows())
	require.Len(t, f.RowGroups(), 3)
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := pqtest.Sample(t, 2, 0, &parquet.Snappy)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.parquet"), data, 0o600))

	src, err := NewFileSource(dir)
	require.NoError(t, err)
	defer src.Close()

	info, err := src.Stat(ctx, "a.parquet")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), info.Size)
	require.False(t, info.LastModified.IsZero())

	got, err := src.ReadAll(ctx, "a.parquet")
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = src.ReadAll(ctx, "b.parquet")
	require.True(t, errors.Is(err, ErrNotFound))
}
