// Copyright (c) The FrostDB Authors.
// Licensed under the Apache License 2.0.
// Copyright (c) The Thanos Authors.
// Licensed under the Apache License 2.0.

package storage

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
)

var (
	// ErrNotFound marks errors for objects that do not exist.
	ErrNotFound = errors.New("object not found")
	// ErrTooLarge marks objects above the configured size limit.
	ErrTooLarge = errors.New("object too large")
)

// Info is what a Source knows about an object without reading it.
type Info struct {
	Size         int64
	LastModified time.Time
}

// Source provides the bytes of parquet files.
type Source interface {
	ReadAll(ctx context.Context, name string) ([]byte, error)
	Stat(ctx context.Context, name string) (Info, error)
}

// BucketSource is a Source over an objstore.Bucket.
type BucketSource struct {
	bucket  objstore.Bucket
	maxSize int64
}

type Option func(*BucketSource)

// WithMaxSize rejects objects larger than n bytes before reading them.
// A value <= 0 disables the check.
func WithMaxSize(n int64) Option {
	return func(s *BucketSource) {
		s.maxSize = n
	}
}

func NewBucketSource(bucket objstore.Bucket, options ...Option) *BucketSource {
	s := &BucketSource{bucket: bucket}
	for _, option := range options {
		option(s)
	}
	return s
}

// NewFileSource serves the files below dir.
func NewFileSource(dir string, options ...Option) (*BucketSource, error) {
	bucket, err := filesystem.NewBucket(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open directory %s", dir)
	}
	return NewBucketSource(bucket, options...), nil
}

func (s *BucketSource) Bucket() objstore.Bucket { return s.bucket }

func (s *BucketSource) Stat(ctx context.Context, name string) (Info, error) {
	attrs, err := s.bucket.Attributes(ctx, name)
	if err != nil {
		return Info{}, s.wrap(err, "stat", name)
	}
	return Info{Size: attrs.Size, LastModified: attrs.LastModified}, nil
}

// ReadAll returns the complete content of name.
func (s *BucketSource) ReadAll(ctx context.Context, name string) ([]byte, error) {
	if s.maxSize > 0 {
		info, err := s.Stat(ctx, name)
		if err != nil {
			return nil, err
		}
		if info.Size > s.maxSize {
			return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes, limit is %d", name, info.Size, s.maxSize)
		}
	}

	rc, err := s.bucket.Get(ctx, name)
	if err != nil {
		return nil, s.wrap(err, "get", name)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return data, nil
}

// ReaderAt returns a reader for ranged reads of name and its size. Reading
// only the parts of a file that are needed, like the footer, avoids
// loading it whole.
func (s *BucketSource) ReaderAt(ctx context.Context, name string) (io.ReaderAt, int64, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	return &FileReaderAt{Bucket: s.bucket, name: name, ctx: ctx}, info.Size, nil
}

func (s *BucketSource) Close() error { return s.bucket.Close() }

func (s *BucketSource) wrap(err error, op, name string) error {
	if s.bucket.IsObjNotFoundErr(err) {
		err = errors.Mark(err, ErrNotFound)
	}
	return errors.Wrapf(err, "%s %s", op, name)
}

// FileReaderAt is a wrapper around a objstore.Bucket that implements the ReaderAt interface.
type FileReaderAt struct {
	objstore.Bucket
	name string
	ctx  context.Context
}

// ReadAt implements the io.ReaderAt interface.
func (b *FileReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	rc, err := b.GetRange(b.ctx, b.name, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	total := 0
	for total < len(p) { // Read does not guarantee the buffer will be full, but ReadAt does
		n, err = rc.Read(p[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return total, err
		}
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}
