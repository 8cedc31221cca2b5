package pqarrow

import (
	"bytes"
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	arrowparquet "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	arrowpq "github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-kit/log"
	"github.com/parquet-go/parquet-go"

	"github.com/polarsignals/pqexplorer/recovery"
)

// Decoder turns the bytes of a parquet file into a Table.
//
// The footer is read with parquet-go first: it tells a corrupt container
// apart from a readable one using an unsupported codec without touching any
// page. Only then are the pages decoded into arrow memory.
type Decoder struct {
	logger    log.Logger
	pool      memory.Allocator
	parallel  bool
	batchSize int64
}

type Option func(*Decoder)

// WithAllocator sets the allocator backing decoded tables.
func WithAllocator(pool memory.Allocator) Option {
	return func(d *Decoder) {
		d.pool = pool
	}
}

// WithParallel decodes columns concurrently.
func WithParallel(parallel bool) Option {
	return func(d *Decoder) {
		d.parallel = parallel
	}
}

func WithBatchSize(size int64) Option {
	return func(d *Decoder) {
		d.batchSize = size
	}
}

func WithLogger(logger log.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

func NewDecoder(options ...Option) *Decoder {
	d := &Decoder{
		logger:    log.NewNopLogger(),
		pool:      memory.DefaultAllocator,
		batchSize: 64 * 1024,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Decode decodes a complete parquet file. The returned Table must be
// released by the caller. Every error carries a *DecodeError.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*Table, error) {
	pf, err := d.openFooter(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	if err := validateCodecs(pf.Metadata()); err != nil {
		return nil, err
	}
	meta := newFileMetadata(pf)

	var tbl arrow.Table
	if err := recovery.Do(func() error {
		var err error
		tbl, err = d.readTable(ctx, data)
		return err
	}, d.logger)(); err != nil {
		if tbl != nil {
			tbl.Release()
		}
		if isCodecFailure(err) {
			return nil, unsupportedCodec(err.Error())
		}
		return nil, malformed(err, "decoding pages")
	}

	return NewTable(tbl, meta), nil
}

// ReadMetadata reads the footer of the parquet file in r without decoding
// any page. Unlike Decode it does not reject unsupported codecs.
func (d *Decoder) ReadMetadata(r io.ReaderAt, size int64) (*FileMetadata, error) {
	pf, err := d.openFooter(r, size)
	if err != nil {
		return nil, err
	}
	return newFileMetadata(pf), nil
}

func (d *Decoder) openFooter(r io.ReaderAt, size int64) (*parquet.File, error) {
	if size <= 0 {
		return nil, malformed(nil, "empty input")
	}
	var pf *parquet.File
	if err := recovery.Do(func() error {
		var err error
		pf, err = parquet.OpenFile(
			r,
			size,
			parquet.SkipPageIndex(true),
			parquet.SkipBloomFilters(true),
		)
		return err
	}, d.logger)(); err != nil {
		return nil, malformed(err, "reading footer")
	}
	return pf, nil
}

// readTable decodes the pages with a scratch allocator and copies the
// finished columns into the pool. The arrow page reader keeps the last page
// and the decoder buffers of every column chunk after the read, so nothing
// it allocates is handed to the pool directly.
func (d *Decoder) readTable(ctx context.Context, data []byte) (arrow.Table, error) {
	scratch := memory.NewGoAllocator()
	rdr, err := file.NewParquetReader(
		bytes.NewReader(data),
		file.WithReadProps(arrowparquet.NewReaderProperties(scratch)),
	)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	fr, err := arrowpq.NewFileReader(rdr, arrowpq.ArrowReadProperties{
		Parallel:  d.parallel,
		BatchSize: d.batchSize,
	}, scratch)
	if err != nil {
		return nil, err
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return compact(tbl, d.pool)
}

// compact copies every column of tbl into a single chunk allocated from pool.
func compact(tbl arrow.Table, pool memory.Allocator) (arrow.Table, error) {
	schema := tbl.Schema()
	cols := make([]arrow.Column, 0, tbl.NumCols())
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()

	for i := 0; i < int(tbl.NumCols()); i++ {
		field := schema.Field(i)
		arr, err := concatenate(tbl.Column(i).Data().Chunks(), field.Type, pool)
		if err != nil {
			return nil, err
		}
		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		arr.Release()
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}
	return array.NewTable(schema, cols, tbl.NumRows()), nil
}

func concatenate(chunks []arrow.Array, dt arrow.DataType, pool memory.Allocator) (arrow.Array, error) {
	if len(chunks) == 0 {
		return array.MakeArrayOfNull(pool, dt, 0), nil
	}
	return array.Concatenate(chunks, pool)
}
