// Package pqexplorer decodes parquet files into a schema tree and a bounded
// set of display records.
package pqexplorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/polarsignals/pqexplorer/internal/records"
	"github.com/polarsignals/pqexplorer/normalize"
	"github.com/polarsignals/pqexplorer/pqarrow"
	"github.com/polarsignals/pqexplorer/pqarrow/convert"
	"github.com/polarsignals/pqexplorer/storage"
)

// DefaultRowCap is the number of records materialized unless configured
// otherwise with WithRowCap.
const DefaultRowCap = records.DefaultRowCap

const processingError = "parquet processing error"

// Record is one row of display strings keyed by column name.
type Record = records.Record

// Result is everything a viewer needs to show a parquet file.
type Result struct {
	Schema  *convert.SchemaNode `json:"schema"`
	Records []Record            `json:"records"`
	Columns []string            `json:"columns"`
	// NumRows is the number of rows in the file. It is larger than
	// len(Records) when the result was cut off at the row cap.
	NumRows     int64  `json:"num_rows"`
	RowGroups   int    `json:"row_groups"`
	Compression string `json:"compression,omitempty"`
}

// Truncated reports whether the file holds more rows than were materialized.
func (r *Result) Truncated() bool {
	return r.NumRows > int64(len(r.Records))
}

// Processor runs the decode pipeline. It holds no per-call state and is safe
// for concurrent use.
type Processor struct {
	logger     log.Logger
	tracer     trace.Tracer
	metrics    *metrics
	source     storage.Source
	decoder    *pqarrow.Decoder
	normalizer *normalize.Normalizer
	rowCap     int

	pool           memory.Allocator
	normalizerOpts []normalize.Option
}

type Option func(*Processor) error

// WithRowCap bounds the number of records in a Result.
func WithRowCap(n int) Option {
	return func(p *Processor) error {
		if n <= 0 {
			return errors.Newf("row cap must be positive, got %d", n)
		}
		p.rowCap = n
		return nil
	}
}

// WithTimestampFormat sets the layout timestamp cells are rendered with.
func WithTimestampFormat(layout string) Option {
	return func(p *Processor) error {
		p.normalizerOpts = append(p.normalizerOpts, normalize.WithTimestampFormat(layout))
		return nil
	}
}

// WithDateFormat sets the layout date cells are rendered with.
func WithDateFormat(layout string) Option {
	return func(p *Processor) error {
		p.normalizerOpts = append(p.normalizerOpts, normalize.WithDateFormat(layout))
		return nil
	}
}

// WithLocation sets the time zone temporal cells are rendered in. The
// default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *Processor) error {
		p.normalizerOpts = append(p.normalizerOpts, normalize.WithLocation(loc))
		return nil
	}
}

// WithSource sets where ProcessFile reads files from.
func WithSource(src storage.Source) Option {
	return func(p *Processor) error {
		p.source = src
		return nil
	}
}

// WithDecoder replaces the default decoder. WithAllocator has no effect when
// a decoder is given.
func WithDecoder(d *pqarrow.Decoder) Option {
	return func(p *Processor) error {
		p.decoder = d
		return nil
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) error {
		p.tracer = tracer
		return nil
	}
}

// WithAllocator sets the allocator decoded tables are held in.
func WithAllocator(pool memory.Allocator) Option {
	return func(p *Processor) error {
		p.pool = pool
		return nil
	}
}

func New(
	logger log.Logger,
	reg prometheus.Registerer,
	options ...Option,
) (*Processor, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &Processor{
		logger: logger,
		tracer: noop.NewTracerProvider().Tracer(""),
		rowCap: DefaultRowCap,
		pool:   memory.DefaultAllocator,
	}
	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	p.metrics = newMetrics(reg)
	p.normalizer = normalize.New(p.normalizerOpts...)
	if p.decoder == nil {
		p.decoder = pqarrow.NewDecoder(
			pqarrow.WithAllocator(p.pool),
			pqarrow.WithLogger(logger),
		)
	}
	return p, nil
}

func (p *Processor) RowCap() int { return p.rowCap }

// Decode turns the bytes of a parquet file into a Result. Decoding the same
// bytes twice yields the same Result.
//
// The decoded table is released before Decode returns, whatever the outcome.
func (p *Processor) Decode(ctx context.Context, data []byte) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "Processor/Decode")
	defer span.End()
	span.SetAttributes(attribute.Int("bytes", len(data)))

	start := time.Now()
	defer func() {
		p.metrics.decodeDuration.Observe(time.Since(start).Seconds())
	}()

	tbl, err := p.decoder.Decode(ctx, data)
	if err != nil {
		kind := pqarrow.KindOf(err)
		p.metrics.decodeErrors.WithLabelValues(kind.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		level.Error(p.logger).Log("msg", "failed to decode parquet file", "err", err, "kind", kind)
		return nil, err
	}
	p.metrics.tablesDecoded.Inc()
	defer p.release(tbl)

	meta := tbl.Metadata()
	schema := p.project(ctx, tbl)
	columns := convert.Columns(schema)
	recs := p.materialize(ctx, tbl, columns)

	res := &Result{
		Schema:      schema,
		Records:     recs,
		Columns:     convert.Names(columns),
		NumRows:     tbl.NumRows(),
		RowGroups:   len(meta.RowGroups),
		Compression: meta.Compression(),
	}
	span.SetAttributes(
		attribute.Int64("rows", res.NumRows),
		attribute.Int("records", len(res.Records)),
	)
	if res.Truncated() {
		p.metrics.truncated.Inc()
		level.Warn(p.logger).Log(
			"msg", "result truncated at row cap",
			"rows", res.NumRows,
			"row_cap", p.rowCap,
		)
	}
	level.Debug(p.logger).Log(
		"msg", "decoded parquet file",
		"rows", res.NumRows,
		"columns", len(res.Columns),
		"row_groups", res.RowGroups,
		"duration", time.Since(start),
	)
	return res, nil
}

// ProcessFile reads name from the configured Source and decodes it.
func (p *Processor) ProcessFile(ctx context.Context, name string) (*Result, error) {
	if p.source == nil {
		return nil, errors.Newf("%s: no source configured to read %s", processingError, name)
	}
	data, err := p.source.ReadAll(ctx, name)
	if err != nil {
		level.Error(p.logger).Log("msg", "failed to read parquet file", "file", name, "err", err)
		return nil, errors.Wrap(err, processingError)
	}
	return p.Decode(ctx, data)
}

func (p *Processor) project(ctx context.Context, tbl *pqarrow.Table) *convert.SchemaNode {
	_, span := p.tracer.Start(ctx, "Processor/Project")
	defer span.End()

	meta := tbl.Metadata()
	return convert.Project(tbl.Schema(), meta.Fields, len(meta.RowGroups))
}

func (p *Processor) materialize(ctx context.Context, tbl *pqarrow.Table, columns []convert.Column) []Record {
	_, span := p.tracer.Start(ctx, "Processor/Materialize")
	defer span.End()

	recs := records.Materialize(tbl.Arrow(), columns, p.rowCap, p.normalizer.Cell)
	p.metrics.recordsMaterialized.Add(float64(len(recs)))
	return recs
}

func (p *Processor) release(tbl *pqarrow.Table) {
	p.metrics.tablesReleased.Inc()
	if err := tbl.Release(); err != nil {
		p.metrics.releaseErrors.Inc()
		level.Warn(p.logger).Log("msg", "failed to release decoded table", "err", err)
	}
}

// UserMessage renders err as the text shown to the person who opened the
// file.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if pqarrow.IsUnsupportedCodec(err) {
		return fmt.Sprintf(
			"Unsupported compression codec. This viewer supports %s. %s",
			strings.Join(pqarrow.SupportedCodecs(), ", "),
			pqarrow.RemediationHint,
		)
	}
	msg := strings.TrimPrefix(err.Error(), processingError+": ")
	return "Parquet processing error: " + msg
}
