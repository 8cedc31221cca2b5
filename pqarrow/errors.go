package pqarrow

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind classifies why a parquet file could not be decoded.
type Kind int

const (
	// KindMalformed is structural corruption or input that is not parquet at all.
	KindMalformed Kind = iota + 1
	// KindUnsupportedCodec is a column chunk compressed with a codec outside
	// of SupportedCodecs. Only re-encoding the file helps.
	KindUnsupportedCodec
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnsupportedCodec:
		return "unsupported_codec"
	default:
		return "unknown"
	}
}

// RemediationHint is attached to every unsupported codec error.
const RemediationHint = "Please re-encode the file using a supported codec (e.g. ZSTD or SNAPPY)."

// ErrReleased is returned when a Table is released more than once.
var ErrReleased = errors.New("table already released")

// DecodeError is the only error type returned by Decoder.Decode.
type DecodeError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindUnsupportedCodec:
		return fmt.Sprintf("unsupported compression codec: %s (supported: %s)", e.Detail, strings.Join(SupportedCodecs(), ", "))
	default:
		if e.Err != nil && e.Detail == "" {
			return "malformed parquet file: " + e.Err.Error()
		}
		if e.Err != nil {
			return fmt.Sprintf("malformed parquet file: %s: %v", e.Detail, e.Err)
		}
		return "malformed parquet file: " + e.Detail
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(err error, detail string) error {
	return &DecodeError{Kind: KindMalformed, Detail: detail, Err: err}
}

func unsupportedCodec(detail string) error {
	return errors.WithHint(&DecodeError{Kind: KindUnsupportedCodec, Detail: detail}, RemediationHint)
}

// KindOf returns the Kind of the DecodeError found in err's chain, or zero
// if there is none.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func IsMalformed(err error) bool { return KindOf(err) == KindMalformed }

func IsUnsupportedCodec(err error) bool { return KindOf(err) == KindUnsupportedCodec }
