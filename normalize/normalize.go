// Package normalize renders decoded parquet values as display strings.
//
// Rendering never fails. Every value has a fallback text, and a panic while
// rendering a value degrades to the generic text of that value.
package normalize

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/polarsignals/pqexplorer/pqarrow/convert"
)

const (
	DefaultTimestampFormat = "YYYY-MM-DD HH:mm:ss.SSS"
	DefaultDateFormat      = "YYYY-MM-DD"
)

// maxEpochMillis is the largest distance from the epoch a JavaScript Date
// can represent.
const maxEpochMillis = 8.64e15

const millisPerDay = 24 * 60 * 60 * 1000

// Normalizer holds the compiled formats for temporal columns. It is safe for
// concurrent use.
type Normalizer struct {
	timestamp *Pattern
	date      *Pattern
	loc       *time.Location
}

type Option func(*Normalizer)

func WithTimestampFormat(layout string) Option {
	return func(n *Normalizer) {
		n.timestamp = Compile(layout)
	}
}

func WithDateFormat(layout string) Option {
	return func(n *Normalizer) {
		n.date = Compile(layout)
	}
}

// WithLocation sets the zone times are rendered in. The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

func New(options ...Option) *Normalizer {
	n := &Normalizer{
		timestamp: Compile(DefaultTimestampFormat),
		date:      Compile(DefaultDateFormat),
		loc:       time.UTC,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// Value renders value for a column whose type descriptor is physicalType.
func Value(value any, physicalType, timestampFormat, dateFormat string) string {
	return New(
		WithTimestampFormat(timestampFormat),
		WithDateFormat(dateFormat),
	).Normalize(value, convert.Classify(physicalType))
}

// Cell renders a value of col. It has the signature records.Materialize expects.
func (n *Normalizer) Cell(value any, col convert.Column) string {
	return n.Normalize(value, col.Class)
}

// Normalize renders value, a cell of a column of the given class.
//
// Timestamp and date cells holding a time.Time, a number or a date string
// are formatted with the matching pattern. Temporal numbers carry no unit,
// so for timestamps it is derived from the magnitude v:
//
//	v > 1e15         nanoseconds
//	1e14 < v <= 1e15 microseconds
//	1e11 < v <= 1e14 milliseconds
//	1e9 < v <= 1e11  seconds
//	v <= 1e9         days
//
// Date numbers are days when 0 <= v < 100000 and are otherwise not
// converted. Values that do not resolve to a time fall through to the
// generic rendering.
func (n *Normalizer) Normalize(value any, class convert.TypeClass) (out string) {
	if value == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprint(value)
		}
	}()

	if class.Temporal() {
		if t, ok := n.resolve(value, class); ok {
			return n.format(t, class, value)
		}
	}
	return stringify(value)
}

func (n *Normalizer) format(t time.Time, class convert.TypeClass, raw any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = stringify(raw)
		}
	}()
	p := n.timestamp
	if class == convert.ClassDate {
		p = n.date
	}
	return p.Format(t.In(n.loc))
}

func (n *Normalizer) resolve(value any, class convert.TypeClass) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	}

	if num, ok := toNumber(value); ok {
		var (
			ms int64
			ok bool
		)
		if class == convert.ClassDate {
			ms, ok = dateMillis(num)
		} else {
			ms, ok = timestampMillis(num)
		}
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}

	if s, ok := value.(string); ok {
		return parseDate(s, n.loc)
	}
	return time.Time{}, false
}

func timestampMillis(n number) (int64, bool) {
	if n.isInt {
		v := n.i
		switch {
		case v > 1e15:
			return checkMillis(v / 1e6)
		case v > 1e14:
			return checkMillis(v / 1e3)
		case v > 1e11:
			return checkMillis(v)
		case v > 1e9:
			return checkMillis(v * 1000)
		case v < -1e8:
			// Any number of days below this is out of range and would
			// overflow the multiplication.
			return 0, false
		default:
			return checkMillis(v * millisPerDay)
		}
	}

	f := n.f
	switch {
	case f > 1e15:
		return floatMillis(math.Floor(f / 1e6))
	case f > 1e14:
		return floatMillis(math.Floor(f / 1e3))
	case f > 1e11:
		return floatMillis(f)
	case f > 1e9:
		return floatMillis(f * 1000)
	default:
		return floatMillis(f * millisPerDay)
	}
}

func dateMillis(n number) (int64, bool) {
	if n.isInt {
		if n.i < 0 || n.i >= 100000 {
			return 0, false
		}
		return n.i * millisPerDay, true
	}
	if !(n.f >= 0 && n.f < 100000) {
		return 0, false
	}
	return floatMillis(n.f * millisPerDay)
}

func checkMillis(ms int64) (int64, bool) {
	if ms > maxEpochMillis || ms < -maxEpochMillis {
		return 0, false
	}
	return ms, true
}

func floatMillis(ms float64) (int64, bool) {
	if math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
		return 0, false
	}
	return int64(math.Trunc(ms)), true
}

// stringify is the rendering of values that are not formatted as times.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case json.Number:
		return string(v)
	case *big.Int:
		if v == nil {
			return ""
		}
		return v.String()
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return base64.StdEncoding.EncodeToString(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case error:
		return v.Error()
	}
	return structural(v)
}

// structural renders containers as JSON. Empty containers render as the
// empty string.
func structural(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() == 0 {
			return ""
		}
	case reflect.Struct:
		if rv.NumField() == 0 {
			return ""
		}
	default:
		return fmt.Sprint(v)
	}

	b, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
