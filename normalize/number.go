package normalize

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// number is a numeric cell value. Integers are kept exact so epoch
// arithmetic on int64 columns never goes through float64.
type number struct {
	isInt bool
	i     int64
	f     float64
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// toNumber reports whether v is numeric, or a string holding a number.
// Blank strings are not numbers.
func toNumber(v any) (number, bool) {
	switch v := v.(type) {
	case int:
		return number{isInt: true, i: int64(v)}, true
	case int8:
		return number{isInt: true, i: int64(v)}, true
	case int16:
		return number{isInt: true, i: int64(v)}, true
	case int32:
		return number{isInt: true, i: int64(v)}, true
	case int64:
		return number{isInt: true, i: v}, true
	case uint:
		return fromUint(uint64(v)), true
	case uint8:
		return number{isInt: true, i: int64(v)}, true
	case uint16:
		return number{isInt: true, i: int64(v)}, true
	case uint32:
		return number{isInt: true, i: int64(v)}, true
	case uint64:
		return fromUint(v), true
	case float32:
		return number{f: float64(v)}, true
	case float64:
		return number{f: v}, true
	case *big.Int:
		if v == nil {
			return number{}, false
		}
		if v.IsInt64() {
			return number{isInt: true, i: v.Int64()}, true
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return number{f: f}, true
	case json.Number:
		return parseNumber(string(v))
	case string:
		return parseNumber(v)
	default:
		return number{}, false
	}
}

func fromUint(u uint64) number {
	if u <= math.MaxInt64 {
		return number{isInt: true, i: int64(u)}
	}
	return number{f: float64(u)}
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{isInt: true, i: i}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeErr(err) {
		return number{}, false
	}
	if math.IsNaN(f) {
		return number{}, false
	}
	return number{f: f}, true
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// formatFloat renders f the way JavaScript's Number#toString does: the
// shortest digits that round trip, in plain notation for decimal exponents
// in [-7, 21) and in exponent notation otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// d.dddde±xx
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	x, _ := strconv.Atoi(exp)
	k := len(digits)
	n := x + 1

	var out string
	switch {
	case k <= n && n <= 21:
		out = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		out = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		out = "0." + strings.Repeat("0", -n) + digits
	default:
		expSign := "+"
		if n-1 < 0 {
			expSign = "-"
		}
		out = digits[:1]
		if k > 1 {
			out += "." + digits[1:]
		}
		out += "e" + expSign + strconv.Itoa(abs(n-1))
	}
	return sign + out
}
