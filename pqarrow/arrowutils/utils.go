package arrowutils

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// GetValue returns the value at index i in arr. If the value is null, nil is
// returned.
//
// Scalars are widened: signed integers to int64, unsigned integers to uint64
// and floats to float64. Temporal values keep their stored integer so the
// caller decides how to read the unit. Decimals become json.Number holding
// the exact decimal text. Structs and maps become an Object, lists a []any.
func GetValue(arr arrow.Array, i int) (any, error) {
	if i < 0 || i >= arr.Len() {
		return nil, errors.Newf("index %d out of range [0, %d)", i, arr.Len())
	}
	if arr.IsNull(i) {
		return nil, nil
	}

	switch a := arr.(type) {
	case *array.Null:
		return nil, nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return uint64(a.Value(i)), nil
	case *array.Uint16:
		return uint64(a.Value(i)), nil
	case *array.Uint32:
		return uint64(a.Value(i)), nil
	case *array.Uint64:
		return a.Value(i), nil
	case *array.Float16:
		return float64(a.Value(i).Float32()), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.StringView:
		return a.Value(i), nil
	case *array.Binary:
		return bytes.Clone(a.Value(i)), nil
	case *array.LargeBinary:
		return bytes.Clone(a.Value(i)), nil
	case *array.BinaryView:
		return bytes.Clone(a.Value(i)), nil
	case *array.FixedSizeBinary:
		return bytes.Clone(a.Value(i)), nil
	case *array.Timestamp:
		return int64(a.Value(i)), nil
	case *array.Date32:
		return int64(a.Value(i)), nil
	case *array.Date64:
		return int64(a.Value(i)), nil
	case *array.Duration:
		return int64(a.Value(i)), nil
	case *array.Time32, *array.Time64:
		return a.ValueStr(i), nil
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return json.Number(a.Value(i).ToString(scale)), nil
	case *array.Decimal256:
		scale := a.DataType().(*arrow.Decimal256Type).Scale
		return json.Number(a.Value(i).ToString(scale)), nil
	case *array.Dictionary:
		return GetValue(a.Dictionary(), a.GetValueIndex(i))
	case *array.RunEndEncoded:
		return GetValue(a.Values(), a.GetPhysicalIndex(i))
	case *array.Map:
		return mapValue(a, i)
	case array.ListLike:
		return listValue(a, i)
	case *array.Struct:
		return structValue(a, i)
	default:
		return a.ValueStr(i), nil
	}
}

func listValue(a array.ListLike, i int) ([]any, error) {
	start, end := a.ValueOffsets(i)
	values := a.ListValues()
	res := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		v, err := GetValue(values, int(j))
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func mapValue(a *array.Map, i int) (Object, error) {
	start, end := a.ValueOffsets(i)
	keys, items := a.Keys(), a.Items()
	res := make(Object, 0, end-start)
	for j := start; j < end; j++ {
		k, err := GetValue(keys, int(j))
		if err != nil {
			return nil, err
		}
		v, err := GetValue(items, int(j))
		if err != nil {
			return nil, err
		}
		res = res.Set(keyString(k), v)
	}
	return res, nil
}

func structValue(a *array.Struct, i int) (Object, error) {
	dt := a.DataType().(*arrow.StructType)
	res := make(Object, 0, a.NumField())
	for j := 0; j < a.NumField(); j++ {
		v, err := GetValue(a.Field(j), i)
		if err != nil {
			return nil, err
		}
		res = res.Set(dt.Field(j).Name, v)
	}
	return res, nil
}

func keyString(k any) string {
	switch k := k.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}

// Member is one key of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a struct or map value with its keys in storage order.
type Object []Member

// Set replaces the value of an existing key in place and appends new keys.
func (o Object) Set(key string, value any) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Member{Key: key, Value: value})
}

// Get returns the value of key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

func (o Object) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.MarshalWithOption(m.Key, json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.MarshalWithOption(m.Value, json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
