package records

import (
	"bytes"
	stdjson "encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// Record is one materialized row: column names mapped to display strings,
// in column order. A Record is immutable once built.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord builds a Record from parallel key and value slices. A key that
// repeats keeps its first position and takes the last value written to it.
func NewRecord(keys, values []string) Record {
	b := newBuilder(len(keys))
	for i, k := range keys {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		b.set(k, v)
	}
	return b.record()
}

func (r Record) Len() int { return len(r.keys) }

// Keys returns the keys in order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Values returns the values in key order.
func (r Record) Values() []string {
	vals := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		vals = append(vals, r.values[k])
	}
	return vals
}

// MarshalJSON writes the record as an object with keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.MarshalWithOption(k, json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalWithOption(r.values[k], json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the order of its keys. String values
// are taken as they are, null becomes the empty string and any other value
// keeps its JSON text.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := stdjson.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(stdjson.Delim); !ok || d != '{' {
		return errors.Newf("record must be a JSON object, got %v", tok)
	}

	bld := newBuilder(0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Newf("unexpected object key %v", tok)
		}
		var raw stdjson.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		val, err := rawString(raw)
		if err != nil {
			return err
		}
		bld.set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = bld.record()
	return nil
}

func rawString(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return "", nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	default:
		return string(raw), nil
	}
}

type builder struct {
	keys   []string
	values map[string]string
}

func newBuilder(n int) *builder {
	return &builder{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
}

func (b *builder) set(key, value string) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

func (b *builder) record() Record {
	return Record{keys: b.keys, values: b.values}
}
