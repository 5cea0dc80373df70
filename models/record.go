package models

import (
	"bytes"
	"encoding/json"
)

// Field is one (header, value) cell of a raw CSV row.
type Field struct {
	Header string
	Value  string
}

// RawRecord holds one unprocessed CSV data line exactly as tokenized.
// Headers keep their original casing and whitespace. Fields are kept in
// column order and duplicate headers are not collapsed; lookups return the
// first matching column.
type RawRecord struct {
	Fields []Field
}

// Get returns the value of the first column whose header equals header.
func (r RawRecord) Get(header string) (string, bool) {
	for _, f := range r.Fields {
		if f.Header == header {
			return f.Value, true
		}
	}
	return "", false
}

// Headers returns the record's headers in column order.
func (r RawRecord) Headers() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Header
	}
	return out
}

// Len returns the number of columns.
func (r RawRecord) Len() int { return len(r.Fields) }

// MarshalJSON encodes the record as a JSON object in column order.
// A duplicate header is written once, carrying its first value.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	seen := make(map[string]struct{}, len(r.Fields))
	first := true
	for _, f := range r.Fields {
		if _, dup := seen[f.Header]; dup {
			continue
		}
		seen[f.Header] = struct{}{}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(f.Header)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
