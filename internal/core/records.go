package core

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Field is one key/value pair of a rendered row.
type Field struct {
	Key   string
	Value string
}

// Record is a rendered row with its fields in column order.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes the record as an object, preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKeyValue(&buf, f.Key, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RecordSet is a list of rendered rows. It marshals as an object keyed
// "object1", "object2", ... in row order.
type RecordSet []Record

// MarshalJSON writes the set as {"object1": {...}, "object2": {...}}.
func (s RecordSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(objectKey(i))
		buf.Write(key)
		buf.WriteByte(':')
		b, err := rec.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKeyValue(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func objectKey(i int) string { return "object" + strconv.Itoa(i+1) }

func fieldKey(i int) string { return "field" + strconv.Itoa(i+1) }

// RenderRecords keys each value by its header name, or "fieldN" when there
// is no header, the header is shorter than the row, or the name was
// already used earlier in the same row. A fallback key that a header already
// claimed moves on to the next free fieldN.
func RenderRecords(rows [][]string, header []string) RecordSet {
	out := make(RecordSet, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, 0, len(row))
		seen := make(map[string]bool, len(row))
		for j, value := range row {
			var key string
			if j < len(header) && header[j] != "" && !seen[header[j]] {
				key = header[j]
			} else {
				key = unusedFieldKey(j, seen)
			}
			seen[key] = true
			rec = append(rec, Field{Key: key, Value: value})
		}
		out = append(out, rec)
	}
	return out
}

// unusedFieldKey returns the first fieldN, starting at column i, not in seen.
func unusedFieldKey(i int, seen map[string]bool) string {
	for n := i; ; n++ {
		if key := fieldKey(n); !seen[key] {
			return key
		}
	}
}
