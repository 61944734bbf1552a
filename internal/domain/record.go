package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// LastUpdatedKey is the conflict-resolution clock of every persisted record.
const LastUpdatedKey = "lastUpdated"

// Record is a persisted document: arbitrary nested JSON values plus an
// epoch-millisecond lastUpdated field.
type Record map[string]any

// NewRecord returns an empty record.
func NewRecord() Record { return Record{} }

// LastUpdated returns the record's timestamp, 0 when missing or not numeric.
func (r Record) LastUpdated() int64 {
	if r == nil {
		return 0
	}
	return toInt64(r[LastUpdatedKey])
}

// SetLastUpdated stamps the record.
func (r Record) SetLastUpdated(ms int64) {
	r[LastUpdatedKey] = ms
}

// IsEmpty reports whether the record has no keys at all.
func (r Record) IsEmpty() bool { return len(r) == 0 }

// Clone deep-copies nested maps and slices; other values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return cloneMap(r)
}

// Map returns the value under key as a nested object, or nil.
func (r Record) Map(key string) map[string]any {
	m, _ := AsMap(r[key])
	return m
}

// AsMap unwraps the object forms a decoded record can hold.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies decoded JSON objects and arrays.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Record:
		return Record(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return 0
}
