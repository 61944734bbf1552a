package store

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rpgo/lifedash/internal/domain"
)

// JSONCodec serializes records for the local cache.
type JSONCodec struct{}

// Encode renders r as compact JSON.
func (JSONCodec) Encode(r domain.Record) (string, error) {
	if r == nil {
		r = domain.Record{}
	}
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(b), nil
}

// Decode parses a cached record. JSON null decodes to an empty record;
// any other non-object is an error.
func (JSONCodec) Decode(s string) (domain.Record, error) {
	if len(bytes.TrimSpace([]byte(s))) == 0 {
		return domain.Record{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if m == nil {
		return domain.Record{}, nil
	}
	return domain.Record(m), nil
}

// RoundTrip normalizes r to what a JSON store would hand back: nested
// values become map[string]any, []any, float64, string, bool or nil.
func RoundTrip(r domain.Record) (domain.Record, error) {
	var c JSONCodec
	s, err := c.Encode(r)
	if err != nil {
		return nil, err
	}
	return c.Decode(s)
}
