// Package records defines the schemaless record model shared by the client
// data layer and the server: a Record is a JSON-shaped field map that always
// carries an "id". Reserved fields are listed below; everything else belongs
// to the entity.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Reserved field names.
const (
	FieldID        = "id"
	FieldVersion   = "version"
	FieldUpdatedAt = "updatedAt"
	FieldCreatedAt = "createdAt"
)

// Record is a mapping from field name to JSON-compatible value.
type Record map[string]any

// ID returns the record id or "" when absent.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	switch v := r[FieldID].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// SetID sets the id field.
func (r Record) SetID(id string) { r[FieldID] = id }

// Version returns the server-assigned version, 0 when absent.
func (r Record) Version() int64 {
	if r == nil {
		return 0
	}
	n, _ := toInt64(r[FieldVersion])
	return n
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return map[string]any(t.Clone())
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// Normalize round-trips r through JSON so every value is one of the types
// produced by encoding/json (string, float64, bool, nil, []any, map[string]any).
// Stored and transmitted records are always normalized.
func Normalize(r Record) (Record, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return Decode(b)
}

// Encode serializes r as JSON.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses JSON into a Record.
func Decode(b []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
