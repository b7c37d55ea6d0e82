/*
wire.go - Effect envelope and payload normalization

PURPOSE:
  An Effect is the wire-format output of a successful operation: a type tag
  plus a JSON-encoded payload the host applies. This file owns the conversion
  of in-memory field values into that JSON.

WIRE CONVENTIONS:
  - Identifiers serialize as strings (UUIDs stringified)
  - Decimals serialize as fixed-point strings with two places, never floats
  - Absent amounts serialize as null, not "0.00" - a supplied zero and an
    unset field are different existence states
  - Dates serialize as "2006-01-02", datetimes as RFC 3339
  - Nested objects implement Payloader; slices are normalized element-wise

SEE ALSO:
  - lifecycle.go: Emit / EmitPayload call MarshalPayload
*/
package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// EFFECT - The wire envelope
// =============================================================================

// Effect is the host-consumable output of a successful operation. The caller
// owns it once returned; the engine holds no further reference.
type Effect struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Payloader converts a nested domain object into its payload mapping.
// Collection fields hold slices of Payloader implementations.
type Payloader interface {
	Payload() Values
}

// =============================================================================
// DATE - Calendar date without a time component
// =============================================================================

// Date is a calendar date. It exists so the serializer can tell "date" apart
// from "datetime": dates go to the wire as 2006-01-02, time.Time as RFC 3339.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// =============================================================================
// PAYLOAD MARSHALLING
// =============================================================================

// MarshalPayload normalizes and JSON-encodes a payload object.
func MarshalPayload(payload map[string]any) (string, error) {
	b, err := json.Marshal(Normalize(payload))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParsePayload decodes an effect payload back into its object form. The
// round-trip ParsePayload(MarshalPayload(v)) equals Normalize(v).
func ParsePayload(payload string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Normalize converts a value into its wire form. The result contains only
// JSON-native values: nil, bool, string, float64-safe numbers, []any, and
// map[string]any.
func Normalize(v any) any {
	if isNil(v) {
		return nil
	}
	switch tv := v.(type) {
	case decimal.Decimal:
		return tv.StringFixed(2)
	case *decimal.Decimal:
		return tv.StringFixed(2)
	case Date:
		if tv.IsZero() {
			return nil
		}
		return tv.String()
	case *Date:
		return Normalize(*tv)
	case time.Time:
		return tv.Format(time.RFC3339)
	case uuid.UUID:
		return tv.String()
	case Values:
		return normalizeMap(tv)
	case map[string]any:
		return normalizeMap(tv)
	case Payloader:
		return normalizeMap(tv.Payload())
	case string, bool, int, int32, int64, float32, float64, json.Number:
		return tv
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.String:
		// Named string types (verbs, enums, identifiers).
		return rv.String()
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}
