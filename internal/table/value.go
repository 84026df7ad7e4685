// Package table holds the in-memory tabular model shared by every stage of the
// pipeline: typed scalar values, a fixed column schema, and ordered rows.
//
// A Table is deliberately simple. It is a slice of rows aligned to a schema,
// with no indexes beyond the column-name lookup. Grouping and joins build
// their own keyed views on top of it (see packages aggregate and dimension).
package table

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Kind is the runtime type of a Value.
type Kind uint8

const (
	// KindNull marks a missing value. It is distinct from the numeric zero.
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a typed scalar cell. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the missing marker.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point value. NaN is the missing marker in the
// source data and becomes Null.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Null()
	}
	return Value{kind: KindFloat, f: v}
}

// String returns a string value. Empty strings are kept as-is; callers that
// treat "" as missing should convert with Null before building the row.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind reports the value's runtime type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer payload when v is an Int.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Float returns v as float64 for both numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Str returns the string payload when v is a String.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// IsZero reports whether v is numeric and equal to 0.
func (v Value) IsZero() bool {
	f, ok := v.Float()
	return ok && f == 0
}

// Equal reports whether v and o have the same kind and payload. Two nulls are
// equal; this is the null-matching rule used by dimension joins.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	default:
		return v.s == o.s
	}
}

// String renders v for text outputs. Null renders as the empty string, floats
// with integral values render without a fractional part.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Any returns the payload as a database/sql friendly value: nil, int64,
// float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// AppendKey appends a canonical, self-delimiting encoding of v to b. Two
// values produce the same bytes iff Equal reports true.
func (v Value) AppendKey(b []byte) []byte {
	b = append(b, byte(v.kind))
	switch v.kind {
	case KindInt:
		b = binary.BigEndian.AppendUint64(b, uint64(v.i))
	case KindFloat:
		f := v.f
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(f))
	case KindString:
		b = binary.AppendUvarint(b, uint64(len(v.s)))
		b = append(b, v.s...)
	}
	return b
}
