package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind tags the payload held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBoolean
)

// Value is one cell of a dynamically shaped row.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

func Null() Value                { return Value{Kind: KindNull} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}
func BoolValue(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Interface returns the Go value suitable for a driver argument or encoder.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBoolean:
		return v.Bool
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return "NULL"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// Row is one record of a dynamic table. Columns lists the field order.
type Row struct {
	ID      int64
	Columns []string
	Values  map[string]Value
}

// Get returns the value of a field, null when the field is absent.
func (r Row) Get(field string) Value {
	if v, ok := r.Values[field]; ok {
		return v
	}
	return Null()
}

// MarshalJSON renders the row as {"id": n, "<field>": value, ...} in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatInt(r.ID, 10))
	for _, name := range r.Columns {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field name %s: %w", name, err)
		}
		val, err := json.Marshal(r.Get(name))
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
