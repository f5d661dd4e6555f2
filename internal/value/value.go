// Package value holds the typed, nullable cell representation used to move
// rows between the relational source, the model store and the import sinks.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NullText is the rendering of an absent value.
const NullText = "NULL"

const (
	dateTime2Layout      = "2006-01-02 15:04:05.999999999"
	dateTimeOffsetLayout = "2006-01-02 15:04:05.999999999 -07:00"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindShort
	KindInt
	KindLong
	KindByte
	KindFloat
	KindDouble
	KindDecimal
	KindString
	KindUUID
	KindDateTime2
	KindDateTimeOffset
)

var kindNames = [...]string{
	KindInvalid:        "invalid",
	KindBool:           "bool",
	KindShort:          "short",
	KindInt:            "int",
	KindLong:           "long",
	KindByte:           "byte",
	KindFloat:          "float",
	KindDouble:         "double",
	KindDecimal:        "decimal",
	KindString:         "string",
	KindUUID:           "uuid",
	KindDateTime2:      "datetime2",
	KindDateTimeOffset: "datetimeoffset",
}

// Kinds lists every valid variant.
var Kinds = []Kind{
	KindBool, KindShort, KindInt, KindLong, KindByte, KindFloat, KindDouble,
	KindDecimal, KindString, KindUUID, KindDateTime2, KindDateTimeOffset,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the defined variants.
func (k Kind) Valid() bool {
	return k > KindInvalid && int(k) < len(kindNames)
}

// Textual reports whether literals of this kind need quoting in SQL text.
func (k Kind) Textual() bool {
	switch k {
	case KindString, KindUUID, KindDateTime2, KindDateTimeOffset, KindBool:
		return true
	}
	return false
}

// ParseKind resolves a kind from its name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", name)
}

// Value is a single cell. The zero Value is invalid; build values with the
// kind constructors or Null.
type Value struct {
	kind  Kind
	valid bool

	i int64
	f float64
	d decimal.Decimal
	s string
	u uuid.UUID
	t time.Time
}

// Row is an ordered list of values aligned with a table's transfer columns.
type Row []Value

// Null returns the null state of kind k.
func Null(k Kind) Value { return Value{kind: k} }

func Bool(b bool) Value {
	v := Value{kind: KindBool, valid: true}
	if b {
		v.i = 1
	}
	return v
}

func Short(n int16) Value   { return Value{kind: KindShort, valid: true, i: int64(n)} }
func Int(n int32) Value     { return Value{kind: KindInt, valid: true, i: int64(n)} }
func Long(n int64) Value    { return Value{kind: KindLong, valid: true, i: n} }
func Byte(n uint8) Value    { return Value{kind: KindByte, valid: true, i: int64(n)} }
func Float(f float32) Value { return Value{kind: KindFloat, valid: true, f: float64(f)} }
func Double(f float64) Value {
	return Value{kind: KindDouble, valid: true, f: f}
}
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, valid: true, d: d} }
func String(s string) Value           { return Value{kind: KindString, valid: true, s: s} }
func UUID(u uuid.UUID) Value          { return Value{kind: KindUUID, valid: true, u: u} }

// DateTime2 holds a timestamp without zone; only the wall clock is kept.
func DateTime2(t time.Time) Value {
	return Value{kind: KindDateTime2, valid: true, t: t}
}

// DateTimeOffset holds a timestamp with its zone offset.
func DateTimeOffset(t time.Time) Value {
	return Value{kind: KindDateTimeOffset, valid: true, t: t}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return !v.valid }

// Interface returns the native Go value, or nil for a null.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindBool:
		return v.i != 0
	case KindShort:
		return int16(v.i)
	case KindInt:
		return int32(v.i)
	case KindLong:
		return v.i
	case KindByte:
		return uint8(v.i)
	case KindFloat:
		return float32(v.f)
	case KindDouble:
		return v.f
	case KindDecimal:
		return v.d
	case KindString:
		return v.s
	case KindUUID:
		return v.u
	case KindDateTime2, KindDateTimeOffset:
		return v.t
	}
	return nil
}

// Render returns NULL for an absent value and the natural text otherwise.
// Strings are not quoted.
func (v Value) Render() string {
	if !v.valid {
		return NullText
	}
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindShort, KindInt, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindByte:
		return strconv.FormatUint(uint64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDecimal:
		if exp := v.d.Exponent(); exp < 0 {
			return v.d.StringFixed(-exp)
		}
		return v.d.String()
	case KindString:
		return v.s
	case KindUUID:
		return v.u.String()
	case KindDateTime2:
		return v.t.Format(dateTime2Layout)
	case KindDateTimeOffset:
		return v.t.Format(dateTimeOffsetLayout)
	}
	return NullText
}

func (v Value) String() string { return v.Render() }

// Equal compares kind, nullness and rendered content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	return !v.valid || v.Render() == o.Render()
}

// Parse reads text produced by Render back into a value of kind k. The
// literal NULL yields the null state for every kind except KindString, where
// it is ordinary text.
func Parse(k Kind, text string) (Value, error) {
	if !k.Valid() {
		return Value{}, fmt.Errorf("parse %q: invalid kind", text)
	}
	if text == NullText && k != KindString {
		return Null(k), nil
	}

	fail := func(err error) (Value, error) {
		return Value{}, fmt.Errorf("parse %q as %s: %w", text, k, err)
	}

	switch k {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fail(err)
		}
		return Bool(b), nil
	case KindShort:
		n, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return fail(err)
		}
		return Short(int16(n)), nil
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return fail(err)
		}
		return Int(int32(n)), nil
	case KindLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fail(err)
		}
		return Long(n), nil
	case KindByte:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return fail(err)
		}
		return Byte(uint8(n)), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return fail(err)
		}
		return Float(float32(f)), nil
	case KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fail(err)
		}
		return Double(f), nil
	case KindDecimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return fail(err)
		}
		return Decimal(d), nil
	case KindString:
		return String(text), nil
	case KindUUID:
		u, err := uuid.Parse(text)
		if err != nil {
			return fail(err)
		}
		return UUID(u), nil
	case KindDateTime2:
		t, err := time.Parse(dateTime2Layout, text)
		if err != nil {
			return fail(err)
		}
		return DateTime2(t), nil
	case KindDateTimeOffset:
		t, err := time.Parse(dateTimeOffsetLayout, text)
		if err != nil {
			return fail(err)
		}
		return DateTimeOffset(t), nil
	}
	return fail(fmt.Errorf("unsupported kind"))
}

type jsonValue struct {
	Kind  string  `json:"kind"`
	Value *string `json:"value,omitempty"`
}

// MarshalJSON encodes the value as {"kind":..., "value":...}; nulls omit value.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.kind.Valid() {
		return nil, fmt.Errorf("marshal value: invalid kind")
	}
	out := jsonValue{Kind: v.kind.String()}
	if v.valid {
		text := v.Render()
		out.Value = &text
	}
	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in jsonValue
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	k, err := ParseKind(strings.TrimSpace(in.Kind))
	if err != nil {
		return err
	}
	if in.Value == nil {
		*v = Null(k)
		return nil
	}
	if k == KindString {
		*v = String(*in.Value)
		return nil
	}
	parsed, err := Parse(k, *in.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
