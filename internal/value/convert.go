package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionError reports a native value (or declared type) with no mapping
// onto a value variant. It concerns a single cell or column.
type ConversionError struct {
	SourceType string
	Target     Kind
	Err        error
}

func (e *ConversionError) Error() string {
	if !e.Target.Valid() {
		return fmt.Sprintf("cannot convert %s: no value variant for this type", e.SourceType)
	}
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s to %s: %v", e.SourceType, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %s to %s", e.SourceType, e.Target)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// typeKinds maps normalised database type names to variants. SQL Server names
// come first; the rest cover the PostgreSQL, MySQL and Oracle catalogs.
var typeKinds = map[string]Kind{
	// SQL Server
	"bit":              KindBool,
	"tinyint":          KindByte,
	"smallint":         KindShort,
	"int":              KindInt,
	"bigint":           KindLong,
	"real":             KindFloat,
	"float":            KindDouble,
	"decimal":          KindDecimal,
	"numeric":          KindDecimal,
	"money":            KindDecimal,
	"smallmoney":       KindDecimal,
	"char":             KindString,
	"varchar":          KindString,
	"nchar":            KindString,
	"nvarchar":         KindString,
	"text":             KindString,
	"ntext":            KindString,
	"xml":              KindString,
	"sysname":          KindString,
	"uniqueidentifier": KindUUID,
	"date":             KindDateTime2,
	"time":             KindDateTime2,
	"datetime":         KindDateTime2,
	"datetime2":        KindDateTime2,
	"smalldatetime":    KindDateTime2,
	"datetimeoffset":   KindDateTimeOffset,

	// PostgreSQL
	"boolean":                     KindBool,
	"bool":                        KindBool,
	"int2":                        KindShort,
	"int4":                        KindInt,
	"integer":                     KindInt,
	"int8":                        KindLong,
	"float4":                      KindFloat,
	"float8":                      KindDouble,
	"double precision":            KindDouble,
	"character varying":           KindString,
	"character":                   KindString,
	"bpchar":                      KindString,
	"citext":                      KindString,
	"json":                        KindString,
	"jsonb":                       KindString,
	"uuid":                        KindUUID,
	"timestamp":                   KindDateTime2,
	"timestamp without time zone": KindDateTime2,
	"timestamptz":                 KindDateTimeOffset,
	"timestamp with time zone":    KindDateTimeOffset,

	// MySQL
	"mediumint":  KindInt,
	"double":     KindDouble,
	"tinytext":   KindString,
	"mediumtext": KindString,
	"longtext":   KindString,
	"enum":       KindString,
	"set":        KindString,
	"year":       KindShort,

	// Oracle
	"number":                         KindDecimal,
	"varchar2":                       KindString,
	"nvarchar2":                      KindString,
	"clob":                           KindString,
	"nclob":                          KindString,
	"timestamp with local time zone": KindDateTimeOffset,
}

// NormalizeTypeName lowercases a declared type and strips any length or
// precision suffix, e.g. "NVARCHAR(50)" -> "nvarchar".
func NormalizeTypeName(typeName string) string {
	t := strings.ToLower(strings.TrimSpace(typeName))
	if i := strings.IndexByte(t, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			rest = t[i+j+1:]
		}
		t = strings.TrimSpace(t[:i]) + rest
	}
	return strings.Join(strings.Fields(t), " ")
}

// KindForType maps a declared column type to its variant. Binary types such
// as varbinary, image or rowversion have no mapping.
func KindForType(typeName string) (Kind, bool) {
	k, ok := typeKinds[NormalizeTypeName(typeName)]
	return k, ok
}

// FromDriver converts a value scanned by database/sql into the variant for
// the declared column type. A nil native value yields the variant's null.
func FromDriver(typeName string, native any) (Value, error) {
	k, ok := KindForType(typeName)
	if !ok {
		return Value{}, &ConversionError{SourceType: typeName}
	}
	if native == nil {
		return Null(k), nil
	}
	v, err := convert(k, native)
	if err != nil {
		return Value{}, &ConversionError{SourceType: fmt.Sprintf("%s (%T)", typeName, native), Target: k, Err: err}
	}
	return v, nil
}

func convert(k Kind, native any) (Value, error) {
	switch k {
	case KindBool:
		return toBool(native)
	case KindShort:
		n, err := toInt(native, math.MinInt16, math.MaxInt16)
		return Short(int16(n)), err
	case KindInt:
		n, err := toInt(native, math.MinInt32, math.MaxInt32)
		return Int(int32(n)), err
	case KindLong:
		n, err := toInt(native, math.MinInt64, math.MaxInt64)
		return Long(n), err
	case KindByte:
		n, err := toInt(native, 0, math.MaxUint8)
		return Byte(uint8(n)), err
	case KindFloat:
		f, err := toFloat(native, 32)
		return Float(float32(f)), err
	case KindDouble:
		f, err := toFloat(native, 64)
		return Double(f), err
	case KindDecimal:
		return toDecimal(native)
	case KindString:
		switch v := native.(type) {
		case string:
			return String(v), nil
		case []byte:
			return String(string(v)), nil
		}
	case KindUUID:
		return toUUID(native)
	case KindDateTime2:
		t, err := toTime(native, dateTime2Layout)
		return DateTime2(t), err
	case KindDateTimeOffset:
		t, err := toTime(native, dateTimeOffsetLayout)
		return DateTimeOffset(t), err
	}
	return Value{}, fmt.Errorf("unsupported native type")
}

func toBool(native any) (Value, error) {
	switch v := native.(type) {
	case bool:
		return Bool(v), nil
	case int64:
		return Bool(v != 0), nil
	case []byte:
		b, err := strconv.ParseBool(string(v))
		return Bool(b), err
	case string:
		b, err := strconv.ParseBool(v)
		return Bool(b), err
	}
	return Value{}, fmt.Errorf("unsupported native type")
}

func toInt(native any, lo, hi int64) (int64, error) {
	var n int64
	switch v := native.(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int16:
		n = int64(v)
	case int:
		n = int64(v)
	case uint8:
		n = int64(v)
	case float64:
		// -2^63 and 2^63 are exact as floats; anything outside overflows int64
		if math.IsNaN(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%v out of range", v)
		}
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not integral", v)
		}
		n = int64(v)
	case []byte:
		return toInt(string(v), lo, hi)
	case string:
		p, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, err
		}
		n = p
	default:
		return 0, fmt.Errorf("unsupported native type")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}

// toFloat rejects NaN and infinities: SQL has no literal for them.
func toFloat(native any, bits int) (float64, error) {
	f, err := parseFloat(native, bits)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v has no SQL literal", f)
	}
	if bits == 32 && math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%v out of range", f)
	}
	return f, nil
}

func parseFloat(native any, bits int) (float64, error) {
	switch v := native.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), bits)
	case string:
		return strconv.ParseFloat(v, bits)
	}
	return 0, fmt.Errorf("unsupported native type")
}

func toDecimal(native any) (Value, error) {
	switch v := native.(type) {
	case decimal.Decimal:
		return Decimal(v), nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		return Decimal(d), err
	case string:
		d, err := decimal.NewFromString(v)
		return Decimal(d), err
	case int64:
		return Decimal(decimal.NewFromInt(v)), nil
	case float64:
		return Decimal(decimal.NewFromFloat(v)), nil
	}
	return Value{}, fmt.Errorf("unsupported native type")
}

func toUUID(native any) (Value, error) {
	switch v := native.(type) {
	case uuid.UUID:
		return UUID(v), nil
	case [16]byte:
		return UUID(uuid.UUID(v)), nil
	case []byte:
		if len(v) == 16 {
			u, err := uuid.FromBytes(v)
			return UUID(u), err
		}
		u, err := uuid.ParseBytes(v)
		return UUID(u), err
	case string:
		u, err := uuid.Parse(v)
		return UUID(u), err
	}
	return Value{}, fmt.Errorf("unsupported native type")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(native any, canonical string) (time.Time, error) {
	switch v := native.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return toTime(string(v), canonical)
	case string:
		if t, err := time.Parse(canonical, v); err == nil {
			return t, nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
	}
	return time.Time{}, fmt.Errorf("unsupported native type")
}
