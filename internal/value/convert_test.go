package value_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"db-luna/internal/value"
)

func TestKindForType(t *testing.T) {
	tests := []struct {
		typeName string
		want     value.Kind
		ok       bool
	}{
		{"int", value.KindInt, true},
		{"NVARCHAR(50)", value.KindString, true},
		{"decimal(18, 2)", value.KindDecimal, true},
		{"uniqueidentifier", value.KindUUID, true},
		{"datetimeoffset", value.KindDateTimeOffset, true},
		{"timestamp with time zone", value.KindDateTimeOffset, true},
		{"varbinary", value.KindInvalid, false},
		{"image", value.KindInvalid, false},
		{"geography", value.KindInvalid, false},
	}
	for _, tt := range tests {
		got, ok := value.KindForType(tt.typeName)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KindForType(%q) = %s, %v; want %s, %v", tt.typeName, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromDriver(t *testing.T) {
	ts := time.Date(2021, 7, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		typeName string
		native   any
		want     string
		kind     value.Kind
	}{
		{"bit", "bit", true, "true", value.KindBool},
		{"tinyint from int64", "tinyint", int64(200), "200", value.KindByte},
		{"smallint", "smallint", int64(-5), "-5", value.KindShort},
		{"int", "int", int64(17), "17", value.KindInt},
		{"bigint", "bigint", int64(1) << 40, "1099511627776", value.KindLong},
		{"real", "real", float64(float32(1.5)), "1.5", value.KindFloat},
		{"float", "float", 2.25, "2.25", value.KindDouble},
		{"decimal bytes", "decimal", []byte("12.340"), "12.340", value.KindDecimal},
		{"money string", "money", "5.0000", "5.0000", value.KindDecimal},
		{"nvarchar", "nvarchar", "abc", "abc", value.KindString},
		{"varchar bytes", "varchar", []byte("xyz"), "xyz", value.KindString},
		{"guid text", "uniqueidentifier", "0e984725-c51c-4bf4-9960-e1c80e27aba0", "0e984725-c51c-4bf4-9960-e1c80e27aba0", value.KindUUID},
		{"datetime2", "datetime2", ts, "2021-07-04 12:00:00", value.KindDateTime2},
		{"date string", "date", "2021-07-04", "2021-07-04 00:00:00", value.KindDateTime2},
		{"null", "int", nil, "NULL", value.KindInt},
		{"bigint from float at -2^63", "bigint", float64(math.MinInt64), "-9223372036854775808", value.KindLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := value.FromDriver(tt.typeName, tt.native)
			if err != nil {
				t.Fatalf("FromDriver(%q, %v) error = %v", tt.typeName, tt.native, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if got := v.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromDriverConversionErrors(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		native   any
		target   value.Kind
	}{
		{"binary has no variant", "varbinary", []byte{0x01, 0x02}, value.KindInvalid},
		{"tinyint overflow", "tinyint", int64(300), value.KindByte},
		{"int from struct", "int", struct{}{}, value.KindInt},
		{"bad guid", "uniqueidentifier", "nope", value.KindUUID},
		{"bigint beyond int64", "bigint", float64(1e30), value.KindLong},
		{"bigint at 2^63", "bigint", float64(math.MaxInt64), value.KindLong},
		{"bigint below -2^63", "bigint", -1e19, value.KindLong},
		{"int from NaN", "int", math.NaN(), value.KindInt},
		{"double NaN", "float", math.NaN(), value.KindDouble},
		{"double +Inf", "float", math.Inf(1), value.KindDouble},
		{"real -Inf text", "real", "-Inf", value.KindFloat},
		{"real overflow", "real", 1e300, value.KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := value.FromDriver(tt.typeName, tt.native)
			var convErr *value.ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("FromDriver() error = %v, want *ConversionError", err)
			}
			if convErr.Target != tt.target {
				t.Errorf("Target = %s, want %s", convErr.Target, tt.target)
			}
			if convErr.SourceType == "" {
				t.Error("SourceType is empty")
			}
		})
	}
}
