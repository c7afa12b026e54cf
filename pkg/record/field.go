package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is the tag of the Field sum type. Values match the wire tags
// in spec.md §4.3/§6.1 exactly — do not reorder these constants, the
// numeric value is persisted.
type FieldType uint8

const (
	FieldTypeUInt FieldType = iota
	FieldTypeU128
	FieldTypeInt
	FieldTypeI128
	FieldTypeFloat
	FieldTypeBoolean
	FieldTypeString
	FieldTypeText
	FieldTypeBinary
	FieldTypeDecimal
	FieldTypeTimestamp
	FieldTypeDate
	FieldTypeBson
	FieldTypePoint
	FieldTypeDuration
	FieldTypeNull
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeUInt:
		return "UInt"
	case FieldTypeU128:
		return "U128"
	case FieldTypeInt:
		return "Int"
	case FieldTypeI128:
		return "I128"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeBoolean:
		return "Boolean"
	case FieldTypeString:
		return "String"
	case FieldTypeText:
		return "Text"
	case FieldTypeBinary:
		return "Binary"
	case FieldTypeDecimal:
		return "Decimal"
	case FieldTypeTimestamp:
		return "Timestamp"
	case FieldTypeDate:
		return "Date"
	case FieldTypeBson:
		return "Bson"
	case FieldTypePoint:
		return "Point"
	case FieldTypeDuration:
		return "Duration"
	case FieldTypeNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// U128 holds an unsigned 128-bit integer as two 64-bit halves, since Go has
// no native 128-bit integer type. Hi holds the most-significant 64 bits.
type U128 struct {
	Hi uint64
	Lo uint64
}

// I128 holds a signed 128-bit integer in two's-complement form across two
// 64-bit halves, Hi carrying the sign bit.
type I128 struct {
	Hi uint64
	Lo uint64
}

// Date is a plain calendar date with no time-of-day or time zone
// component, encoded on the wire as the ASCII string "YYYY-MM-DD"
// (spec.md §4.3 tag 11).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeUnit is the resolution tag stored alongside a Duration's raw
// seconds/nanos pair (spec.md §6.1). The engine always computes and
// compares durations at nanosecond resolution (§9, open question 3); Unit
// is carried only because the wire format persists it.
type TimeUnit uint8

const (
	TimeUnitNanoseconds TimeUnit = iota
	TimeUnitMicroseconds
	TimeUnitMilliseconds
	TimeUnitSeconds
)

// Duration is a fixed-width wire duration: whole seconds plus a
// sub-second nanosecond remainder, tagged with the unit it was originally
// expressed in. AsDuration/DurationFrom convert to/from time.Duration at
// nanosecond resolution.
type Duration struct {
	Seconds uint64
	Nanos   uint32
	Unit    TimeUnit
}

// AsDuration converts to a time.Duration, losing the Unit tag.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d.Seconds)*time.Second + time.Duration(d.Nanos)
}

// DurationFrom builds a Duration from a time.Duration, tagged with unit.
func DurationFrom(d time.Duration, unit TimeUnit) Duration {
	secs := d / time.Second
	nanos := d % time.Second
	return Duration{Seconds: uint64(secs), Nanos: uint32(nanos), Unit: unit}
}

// Point is a two-dimensional coordinate, encoded as two big-endian IEEE
// 754 float64 values (spec.md §4.3 tag 13).
type Point struct {
	X float64
	Y float64
}

// Field is the sum type every record value is built from (spec.md §3.1,
// §4.3): a type tag plus exactly one populated payload field. Dispatch on
// Type is exhaustive wherever a Field is consumed — this is a value type
// with no behavior beyond construction and equality, by design (§9:
// "do not use runtime class hierarchies").
type Field struct {
	Type FieldType

	UInt      uint64
	U128      U128
	Int       int64
	I128      I128
	Float     float64
	Boolean   bool
	String    string // FieldTypeString and FieldTypeText both use this
	Binary    []byte // FieldTypeBinary and FieldTypeBson both use this
	Decimal   decimal.Decimal
	Timestamp time.Time
	Date      Date
	Point     Point
	Duration  Duration
}

func FieldNull() Field { return Field{Type: FieldTypeNull} }

func FieldFromUInt(v uint64) Field { return Field{Type: FieldTypeUInt, UInt: v} }

func FieldFromInt(v int64) Field { return Field{Type: FieldTypeInt, Int: v} }

func FieldFromFloat(v float64) Field { return Field{Type: FieldTypeFloat, Float: v} }

func FieldFromBoolean(v bool) Field { return Field{Type: FieldTypeBoolean, Boolean: v} }

// FieldFromDecimal wraps a shopspring/decimal value, the fixed-point type
// backing FieldTypeDecimal (spec.md §4.3 tag 9).
func FieldFromDecimal(v decimal.Decimal) Field { return Field{Type: FieldTypeDecimal, Decimal: v} }

func FieldFromString(v string) Field { return Field{Type: FieldTypeString, String: v} }

func FieldFromText(v string) Field { return Field{Type: FieldTypeText, String: v} }

func FieldFromBinary(v []byte) Field { return Field{Type: FieldTypeBinary, Binary: v} }

func FieldFromBson(v []byte) Field { return Field{Type: FieldTypeBson, Binary: v} }

func FieldFromTimestamp(v time.Time) Field { return Field{Type: FieldTypeTimestamp, Timestamp: v} }

func FieldFromDate(v Date) Field { return Field{Type: FieldTypeDate, Date: v} }

func FieldFromPoint(v Point) Field { return Field{Type: FieldTypePoint, Point: v} }

func FieldFromDuration(v Duration) Field { return Field{Type: FieldTypeDuration, Duration: v} }

// IsNull reports whether f is the Null variant.
func (f Field) IsNull() bool { return f.Type == FieldTypeNull }
