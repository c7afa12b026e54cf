package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/getdozer/dozer-cache/pkg/record"
)

const (
	dateWireLen     = 10 // "YYYY-MM-DD"
	decimalWireLen  = 16
	pointWireLen    = 16
	durationWireLen = 32
	lengthPrefixLen = 4
)

// EncodeField writes the tag-byte-then-body wire encoding for a single
// field (spec.md §4.3 table). Variable-length variants (String, Text,
// Binary, Bson) carry their own 4-byte big-endian length prefix so a
// Field can be decoded standalone, not just as part of a Record.
func EncodeField(f record.Field) []byte {
	switch f.Type {
	case record.FieldTypeUInt:
		buf := make([]byte, 9)
		buf[0] = byte(record.FieldTypeUInt)
		binary.BigEndian.PutUint64(buf[1:], f.UInt)
		return buf
	case record.FieldTypeU128:
		buf := make([]byte, 17)
		buf[0] = byte(record.FieldTypeU128)
		binary.BigEndian.PutUint64(buf[1:9], f.U128.Hi)
		binary.BigEndian.PutUint64(buf[9:17], f.U128.Lo)
		return buf
	case record.FieldTypeInt:
		buf := make([]byte, 9)
		buf[0] = byte(record.FieldTypeInt)
		binary.BigEndian.PutUint64(buf[1:], uint64(f.Int))
		return buf
	case record.FieldTypeI128:
		buf := make([]byte, 17)
		buf[0] = byte(record.FieldTypeI128)
		binary.BigEndian.PutUint64(buf[1:9], f.I128.Hi)
		binary.BigEndian.PutUint64(buf[9:17], f.I128.Lo)
		return buf
	case record.FieldTypeFloat:
		buf := make([]byte, 9)
		buf[0] = byte(record.FieldTypeFloat)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f.Float))
		return buf
	case record.FieldTypeBoolean:
		v := byte(0)
		if f.Boolean {
			v = 1
		}
		return []byte{byte(record.FieldTypeBoolean), v}
	case record.FieldTypeString:
		return encodeLengthPrefixed(record.FieldTypeString, []byte(f.String))
	case record.FieldTypeText:
		return encodeLengthPrefixed(record.FieldTypeText, []byte(f.String))
	case record.FieldTypeBinary:
		return encodeLengthPrefixed(record.FieldTypeBinary, f.Binary)
	case record.FieldTypeBson:
		return encodeLengthPrefixed(record.FieldTypeBson, f.Binary)
	case record.FieldTypeDecimal:
		return encodeDecimal(f.Decimal)
	case record.FieldTypeTimestamp:
		buf := make([]byte, 9)
		buf[0] = byte(record.FieldTypeTimestamp)
		millis := f.Timestamp.UnixMilli()
		binary.BigEndian.PutUint64(buf[1:], uint64(millis))
		return buf
	case record.FieldTypeDate:
		buf := make([]byte, 1+dateWireLen)
		buf[0] = byte(record.FieldTypeDate)
		copy(buf[1:], fmt.Sprintf("%04d-%02d-%02d", f.Date.Year, int(f.Date.Month), f.Date.Day))
		return buf
	case record.FieldTypePoint:
		buf := make([]byte, 1+pointWireLen)
		buf[0] = byte(record.FieldTypePoint)
		binary.BigEndian.PutUint64(buf[1:9], math.Float64bits(f.Point.X))
		binary.BigEndian.PutUint64(buf[9:17], math.Float64bits(f.Point.Y))
		return buf
	case record.FieldTypeDuration:
		return encodeDuration(f.Duration)
	case record.FieldTypeNull:
		return []byte{byte(record.FieldTypeNull)}
	default:
		panic(fmt.Sprintf("codec: unknown field type %d", f.Type))
	}
}

func encodeLengthPrefixed(tag record.FieldType, body []byte) []byte {
	buf := make([]byte, 1+lengthPrefixLen+len(body))
	buf[0] = byte(tag)
	binary.BigEndian.PutUint32(buf[1:1+lengthPrefixLen], uint32(len(body)))
	copy(buf[1+lengthPrefixLen:], body)
	return buf
}

// encodeDecimal packs a shopspring/decimal value into the 16-byte sign/
// exponent/coefficient wire layout (spec.md §4.3 tag 9): a sign byte, a
// 4-byte big-endian exponent, and an 11-byte big-endian unsigned
// coefficient magnitude, the same triple rust_decimal::Decimal packs into
// 128 bits, sized here to fit a plain byte array instead of bit-packed
// flags. Decimal.String() never uses scientific notation, so splitting it
// on '.' recovers the exact coefficient and exponent without any
// precision loss.
func encodeDecimal(d decimal.Decimal) []byte {
	buf := make([]byte, 1+decimalWireLen)
	buf[0] = byte(record.FieldTypeDecimal)

	s := d.String()
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
		buf[1] = 1
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	exponent := -int32(len(fracPart))
	coefficient, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		panic(fmt.Sprintf("codec: malformed decimal string %q", d.String()))
	}

	binary.BigEndian.PutUint32(buf[2:6], uint32(exponent))
	coeffBytes := coefficient.Bytes()
	if len(coeffBytes) > 11 {
		panic("codec: decimal coefficient exceeds 88 bits")
	}
	copy(buf[17-len(coeffBytes):17], coeffBytes)
	return buf
}

func encodeDuration(d record.Duration) []byte {
	buf := make([]byte, 1+durationWireLen)
	buf[0] = byte(record.FieldTypeDuration)
	binary.BigEndian.PutUint64(buf[1:9], d.Seconds)
	binary.BigEndian.PutUint32(buf[9:13], d.Nanos)
	buf[13] = byte(d.Unit)
	// buf[14:33] stays zero: 19 reserved bytes (spec.md §6.1).
	return buf
}

// DecodeField parses one field from the front of data, returning the
// field and the number of bytes consumed so callers can continue parsing
// a concatenated Record.
func DecodeField(data []byte) (record.Field, int, error) {
	if len(data) == 0 {
		return record.Field{}, 0, ErrEmptyInput
	}
	tag := record.FieldType(data[0])
	body := data[1:]

	switch tag {
	case record.FieldTypeUInt:
		v, err := fixedUint64(body)
		return record.Field{Type: tag, UInt: v}, 9, err
	case record.FieldTypeU128:
		if len(body) < 16 {
			return record.Field{}, 0, ErrBadDataLength
		}
		hi := binary.BigEndian.Uint64(body[0:8])
		lo := binary.BigEndian.Uint64(body[8:16])
		return record.Field{Type: tag, U128: record.U128{Hi: hi, Lo: lo}}, 17, nil
	case record.FieldTypeInt:
		v, err := fixedUint64(body)
		return record.Field{Type: tag, Int: int64(v)}, 9, err
	case record.FieldTypeI128:
		if len(body) < 16 {
			return record.Field{}, 0, ErrBadDataLength
		}
		hi := binary.BigEndian.Uint64(body[0:8])
		lo := binary.BigEndian.Uint64(body[8:16])
		return record.Field{Type: tag, I128: record.I128{Hi: hi, Lo: lo}}, 17, nil
	case record.FieldTypeFloat:
		v, err := fixedUint64(body)
		return record.Field{Type: tag, Float: math.Float64frombits(v)}, 9, err
	case record.FieldTypeBoolean:
		if len(body) < 1 {
			return record.Field{}, 0, ErrBadDataLength
		}
		return record.Field{Type: tag, Boolean: body[0] != 0}, 2, nil
	case record.FieldTypeString, record.FieldTypeText:
		s, consumed, err := decodeLengthPrefixedString(body)
		return record.Field{Type: tag, String: s}, consumed, err
	case record.FieldTypeBinary, record.FieldTypeBson:
		b, consumed, err := decodeLengthPrefixed(body)
		return record.Field{Type: tag, Binary: b}, consumed, err
	case record.FieldTypeDecimal:
		d, err := decodeDecimal(body)
		return record.Field{Type: tag, Decimal: d}, 17, err
	case record.FieldTypeTimestamp:
		v, err := fixedUint64(body)
		if err != nil {
			return record.Field{}, 0, err
		}
		return record.Field{Type: tag, Timestamp: time.UnixMilli(int64(v)).UTC()}, 9, nil
	case record.FieldTypeDate:
		d, err := decodeDate(body)
		return record.Field{Type: tag, Date: d}, 1 + dateWireLen, err
	case record.FieldTypePoint:
		if len(body) < 16 {
			return record.Field{}, 0, ErrBadDataLength
		}
		x := math.Float64frombits(binary.BigEndian.Uint64(body[0:8]))
		y := math.Float64frombits(binary.BigEndian.Uint64(body[8:16]))
		return record.Field{Type: tag, Point: record.Point{X: x, Y: y}}, 17, nil
	case record.FieldTypeDuration:
		d, err := decodeDuration(body)
		return record.Field{Type: tag, Duration: d}, 1 + durationWireLen, err
	case record.FieldTypeNull:
		return record.Field{Type: tag}, 1, nil
	default:
		return record.Field{}, 0, ErrUnrecognisedFieldType
	}
}

func fixedUint64(body []byte) (uint64, error) {
	if len(body) < 8 {
		return 0, ErrBadDataLength
	}
	return binary.BigEndian.Uint64(body[:8]), nil
}

func decodeLengthPrefixed(body []byte) ([]byte, int, error) {
	if len(body) < lengthPrefixLen {
		return nil, 0, ErrBadDataLength
	}
	n := binary.BigEndian.Uint32(body[:lengthPrefixLen])
	end := lengthPrefixLen + int(n)
	if end > len(body) {
		return nil, 0, ErrBadDataLength
	}
	out := make([]byte, n)
	copy(out, body[lengthPrefixLen:end])
	return out, 1 + end, nil
}

func decodeLengthPrefixedString(body []byte) (string, int, error) {
	b, consumed, err := decodeLengthPrefixed(body)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(b) {
		return "", 0, ErrInvalidUtf8
	}
	return string(b), consumed, nil
}

func decodeDecimal(body []byte) (decimal.Decimal, error) {
	if len(body) < decimalWireLen {
		return decimal.Decimal{}, ErrBadDataLength
	}
	negative := body[0] != 0
	exponent := int32(binary.BigEndian.Uint32(body[1:5]))
	coefficient := new(big.Int).SetBytes(body[5:16])
	if negative {
		coefficient.Neg(coefficient)
	}
	return decimal.NewFromBigInt(coefficient, exponent), nil
}

func decodeDate(body []byte) (record.Date, error) {
	if len(body) < dateWireLen {
		return record.Date{}, ErrBadDataLength
	}
	s := string(body[:dateWireLen])
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return record.Date{}, ErrInvalidDate
	}
	return record.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func decodeDuration(body []byte) (record.Duration, error) {
	if len(body) < durationWireLen {
		return record.Duration{}, ErrBadDataLength
	}
	seconds := binary.BigEndian.Uint64(body[0:8])
	nanos := binary.BigEndian.Uint32(body[8:12])
	unit := record.TimeUnit(body[12])
	if unit > record.TimeUnitSeconds {
		return record.Duration{}, ErrBadDataLength
	}
	return record.Duration{Seconds: seconds, Nanos: nanos, Unit: unit}, nil
}
