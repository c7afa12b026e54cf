package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// fieldToString renders a single field value for terminal output.
func fieldToString(f record.Field) string {
	switch f.Type {
	case record.FieldTypeNull:
		return "null"
	case record.FieldTypeUInt:
		return strconv.FormatUint(f.UInt, 10)
	case record.FieldTypeInt:
		return strconv.FormatInt(f.Int, 10)
	case record.FieldTypeFloat:
		return strconv.FormatFloat(f.Float, 'g', -1, 64)
	case record.FieldTypeBoolean:
		return strconv.FormatBool(f.Boolean)
	case record.FieldTypeString, record.FieldTypeText:
		return f.String
	case record.FieldTypeBinary, record.FieldTypeBson:
		return fmt.Sprintf("0x%x", f.Binary)
	case record.FieldTypeDecimal:
		return f.Decimal.String()
	case record.FieldTypeTimestamp:
		return f.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00")
	case record.FieldTypeDate:
		return fmt.Sprintf("%04d-%02d-%02d", f.Date.Year, f.Date.Month, f.Date.Day)
	case record.FieldTypePoint:
		return fmt.Sprintf("(%g, %g)", f.Point.X, f.Point.Y)
	case record.FieldTypeDuration:
		return f.Duration.AsDuration().String()
	default:
		return fmt.Sprintf("<%s>", f.Type)
	}
}

// recordToLine renders one record's values as a tab-separated line,
// prefixed with its identity/version so callers can tell repeat versions
// of the same key apart in query/tail output.
func recordToLine(schema record.Schema, rec record.CacheRecord) string {
	parts := make([]string, len(rec.Record.Values))
	for i, v := range rec.Record.Values {
		parts[i] = fieldToString(v)
	}
	return fmt.Sprintf("#%d@v%d\t%s", rec.ID, rec.Version, strings.Join(parts, "\t"))
}

// parseFieldLiteral parses a command-line literal into a Field of type t,
// for the handful of types a shell argument can reasonably express.
func parseFieldLiteral(t record.FieldType, s string) (record.Field, error) {
	switch t {
	case record.FieldTypeString:
		return record.FieldFromString(s), nil
	case record.FieldTypeText:
		return record.FieldFromText(s), nil
	case record.FieldTypeInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return record.Field{}, fmt.Errorf("invalid int literal %q: %w", s, err)
		}
		return record.FieldFromInt(v), nil
	case record.FieldTypeUInt:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return record.Field{}, fmt.Errorf("invalid uint literal %q: %w", s, err)
		}
		return record.FieldFromUInt(v), nil
	case record.FieldTypeFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return record.Field{}, fmt.Errorf("invalid float literal %q: %w", s, err)
		}
		return record.FieldFromFloat(v), nil
	case record.FieldTypeBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return record.Field{}, fmt.Errorf("invalid boolean literal %q: %w", s, err)
		}
		return record.FieldFromBoolean(v), nil
	case record.FieldTypeDecimal:
		v, err := decimal.NewFromString(s)
		if err != nil {
			return record.Field{}, fmt.Errorf("invalid decimal literal %q: %w", s, err)
		}
		return record.FieldFromDecimal(v), nil
	default:
		return record.Field{}, fmt.Errorf("field type %s has no command-line literal form", t)
	}
}
