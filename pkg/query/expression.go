package query

import (
	"bytes"
	"fmt"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// Op is a predicate comparison operator (spec.md §4.7: "pk_col op
// literal where op ∈ {=, <, ≤, >, ≥, in}").
type Op int

const (
	OpEq Op = iota
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
)

// Predicate is one `field op literal` leaf. Value holds the literal for
// every Op except OpIn, which uses Values.
type Predicate struct {
	FieldIndex int
	Op         Op
	Value      record.Field
	Values     []record.Field
}

// Matches evaluates the predicate against one field value of the same
// type. Fields of differing FieldType never match.
func (p Predicate) Matches(v record.Field) (bool, error) {
	if p.Op == OpIn {
		for _, candidate := range p.Values {
			if cmp, ok := compareFields(v, candidate); ok && cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	}
	cmp, ok := compareFields(v, p.Value)
	if !ok {
		return false, fmt.Errorf("%w: field type %s is not orderable", ErrInvalidPredicate, v.Type)
	}
	switch p.Op {
	case OpEq:
		return cmp == 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGe:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("%w: unrecognized op %d", ErrInvalidPredicate, p.Op)
	}
}

// OrderTerm is one `order by` column; Descending reverses the natural
// ascending comparison.
type OrderTerm struct {
	FieldIndex int
	Descending bool
}

// QueryExpression is spec.md §6.3's query() argument, expanded with an
// explicit Projection (§4.7: "applied after batch materialization") the
// external interface signature left implicit.
type QueryExpression struct {
	Filter       []Predicate // conjunction (AND) of leaves
	OrderBy      []OrderTerm
	Limit        int // 0 means unlimited
	Skip         int
	Projection   []int // field indices to keep, in order; nil keeps every field
	AccessFilter func(record.CacheRecord) bool
	BatchSize    int // 0 uses DefaultBatchSize
}

// DefaultBatchSize bounds RecordBatch size when QueryExpression.BatchSize
// is unset (spec.md §4.7: "batch size is bounded by a configurable row
// count").
const DefaultBatchSize = 256

// compareFields orders two same-type fields; ok is false for types with
// no natural ordering (Boolean, Binary, Bson, Point), for U128, I128,
// Decimal and Duration, which it does not compare, or for a type
// mismatch.
func compareFields(a, b record.Field) (int, bool) {
	if a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case record.FieldTypeUInt:
		return cmpUint64(a.UInt, b.UInt), true
	case record.FieldTypeInt:
		return cmpInt64(a.Int, b.Int), true
	case record.FieldTypeFloat:
		return cmpFloat64(a.Float, b.Float), true
	case record.FieldTypeString, record.FieldTypeText:
		return bytes.Compare([]byte(a.String), []byte(b.String)), true
	case record.FieldTypeTimestamp:
		switch {
		case a.Timestamp.Before(b.Timestamp):
			return -1, true
		case a.Timestamp.After(b.Timestamp):
			return 1, true
		default:
			return 0, true
		}
	case record.FieldTypeDate:
		return cmpDate(a.Date, b.Date), true
	case record.FieldTypeNull:
		return 0, true
	default:
		return 0, false
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDate(a, b record.Date) int {
	if a.Year != b.Year {
		return cmpInt64(int64(a.Year), int64(b.Year))
	}
	if a.Month != b.Month {
		return cmpInt64(int64(a.Month), int64(b.Month))
	}
	return cmpInt64(int64(a.Day), int64(b.Day))
}
