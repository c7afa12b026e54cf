package query

import "errors"

// Errors returned by the query adapter (spec.md §4.7).
var (
	// ErrSchemaMismatch is returned when a predicate or projection
	// references a field index outside the schema.
	ErrSchemaMismatch = errors.New("query: field index out of range for schema")

	// ErrInvalidPredicate is returned for a predicate this adapter
	// cannot evaluate: an In predicate with no values, or a comparison
	// against a field whose stored type does not support ordering.
	ErrInvalidPredicate = errors.New("query: invalid predicate")
)
