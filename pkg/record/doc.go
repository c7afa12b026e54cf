// Package record is the materialized-cache engine's data model: Schema,
// FieldDefinition, Field, Record, Lifetime, CacheRecord, and RecordMeta
// (spec.md §3.1). It holds only the value types — wire encoding lives in
// pkg/codec, which imports this package rather than the other way around,
// so Record stays a plain value type with no knowledge of how it is
// persisted.
//
// Struct shapes favor a plain-struct, accessor-free style: exported
// fields, no getters, no behavior beyond what the type itself needs to
// stay internally consistent (Schema.Validate, Record.Conforms).
package record
