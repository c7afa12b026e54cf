package record

import (
	"fmt"
	"time"
)

// Lifetime schedules a record for eviction at reference+duration
// (spec.md §3.1, §4.6).
type Lifetime struct {
	Reference time.Time
	Duration  time.Duration
}

// EvictionTime returns the wall-clock instant this lifetime expires at.
func (l Lifetime) EvictionTime() time.Time { return l.Reference.Add(l.Duration) }

// Record is the unit of replication: an ordered list of field values
// conforming to a Schema, plus an optional lifetime (spec.md §3.1).
type Record struct {
	Values   []Field
	Lifetime *Lifetime
}

// Conforms checks record/schema conformance (spec.md §3.2 invariant 9):
// value count matches field count, and each value's type matches its
// field's declared type unless the field is nullable and the value is
// Null.
func (r Record) Conforms(schema Schema) error {
	if len(r.Values) != len(schema.Fields) {
		return fmt.Errorf("record: %d values for %d schema fields", len(r.Values), len(schema.Fields))
	}
	for i, def := range schema.Fields {
		v := r.Values[i]
		if v.Type == FieldTypeNull {
			if !def.Nullable {
				return fmt.Errorf("record: field %q is not nullable", def.Name)
			}
			continue
		}
		if v.Type != def.Type {
			return fmt.Errorf("record: field %q expected type %s, got %s", def.Name, def.Type, v.Type)
		}
	}
	return nil
}

// PrimaryKeyValues returns the values at schema.PrimaryIndex, in key
// order.
func (r Record) PrimaryKeyValues(schema Schema) []Field {
	out := make([]Field, len(schema.PrimaryIndex))
	for i, idx := range schema.PrimaryIndex {
		out[i] = r.Values[idx]
	}
	return out
}

// RecordMeta identifies a logical record across its lifetime: a stable id
// plus an MVCC version that increments on every reinsert after a delete
// (spec.md §3.1, §3.2 invariant 4).
type RecordMeta struct {
	ID      uint64
	Version uint32
}

// InitialRecordVersion is the version assigned on first insert of a key,
// matching the Rust INITIAL_RECORD_VERSION constant in
// operation_log/mod.rs.
const InitialRecordVersion uint32 = 1

// RecordMetadata is the value stored in a metadata index: identity plus
// either the op-id of the live Insert, or None if the key is tombstoned
// (spec.md §3.1).
type RecordMetadata struct {
	Meta             RecordMeta
	InsertOperationID *uint64
}

// IsLive reports whether this metadata entry has a live insert.
func (m RecordMetadata) IsLive() bool { return m.InsertOperationID != nil }

// CacheRecord is the view returned by reads: identity, version, and the
// record payload (spec.md §3.1).
type CacheRecord struct {
	ID      uint64
	Version uint32
	Record  Record
}
