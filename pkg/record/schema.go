package record

import "fmt"

// FieldDefinition describes one column of a Schema (spec.md §3.1).
type FieldDefinition struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// Schema is the ordered field list and optional primary-key projection an
// endpoint's records conform to. It is immutable after an endpoint opens
// (SPEC_FULL.md §10.3).
type Schema struct {
	Fields []FieldDefinition

	// PrimaryIndex lists the field indices that make up the primary
	// key, in key order. Empty means the schema has no primary key —
	// records are then keyed by record-hash (pkg/metadata.HashMetadata)
	// unless the endpoint is also declared append-only (spec.md §3.2
	// invariant 7), in which case neither index is populated.
	PrimaryIndex []int
}

// HasPrimaryKey reports whether the schema declares a primary key.
func (s Schema) HasPrimaryKey() bool { return len(s.PrimaryIndex) > 0 }

// Validate checks the schema is internally consistent: every primary
// index is in range and indices are not repeated.
func (s Schema) Validate() error {
	seen := make(map[int]bool, len(s.PrimaryIndex))
	for _, idx := range s.PrimaryIndex {
		if idx < 0 || idx >= len(s.Fields) {
			return fmt.Errorf("record: primary index %d out of range for %d fields", idx, len(s.Fields))
		}
		if seen[idx] {
			return fmt.Errorf("record: primary index %d repeated", idx)
		}
		seen[idx] = true
	}
	return nil
}

// NonPrimaryIndices returns the field indices not part of the primary
// key, in schema order — the projection pkg/codec hashes for
// HashMetadata and the projection record-hash covers.
func (s Schema) NonPrimaryIndices() []int {
	isPK := make(map[int]bool, len(s.PrimaryIndex))
	for _, idx := range s.PrimaryIndex {
		isPK[idx] = true
	}
	out := make([]int, 0, len(s.Fields)-len(s.PrimaryIndex))
	for i := range s.Fields {
		if !isPK[i] {
			out = append(out, i)
		}
	}
	return out
}
