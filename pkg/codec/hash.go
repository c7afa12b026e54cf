package codec

import (
	"github.com/cespare/xxhash/v2"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// RecordHash computes the 64-bit, non-cryptographic hash HashMetadata
// keys on: xxHash64 with seed 0 over the encoded non-PK projection
// (spec.md §4.3, which names xxHash64/seed-0 as the reference choice).
// Collisions are expected and tolerated — HashMetadata disambiguates by
// byte-comparing the full record bytes within a hash bucket.
func RecordHash(schema record.Schema, r record.Record) uint64 {
	return xxhash.Sum64(NonPrimaryProjectionBytes(schema, r))
}
