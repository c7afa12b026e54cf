// Package query implements spec.md §4.7: given a schema, a predicate
// tree, a projection and a limit, produce a lazy stream of record
// batches over a single read txn (snapshot isolation — concurrent
// writes never appear mid-stream).
//
// Predicate push-down (§4.7) extracts sub-expressions of the form
// pk_col op literal against the schema's single-column primary key and
// serves them directly from pkg/metadata.PrimaryKeyMetadata's ordered
// cursor via seek/scan, instead of a full table scan; everything else
// in the filter is a residual re-evaluated per candidate record. Schemas
// with a composite or absent primary key get no push-down — every
// predicate is residual and the scan walks every present operation id.
package query
