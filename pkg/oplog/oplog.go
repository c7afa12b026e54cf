package oplog

import (
	"github.com/rs/zerolog"

	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
)

// OperationLog owns the five sub-databases spec.md §6.1 lists and is
// immutable after construction — it carries only handles, and is freely
// shareable by reference across the ingestion adapter's single writer and
// any number of query-adapter readers (spec.md §5).
type OperationLog struct {
	primaryKeyMetadata     *metadata.PrimaryKeyMetadata
	hashMetadata           *metadata.HashMetadata
	presentOperationIDs    *collection.Set[uint64]
	nextOperationID        *collection.Counter
	operationIDToOperation *collection.Map[uint64, Operation]
	log                    zerolog.Logger
}

// Sub-database names, matching spec.md §6.1's persisted state layout
// table. The "__count" suffixed names are an implementation detail of
// pkg/metadata (distinct-identity counters for CountData), not part of
// the table itself.
const (
	DBPrimaryKeyMetadata      = "primary_key_metadata"
	DBPrimaryKeyMetadataCount = "primary_key_metadata__count"
	DBHashMetadata            = "hash_metadata"
	DBHashMetadataCount       = "hash_metadata__count"
	DBPresentOperationIDs     = "present_operation_ids"
	DBNextOperationID         = "next_operation_id"
	DBOperationIDToOperation  = "operation_id_to_operation"
)

var nextOperationIDKey = []byte{0}

// Open opens (creating sub-databases if create is set) an OperationLog
// over txn. One OperationLog instance is constructed per endpoint at
// startup and then shared; it does not itself begin transactions.
func Open(txn *kv.Txn, create bool, logger zerolog.Logger) (*OperationLog, error) {
	opts := kv.DBOptions{Create: create}

	pkEntries, err := txn.OpenDB(DBPrimaryKeyMetadata, opts)
	if err != nil {
		return nil, err
	}
	pkCount, err := txn.OpenDB(DBPrimaryKeyMetadataCount, opts)
	if err != nil {
		return nil, err
	}
	hashEntries, err := txn.OpenDB(DBHashMetadata, kv.DBOptions{Create: create, DupSort: true})
	if err != nil {
		return nil, err
	}
	hashCount, err := txn.OpenDB(DBHashMetadataCount, opts)
	if err != nil {
		return nil, err
	}
	presentIDs, err := txn.OpenDB(DBPresentOperationIDs, kv.DBOptions{Create: create, IntegerKey: true, DupFixed: true})
	if err != nil {
		return nil, err
	}
	nextID, err := txn.OpenDB(DBNextOperationID, opts)
	if err != nil {
		return nil, err
	}
	opLog, err := txn.OpenDB(DBOperationIDToOperation, kv.DBOptions{Create: create, IntegerKey: true})
	if err != nil {
		return nil, err
	}

	return &OperationLog{
		primaryKeyMetadata:     metadata.NewPrimaryKeyMetadata(pkEntries, pkCount),
		hashMetadata:           metadata.NewHashMetadata(hashEntries, hashCount),
		presentOperationIDs:    collection.NewSet[uint64](presentIDs, collection.Uint64Codec{}),
		nextOperationID:        collection.NewCounter(nextID, nextOperationIDKey),
		operationIDToOperation: collection.NewMap[uint64, Operation](opLog, collection.Uint64Codec{}, operationCodec{}),
		log:                    logger.With().Str("component", "oplog").Logger(),
	}, nil
}

// metadataFor dispatches to the metadata instantiation a Key addresses,
// mirroring the Rust MetadataKey match in operation_log/mod.rs.
func (l *OperationLog) metadataFor(key metadata.Key) metadata.Metadata {
	if key.Kind == metadata.KeyKindHash {
		return l.hashMetadata
	}
	return l.primaryKeyMetadata
}

// NextOperationID returns the counter's current value without advancing
// it, for diagnostics and the testable property
// next_operation_id == max(keys(operation_id_to_operation)) + 1 (§8).
func (l *OperationLog) NextOperationID(txn *kv.Txn) (uint64, error) {
	return l.nextOperationID.Get(txn)
}

// PrimaryKeyIndex exposes the primary-key metadata instantiation
// directly, for the query adapter's predicate push-down (spec.md §4.7),
// which needs an ordered cursor over primary-key bytes rather than a
// single-key lookup.
func (l *OperationLog) PrimaryKeyIndex() *metadata.PrimaryKeyMetadata {
	return l.primaryKeyMetadata
}
