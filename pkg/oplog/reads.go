package oplog

import (
	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// GetRecord implements spec.md §4.5.2's get_record for primary-key-keyed
// schemas: looks up the live metadata entry for pkBytes and, if present,
// resolves the Insert it points to. An insert_operation_id pointing at
// anything other than an Insert entry is storage corruption, not a user
// error, and panics accordingly.
func (l *OperationLog) GetRecord(txn *kv.Txn, pkBytes []byte) (record.CacheRecord, bool, error) {
	return l.getRecordForKey(txn, metadata.PrimaryKey(pkBytes))
}

// GetRecordByHash is GetRecord's counterpart for hash-keyed schemas.
func (l *OperationLog) GetRecordByHash(txn *kv.Txn, hash uint64, recordBytes []byte) (record.CacheRecord, bool, error) {
	return l.getRecordForKey(txn, metadata.HashKey(hash, recordBytes))
}

func (l *OperationLog) getRecordForKey(txn *kv.Txn, key metadata.Key) (record.CacheRecord, bool, error) {
	m := l.metadataFor(key)
	live, ok, err := m.GetPresent(txn, key)
	if err != nil || !ok {
		return record.CacheRecord{}, false, err
	}
	return l.resolveInsert(txn, *live.InsertOperationID)
}

func (l *OperationLog) resolveInsert(txn *kv.Txn, opID uint64) (record.CacheRecord, bool, error) {
	op, ok, err := l.operationIDToOperation.Get(txn, opID)
	if err != nil {
		return record.CacheRecord{}, false, err
	}
	if !ok || op.Kind != OperationKindInsert {
		invariantViolation("oplog: insert operation id %d does not resolve to an Insert entry", opID)
	}
	return record.CacheRecord{ID: op.RecordMeta.ID, Version: op.RecordMeta.Version, Record: op.Record}, true, nil
}

// GetMetadata returns the live metadata entry addressed by key, without
// resolving it to a record. The ingestion adapter (pkg/ingest) uses this
// to recover the prior RecordMeta and insert_operation_id an Update or
// Delete needs, looked up under the key derived from the connector's
// "old" row image (spec.md §4.8).
func (l *OperationLog) GetMetadata(txn *kv.Txn, key metadata.Key) (record.RecordMetadata, bool, error) {
	return l.metadataFor(key).GetPresent(txn, key)
}

// GetDeletedMetadata returns the tombstone entry addressed by key, if
// any. The ingestion adapter uses this to distinguish a brand new key
// (insert_new) from the re-insertion of a previously deleted one
// (insert_deleted) when an Insert arrives after the snapshot (spec.md
// §4.8).
func (l *OperationLog) GetDeletedMetadata(txn *kv.Txn, key metadata.Key) (record.RecordMetadata, bool, error) {
	return l.metadataFor(key).GetDeleted(txn, key)
}

// GetRecordByOperationIDUnchecked resolves a known-live op-id directly,
// for iteration paths (the query adapter streaming present records) that
// already enumerated present_operation_ids or operation_id_to_operation
// and know the id is live.
func (l *OperationLog) GetRecordByOperationIDUnchecked(txn *kv.Txn, opID uint64) (record.CacheRecord, error) {
	rec, ok, err := l.resolveInsert(txn, opID)
	if err != nil {
		return record.CacheRecord{}, err
	}
	if !ok {
		invariantViolation("oplog: operation id %d has no entry", opID)
	}
	return rec, nil
}

// PresentOperationIDs returns an iterator over the op-ids of every
// currently-live Insert (spec.md §4.5.2): for append-only schemas every
// entry in operation_id_to_operation is live forever, so iteration falls
// back to that map's keys instead of the (always empty) present set.
func (l *OperationLog) PresentOperationIDs(txn *kv.Txn, appendOnly bool) (*collection.KeyIterator[uint64], error) {
	if appendOnly {
		return l.operationIDToOperation.Keys(txn)
	}
	return l.presentOperationIDs.Iter(txn)
}

// CountPresentRecords implements spec.md §4.5.2's count_present_records.
func (l *OperationLog) CountPresentRecords(txn *kv.Txn, appendOnly bool) (int, error) {
	if appendOnly {
		return l.operationIDToOperation.Count(txn)
	}
	return l.presentOperationIDs.Count(txn)
}

// ContainsOperationID reports whether opID has ever been written to
// operation_id_to_operation, live or retired.
func (l *OperationLog) ContainsOperationID(txn *kv.Txn, opID uint64) (bool, error) {
	_, ok, err := l.operationIDToOperation.Get(txn, opID)
	return ok, err
}

// GetOperation implements spec.md §4.5.2's get_operation: the full log
// entry at opID, used by replication and CDC fan-out (pkg/events).
func (l *OperationLog) GetOperation(txn *kv.Txn, opID uint64) (Operation, bool, error) {
	return l.operationIDToOperation.Get(txn, opID)
}
