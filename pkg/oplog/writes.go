package oplog

import (
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// InsertNew implements spec.md §4.5.1's insert_new. Passing key=nil
// declares append-only mode for this insert: a fresh op-id is minted and
// used directly as the record id, with neither metadata index touched
// (invariant 7). Passing a non-nil key requires the key not already be
// live; the record id is minted from the index's distinct-identity
// counter.
func (l *OperationLog) InsertNew(txn *kv.Txn, key *metadata.Key, rec record.Record) (record.RecordMeta, error) {
	if key == nil {
		opID, err := l.nextOperationID.FetchAdd(txn, 1)
		if err != nil {
			return record.RecordMeta{}, err
		}
		meta := record.RecordMeta{ID: opID, Version: record.InitialRecordVersion}
		op := Operation{Kind: OperationKindInsert, RecordMeta: meta, Record: rec}
		if err := l.operationIDToOperation.InsertNoOverwrite(txn, opID, op); err != nil {
			invariantViolation("oplog: duplicate operation id %d in operation_id_to_operation (append-only insert)", opID)
		}
		return meta, nil
	}

	m := l.metadataFor(*key)
	if _, ok, err := m.GetPresent(txn, *key); err != nil {
		return record.RecordMeta{}, err
	} else if ok {
		return record.RecordMeta{}, ErrKeyAlreadyPresent
	}

	recordID, err := m.CountData(txn)
	if err != nil {
		return record.RecordMeta{}, err
	}
	newMeta := record.RecordMeta{ID: recordID, Version: record.InitialRecordVersion}
	return l.insertOverwriteFlow(txn, *key, rec, nil, newMeta, m)
}

// InsertDeleted implements spec.md §4.5.1's insert_deleted: reinserting a
// previously deleted key, bumping its version. priorMeta must match the
// tombstone currently stored under key exactly, or the precondition is
// an invariant violation (the caller is reinserting against a key it
// never actually held a consistent tombstone view of).
func (l *OperationLog) InsertDeleted(txn *kv.Txn, key metadata.Key, rec record.Record, priorMeta record.RecordMeta) (record.RecordMeta, error) {
	m := l.metadataFor(key)
	deleted, ok, err := m.GetDeleted(txn, key)
	if err != nil {
		return record.RecordMeta{}, err
	}
	if !ok || deleted.Meta != priorMeta {
		invariantViolation("oplog: insert_deleted precondition violated for key, expected tombstone %+v", priorMeta)
	}

	newMeta := record.RecordMeta{ID: priorMeta.ID, Version: priorMeta.Version + 1}
	old := record.RecordMetadata{Meta: priorMeta}
	return l.insertOverwriteFlow(txn, key, rec, &old, newMeta, m)
}

// Update implements spec.md §4.5.1's update: logically delete-then-
// reinsert, bumping version and consuming exactly two op-ids. Returns
// ErrVersionMismatch if the caller's view of the live entry is stale —
// the caller may retry after re-reading current metadata (spec.md
// §4.5.5).
func (l *OperationLog) Update(txn *kv.Txn, key metadata.Key, rec record.Record, priorMeta record.RecordMeta, priorInsertOpID uint64) (record.RecordMeta, error) {
	m := l.metadataFor(key)
	if err := l.debugCheckRecordExistence(txn, key, priorMeta, priorInsertOpID, m); err != nil {
		return record.RecordMeta{}, err
	}
	if err := l.deleteWithoutUpdatingMetadata(txn, priorInsertOpID); err != nil {
		return record.RecordMeta{}, err
	}

	old := record.RecordMetadata{Meta: priorMeta, InsertOperationID: &priorInsertOpID}
	newMeta := record.RecordMeta{ID: priorMeta.ID, Version: priorMeta.Version + 1}
	return l.insertOverwriteFlow(txn, key, rec, &old, newMeta, m)
}

// Delete implements spec.md §4.5.1's delete: retires the live insert and
// leaves a tombstone with insert_operation_id = None, preserving
// version. No new Insert entry is appended; exactly one op-id (the
// compensating Delete) is consumed.
func (l *OperationLog) Delete(txn *kv.Txn, key metadata.Key, priorMeta record.RecordMeta, priorInsertOpID uint64) error {
	m := l.metadataFor(key)
	if err := l.debugCheckRecordExistence(txn, key, priorMeta, priorInsertOpID, m); err != nil {
		return err
	}
	if err := l.deleteWithoutUpdatingMetadata(txn, priorInsertOpID); err != nil {
		return err
	}

	old := record.RecordMetadata{Meta: priorMeta, InsertOperationID: &priorInsertOpID}
	newVal := record.RecordMetadata{Meta: priorMeta}
	if err := m.InsertOverwrite(txn, key, old, newVal); err != nil {
		return ErrVersionMismatch
	}
	return nil
}

// insertOverwriteFlow is the internal overwrite flow of spec.md §4.5.3,
// shared by the keyed path of InsertNew, InsertDeleted, and Update.
func (l *OperationLog) insertOverwriteFlow(
	txn *kv.Txn,
	key metadata.Key,
	rec record.Record,
	old *record.RecordMetadata,
	newMeta record.RecordMeta,
	m metadata.Metadata,
) (record.RecordMeta, error) {
	opID, err := l.nextOperationID.FetchAdd(txn, 1)
	if err != nil {
		return record.RecordMeta{}, err
	}
	newEntry := record.RecordMetadata{Meta: newMeta, InsertOperationID: &opID}

	if old != nil {
		if err := m.InsertOverwrite(txn, key, *old, newEntry); err != nil {
			return record.RecordMeta{}, ErrVersionMismatch
		}
	} else if err := m.Insert(txn, key, newEntry); err != nil {
		invariantViolation("oplog: metadata insert for a brand new key unexpectedly failed at op-id %d: %v", opID, err)
	}

	if err := l.presentOperationIDs.Insert(txn, opID); err != nil {
		invariantViolation("oplog: operation id %d already present in present_operation_ids", opID)
	}

	op := Operation{Kind: OperationKindInsert, RecordMeta: newMeta, Record: rec}
	if err := l.operationIDToOperation.InsertNoOverwrite(txn, opID, op); err != nil {
		invariantViolation("oplog: duplicate operation id %d in operation_id_to_operation", opID)
	}

	return newMeta, nil
}

// debugCheckRecordExistence verifies the caller's view of the live entry
// under key matches exactly what is stored, the shared precondition
// check of Update and Delete. A mismatch is reported to the caller
// (ErrVersionMismatch) rather than treated as corruption: it means
// someone else mutated the key since the caller last read it.
func (l *OperationLog) debugCheckRecordExistence(txn *kv.Txn, key metadata.Key, priorMeta record.RecordMeta, priorInsertOpID uint64, m metadata.Metadata) error {
	live, ok, err := m.GetPresent(txn, key)
	if err != nil {
		return err
	}
	if !ok || live.Meta != priorMeta || live.InsertOperationID == nil || *live.InsertOperationID != priorInsertOpID {
		return ErrVersionMismatch
	}
	return nil
}

// deleteWithoutUpdatingMetadata retires priorInsertOpID from
// present_operation_ids and appends the compensating Delete entry,
// without touching the metadata index itself — callers (Update, Delete)
// update metadata separately. Corresponds to the Rust
// delete_without_updating_metadata in operation_log/mod.rs; its assert
// failure is, per spec.md §9's resolved open question, an invariant
// violation, never a recoverable error.
func (l *OperationLog) deleteWithoutUpdatingMetadata(txn *kv.Txn, insertOperationID uint64) error {
	present, err := l.presentOperationIDs.Contains(txn, insertOperationID)
	if err != nil {
		return err
	}
	if !present {
		invariantViolation("oplog: insert operation id %d not found in present_operation_ids", insertOperationID)
	}
	if err := l.presentOperationIDs.Remove(txn, insertOperationID); err != nil {
		return err
	}

	newOpID, err := l.nextOperationID.FetchAdd(txn, 1)
	if err != nil {
		return err
	}
	op := Operation{Kind: OperationKindDelete, DeleteOperationID: insertOperationID}
	if err := l.operationIDToOperation.InsertNoOverwrite(txn, newOpID, op); err != nil {
		invariantViolation("oplog: duplicate operation id %d in operation_id_to_operation (delete)", newOpID)
	}
	return nil
}
