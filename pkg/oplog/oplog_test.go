package oplog_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

func openLog(t *testing.T) (*kv.Env, *oplog.OperationLog) {
	t.Helper()
	env, err := kv.Open(filepath.Join(t.TempDir(), "test.db"), kv.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	var log *oplog.OperationLog
	err = env.Update(func(txn *kv.Txn) error {
		var err error
		log, err = oplog.Open(txn, true, zerolog.Nop())
		return err
	})
	require.NoError(t, err)
	return env, log
}

func recWith(v int64) record.Record {
	return record.Record{Values: []record.Field{record.FieldFromString("A"), record.FieldFromInt(v)}}
}

// Scenario 1 (spec.md §8): insert (pk=A, value=Int(10)).
func TestScenarioInsertNew(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		meta, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 1}, meta)

		cr, ok, err := log.GetRecord(txn, []byte("A"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint64(0), cr.ID)
		require.Equal(t, uint32(1), cr.Version)

		it, err := log.PresentOperationIDs(txn, false)
		require.NoError(t, err)
		require.Equal(t, []uint64{0}, drain(t, it))

		next, err := log.NextOperationID(txn)
		require.NoError(t, err)
		require.Equal(t, uint64(1), next)
		return nil
	})
	require.NoError(t, err)
}

// Scenario 2: insert A/10, then update to A/20.
func TestScenarioUpdate(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		meta, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)

		updated, err := log.Update(txn, key, recWith(20), meta, 0)
		require.NoError(t, err)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 2}, updated)

		cr, ok, err := log.GetRecord(txn, []byte("A"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint32(2), cr.Version)

		it, err := log.PresentOperationIDs(txn, false)
		require.NoError(t, err)
		require.Equal(t, []uint64{2}, drain(t, it))

		op0, ok, err := log.GetOperation(txn, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, oplog.OperationKindInsert, op0.Kind)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 1}, op0.RecordMeta)

		op1, ok, err := log.GetOperation(txn, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, oplog.OperationKindDelete, op1.Kind)
		require.Equal(t, uint64(0), op1.DeleteOperationID)

		op2, ok, err := log.GetOperation(txn, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, oplog.OperationKindInsert, op2.Kind)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 2}, op2.RecordMeta)

		next, err := log.NextOperationID(txn)
		require.NoError(t, err)
		require.Equal(t, uint64(3), next)
		return nil
	})
	require.NoError(t, err)
}

// Scenario 3: insert A/10, update to A/20, delete.
func TestScenarioDelete(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		meta, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)
		meta, err = log.Update(txn, key, recWith(20), meta, 0)
		require.NoError(t, err)

		err = log.Delete(txn, key, meta, 2)
		require.NoError(t, err)

		_, ok, err := log.GetRecord(txn, []byte("A"))
		require.NoError(t, err)
		require.False(t, ok)

		it, err := log.PresentOperationIDs(txn, false)
		require.NoError(t, err)
		require.Empty(t, drain(t, it))

		op3, ok, err := log.GetOperation(txn, 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, oplog.OperationKindDelete, op3.Kind)
		require.Equal(t, uint64(2), op3.DeleteOperationID)
		return nil
	})
	require.NoError(t, err)
}

// Scenario 4: after scenario 3, insert_deleted("A", {id:0,v:2}, A/30).
func TestScenarioInsertDeleted(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		meta, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)
		meta, err = log.Update(txn, key, recWith(20), meta, 0)
		require.NoError(t, err)
		require.NoError(t, log.Delete(txn, key, meta, 2))

		reinserted, err := log.InsertDeleted(txn, key, recWith(30), meta)
		require.NoError(t, err)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 3}, reinserted)

		cr, ok, err := log.GetRecord(txn, []byte("A"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint32(3), cr.Version)

		it, err := log.PresentOperationIDs(txn, false)
		require.NoError(t, err)
		require.Equal(t, []uint64{4}, drain(t, it))

		op4, ok, err := log.GetOperation(txn, 4)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, record.RecordMeta{ID: 0, Version: 3}, op4.RecordMeta)
		return nil
	})
	require.NoError(t, err)
}

// Scenario 5: append-only schema, insert the same record twice.
func TestScenarioAppendOnly(t *testing.T) {
	env, log := openLog(t)

	err := env.Update(func(txn *kv.Txn) error {
		m1, err := log.InsertNew(txn, nil, recWith(10))
		require.NoError(t, err)
		require.Equal(t, uint64(0), m1.ID)

		m2, err := log.InsertNew(txn, nil, recWith(10))
		require.NoError(t, err)
		require.Equal(t, uint64(1), m2.ID)

		it, err := log.PresentOperationIDs(txn, true)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 1}, drain(t, it))

		count, err := log.CountPresentRecords(txn, true)
		require.NoError(t, err)
		require.Equal(t, 2, count)
		return nil
	})
	require.NoError(t, err)
}

func TestInsertNewRejectsDuplicateLiveKey(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		_, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)
		_, err = log.InsertNew(txn, &key, recWith(20))
		require.ErrorIs(t, err, oplog.ErrKeyAlreadyPresent)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateRejectsStaleMeta(t *testing.T) {
	env, log := openLog(t)
	key := metadata.PrimaryKey([]byte("A"))

	err := env.Update(func(txn *kv.Txn) error {
		meta, err := log.InsertNew(txn, &key, recWith(10))
		require.NoError(t, err)

		stale := meta
		stale.Version = 99
		_, err = log.Update(txn, key, recWith(20), stale, 0)
		require.ErrorIs(t, err, oplog.ErrVersionMismatch)
		return nil
	})
	require.NoError(t, err)
}

type iterator interface {
	Next() (uint64, bool, error)
}

func drain(t *testing.T, it iterator) []uint64 {
	t.Helper()
	var out []uint64
	for {
		v, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}
