package oplog_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// reopenEveryNSteps controls how often TestOperationLogPropertySuite closes
// and reopens the environment mid-sequence, to cover spec.md §8's
// "assert all invariants after every operation and after reopen"
// persistence requirement.
const reopenEveryNSteps = 47

// keyState tracks, outside the log, what this test believes each key's
// current state is, so invariants can be checked against an independent
// model after every step (spec.md §8's property-based suite).
type keyState struct {
	live    bool
	meta    record.RecordMeta
	insOpID uint64
}

// TestOperationLogPropertySuite generates random sequences of
// {insert_new, update, delete, insert_deleted} over a small key space and
// asserts the quantified invariants of spec.md §8 after every step, and
// periodically closes and reopens the environment mid-sequence to check
// the same invariants hold against what was actually persisted to disk.
func TestOperationLogPropertySuite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prop.db")
	env, err := kv.Open(dbPath, kv.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	defer func() {
		if env != nil {
			_ = env.Close()
		}
	}()

	var log *oplog.OperationLog
	err = env.Update(func(txn *kv.Txn) error {
		var err error
		log, err = oplog.Open(txn, true, zerolog.Nop())
		return err
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	keys := []string{"A", "B", "C"}
	model := make(map[string]*keyState, len(keys))
	for _, k := range keys {
		model[k] = &keyState{}
	}

	for step := 0; step < 500; step++ {
		k := keys[rng.Intn(len(keys))]
		st := model[k]
		key := metadata.PrimaryKey([]byte(k))

		err := env.Update(func(txn *kv.Txn) error {
			switch {
			case !st.live && st.meta == (record.RecordMeta{}):
				meta, err := log.InsertNew(txn, &key, recWith(int64(step)))
				require.NoError(t, err)
				st.live, st.meta, st.insOpID = true, meta, metaInsertOpID(t, txn, log, key)
			case !st.live:
				meta, err := log.InsertDeleted(txn, key, recWith(int64(step)), st.meta)
				require.NoError(t, err)
				st.live, st.meta, st.insOpID = true, meta, metaInsertOpID(t, txn, log, key)
			case rng.Intn(2) == 0:
				meta, err := log.Update(txn, key, recWith(int64(step)), st.meta, st.insOpID)
				require.NoError(t, err)
				st.meta, st.insOpID = meta, metaInsertOpID(t, txn, log, key)
			default:
				err := log.Delete(txn, key, st.meta, st.insOpID)
				require.NoError(t, err)
				st.live = false
			}
			return assertInvariants(t, txn, log)
		})
		require.NoError(t, err)

		if (step+1)%reopenEveryNSteps == 0 {
			require.NoError(t, env.Close())
			env, err = kv.Open(dbPath, kv.DefaultOptions(), zerolog.Nop())
			require.NoError(t, err)
			err = env.Update(func(txn *kv.Txn) error {
				var err error
				log, err = oplog.Open(txn, false, zerolog.Nop())
				if err != nil {
					return err
				}
				return assertInvariants(t, txn, log)
			})
			require.NoError(t, err, "invariants must hold after reopen")
		}
	}
}

func metaInsertOpID(t *testing.T, txn *kv.Txn, log *oplog.OperationLog, key metadata.Key) uint64 {
	t.Helper()
	cr, ok, err := log.GetRecord(txn, key.PrimaryKeyBytes)
	require.NoError(t, err)
	require.True(t, ok)
	// The op-id a live record currently points to is only observable
	// indirectly: re-derive it by scanning present_operation_ids for the
	// entry whose Insert matches this record's identity.
	it, err := log.PresentOperationIDs(txn, false)
	require.NoError(t, err)
	for {
		id, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got, err := log.GetRecordByOperationIDUnchecked(txn, id)
		require.NoError(t, err)
		if got.ID == cr.ID && got.Version == cr.Version {
			return id
		}
	}
	t.Fatalf("could not find insert op-id for key")
	return 0
}

func assertInvariants(t *testing.T, txn *kv.Txn, log *oplog.OperationLog) error {
	t.Helper()

	next, err := log.NextOperationID(txn)
	require.NoError(t, err)

	it, err := log.PresentOperationIDs(txn, false)
	require.NoError(t, err)
	present := drain(t, it)

	for _, id := range present {
		require.Less(t, id, next)
		op, ok, err := log.GetOperation(txn, id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, oplog.OperationKindInsert, op.Kind, "every present operation id must resolve to an Insert")
	}

	count, err := log.CountPresentRecords(txn, false)
	require.NoError(t, err)
	require.Equal(t, len(present), count)

	return nil
}
