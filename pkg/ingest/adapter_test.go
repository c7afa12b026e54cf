package ingest_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/events"
	"github.com/getdozer/dozer-cache/pkg/ingest"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

func testSchema() record.Schema {
	return record.Schema{
		Fields: []record.FieldDefinition{
			{Name: "id", Type: record.FieldTypeString},
			{Name: "value", Type: record.FieldTypeInt},
		},
		PrimaryIndex: []int{0},
	}
}

func rowWith(id string, v int64) record.Record {
	return record.Record{Values: []record.Field{record.FieldFromString(id), record.FieldFromInt(v)}}
}

func openEnvAndLog(t *testing.T) (*kv.Env, *oplog.OperationLog) {
	t.Helper()
	env, err := kv.Open(filepath.Join(t.TempDir(), "ingest.db"), kv.DefaultOptions(), zerolog.Nop())
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

// TestAdapterSnapshotThenCDC covers spec.md §4.8's full mapping: an
// Insert during the snapshot becomes insert_new, an Insert after the
// snapshot for an absent key also becomes insert_new, an Update requires
// looking up the prior entry under the key derived from Old, and a
// Delete tombstones it. Every committed operation must also reach a
// subscriber via the broker.
func TestAdapterSnapshotThenCDC(t *testing.T) {
	env, log := openEnvAndLog(t)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	cfg := ingest.Config{EndpointName: "users", Schema: testSchema(), TableIndex: 0, JoinKey: "users"}
	adapter := ingest.NewAdapter(cfg, env, log, nil, broker, nil, zerolog.Nop())

	msgs := make(chan ingest.IngestionMessage, 10)
	msgs <- ingest.IngestionMessage{Kind: ingest.MsgSnapshottingStarted}
	rowA := rowWith("A", 1)
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgOperationEvent,
		OperationEvent: &ingest.OperationEventMessage{
			TableIndex: 0,
			Op:         ingest.ChangeOp{Kind: ingest.OpInsert, New: &rowA},
		},
	}
	checkpoint := ingest.NewOpIdentifier()
	msgs <- ingest.IngestionMessage{Kind: ingest.MsgSnapshottingDone, SnapshotCheckpoint: &checkpoint}

	rowB := rowWith("B", 2)
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgOperationEvent,
		OperationEvent: &ingest.OperationEventMessage{
			TableIndex: 0,
			Op:         ingest.ChangeOp{Kind: ingest.OpInsert, New: &rowB},
		},
	}
	rowA2 := rowWith("A", 99)
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgOperationEvent,
		OperationEvent: &ingest.OperationEventMessage{
			TableIndex: 0,
			Op:         ingest.ChangeOp{Kind: ingest.OpUpdate, Old: &rowA, New: &rowA2},
		},
	}
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgOperationEvent,
		OperationEvent: &ingest.OperationEventMessage{
			TableIndex: 0,
			Op:         ingest.ChangeOp{Kind: ingest.OpDelete, Old: &rowB},
		},
	}
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgTransactionInfo,
		TransactionInfo: &ingest.TransactionInfoMessage{
			Kind:   ingest.TxnCommit,
			Commit: ingest.CommitInfo{ID: ingest.NewOpIdentifier()},
		},
	}
	close(msgs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, adapter.Run(ctx, msgs))

	var received int
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				t.Fatal("subscriber channel closed unexpectedly")
			}
			received++
		default:
			goto done
		}
	}
done:
	// insert_new(A), insert_new(B), update(A) (2 op-ids), delete(B) = 5 operations
	require.Equal(t, 5, received)

	err := env.View(func(txn *kv.Txn) error {
		rec, ok, err := log.GetRecord(txn, codec.EncodeField(record.FieldFromString("A")))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(99), rec.Record.Values[1].Int)

		_, ok, err = log.GetRecord(txn, codec.EncodeField(record.FieldFromString("B")))
		require.NoError(t, err)
		require.False(t, ok, "B must be tombstoned after Delete")
		return nil
	})
	require.NoError(t, err)
}

func TestAdapterIgnoresEventsForOtherTables(t *testing.T) {
	env, log := openEnvAndLog(t)
	cfg := ingest.Config{EndpointName: "users", Schema: testSchema(), TableIndex: 0, JoinKey: "users"}
	adapter := ingest.NewAdapter(cfg, env, log, nil, nil, nil, zerolog.Nop())

	msgs := make(chan ingest.IngestionMessage, 2)
	row := rowWith("Z", 1)
	msgs <- ingest.IngestionMessage{
		Kind: ingest.MsgOperationEvent,
		OperationEvent: &ingest.OperationEventMessage{
			TableIndex: 1,
			Op:         ingest.ChangeOp{Kind: ingest.OpInsert, New: &row},
		},
	}
	close(msgs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, adapter.Run(ctx, msgs))

	err := env.View(func(txn *kv.Txn) error {
		present, err := log.ContainsOperationID(txn, 0)
		require.NoError(t, err)
		require.False(t, present, "event for a different table_index must be ignored")
		return nil
	})
	require.NoError(t, err)
}
