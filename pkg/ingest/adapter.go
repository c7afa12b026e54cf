package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/eviction"
	"github.com/getdozer/dozer-cache/pkg/events"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/metrics"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// Config configures an Adapter for one endpoint's single table (spec.md
// §4.8 is written per-endpoint; a connector that multiplexes several
// tables gets one Adapter per table_index it's asked to serve).
type Config struct {
	// EndpointName labels metrics and log lines.
	EndpointName string
	// Schema is the endpoint's record schema.
	Schema record.Schema
	// TableIndex is the OperationEvent.TableIndex this adapter accepts;
	// events for any other table index are ignored.
	TableIndex int
	// AppendOnly mirrors spec.md §3.2 invariant 7: neither metadata
	// index is consulted, every Insert mints a fresh identity.
	AppendOnly bool
	// JoinKey is the identifier eviction.Manager indexes this
	// endpoint's lifetimes under.
	JoinKey string
}

// Adapter is the single-writer consumer loop of spec.md §4.8: it reads
// IngestionMessages from a Connector and maps them onto OperationLog
// calls, opening a writer txn at the snapshot start (or the first
// post-snapshot message) and committing at a transaction boundary.
type Adapter struct {
	cfg         Config
	env         *kv.Env
	log         *oplog.OperationLog
	evict       *eviction.Manager // nil if the schema never carries a lifetime
	broker      *events.Broker
	checkpoints *CheckpointStore
	logg        zerolog.Logger

	txn           *kv.Txn
	txnStartOpID  uint64
	pendingCommit *OpIdentifier
}

// NewAdapter builds an Adapter bound to one endpoint's log and,
// optionally, its eviction manager. broker may be nil if nothing
// subscribes to this endpoint yet; checkpoints may be nil if the
// connector tracks its own resume position and persisting one here
// would be redundant.
func NewAdapter(cfg Config, env *kv.Env, log *oplog.OperationLog, evict *eviction.Manager, broker *events.Broker, checkpoints *CheckpointStore, logger zerolog.Logger) *Adapter {
	return &Adapter{
		cfg:         cfg,
		env:         env,
		log:         log,
		evict:       evict,
		broker:      broker,
		checkpoints: checkpoints,
		logg:        logger.With().Str("component", "ingest").Str("endpoint", cfg.EndpointName).Logger(),
	}
}

// LastCheckpoint returns the last persisted checkpoint for this
// endpoint, for the caller to pass back into Connector.Start on
// restart (spec.md §4.8 point 3).
func (a *Adapter) LastCheckpoint(txn *kv.Txn) (OpIdentifier, bool, error) {
	if a.checkpoints == nil {
		return OpIdentifier{}, false, nil
	}
	return a.checkpoints.Load(txn)
}

// Run drains msgs until ctx is canceled or the channel closes, mapping
// each message onto the log per spec.md §4.8. On ctx cancellation it
// aborts any open transaction and returns ctx.Err(); a partially
// accumulated transaction is never silently committed.
func (a *Adapter) Run(ctx context.Context, msgs <-chan IngestionMessage) error {
	defer a.abortOpenTxn()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			metrics.IngestChannelDepth.WithLabelValues(a.cfg.EndpointName).Set(float64(len(msgs)))
			if err := a.handle(msg); err != nil {
				a.abortOpenTxn()
				return err
			}
		}
	}
}

func (a *Adapter) handle(msg IngestionMessage) error {
	switch msg.Kind {
	case MsgSnapshottingStarted:
		metrics.IngestEventsTotal.WithLabelValues(a.cfg.EndpointName, "snapshotting_started").Inc()
		return a.ensureTxn()
	case MsgSnapshottingDone:
		metrics.IngestEventsTotal.WithLabelValues(a.cfg.EndpointName, "snapshotting_done").Inc()
		// The snapshot phase has no TransactionInfo::Commit of its own;
		// its id is the checkpoint marking the bulk load durable.
		if msg.SnapshotCheckpoint != nil {
			a.pendingCommit = msg.SnapshotCheckpoint
		}
		return a.commitTxn()
	case MsgOperationEvent:
		metrics.IngestEventsTotal.WithLabelValues(a.cfg.EndpointName, "operation_event").Inc()
		return a.handleOperationEvent(msg.OperationEvent)
	case MsgTransactionInfo:
		return a.handleTransactionInfo(msg.TransactionInfo)
	default:
		return fmt.Errorf("ingest: unrecognized message kind %d", msg.Kind)
	}
}

func (a *Adapter) handleOperationEvent(evt *OperationEventMessage) error {
	if evt.TableIndex != a.cfg.TableIndex {
		return nil
	}
	if err := a.ensureTxn(); err != nil {
		return err
	}

	switch evt.Op.Kind {
	case OpInsert:
		return a.applyInsert(evt.Op.New)
	case OpUpdate:
		return a.applyUpdate(evt.Op.Old, evt.Op.New)
	case OpDelete:
		return a.applyDelete(evt.Op.Old)
	default:
		return fmt.Errorf("ingest: unrecognized op kind %d", evt.Op.Kind)
	}
}

// keyFor derives the metadata.Key a row addresses itself under, or nil
// for append-only schemas. Matches pkg/query and pkg/oplog's own
// PK-first, hash-fallback dispatch (spec.md §4.4).
func (a *Adapter) keyFor(rec record.Record) *metadata.Key {
	if a.cfg.AppendOnly {
		return nil
	}
	if a.cfg.Schema.HasPrimaryKey() {
		key := metadata.PrimaryKey(codec.PrimaryKeyBytes(a.cfg.Schema, rec))
		return &key
	}
	key := metadata.HashKey(codec.RecordHash(a.cfg.Schema, rec), codec.EncodeRecord(rec))
	return &key
}

func (a *Adapter) applyInsert(newRow *record.Record) error {
	if newRow == nil {
		return fmt.Errorf("ingest: Insert operation missing New row")
	}
	key := a.keyFor(*newRow)

	var (
		meta record.RecordMeta
		err  error
	)
	if key == nil {
		meta, err = a.log.InsertNew(a.txn, nil, *newRow)
	} else {
		_, present, presentErr := a.log.GetMetadata(a.txn, *key)
		if presentErr != nil {
			return presentErr
		}
		if present {
			return fmt.Errorf("ingest: Insert for already-present key on endpoint %q", a.cfg.EndpointName)
		}
		tombstone, deleted, deletedErr := a.log.GetDeletedMetadata(a.txn, *key)
		if deletedErr != nil {
			return deletedErr
		}
		if deleted {
			meta, err = a.log.InsertDeleted(a.txn, *key, *newRow, tombstone.Meta)
		} else {
			meta, err = a.log.InsertNew(a.txn, key, *newRow)
		}
	}
	if err != nil {
		return err
	}
	return a.afterInsert(key, meta, *newRow)
}

func (a *Adapter) applyUpdate(oldRow, newRow *record.Record) error {
	if oldRow == nil || newRow == nil {
		return fmt.Errorf("ingest: Update operation requires both Old and New rows")
	}
	key := a.keyFor(*oldRow)
	if key == nil {
		return fmt.Errorf("ingest: Update against an append-only endpoint %q", a.cfg.EndpointName)
	}

	prior, ok, err := a.log.GetMetadata(a.txn, *key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ingest: Update for a key with no live entry on endpoint %q", a.cfg.EndpointName)
	}

	meta, err := a.log.Update(a.txn, *key, *newRow, prior.Meta, *prior.InsertOperationID)
	if err != nil {
		return err
	}
	return a.afterInsert(key, meta, *newRow)
}

func (a *Adapter) applyDelete(oldRow *record.Record) error {
	if oldRow == nil {
		return fmt.Errorf("ingest: Delete operation missing Old row")
	}
	key := a.keyFor(*oldRow)
	if key == nil {
		return fmt.Errorf("ingest: Delete against an append-only endpoint %q", a.cfg.EndpointName)
	}

	prior, ok, err := a.log.GetMetadata(a.txn, *key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ingest: Delete for a key with no live entry on endpoint %q", a.cfg.EndpointName)
	}

	if err := a.log.Delete(a.txn, *key, prior.Meta, *prior.InsertOperationID); err != nil {
		return err
	}
	metrics.OplogOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// afterInsert records the lifetime index entry for rec, if it carries
// one. eviction.Manager needs the op-id of the Insert it will eventually
// retire, not the record's logical identity (meta.ID) — for a keyed
// insert those differ, so the live metadata entry is re-read to recover
// it. Append-only inserts (key == nil) get no lifetime index entry and
// are never scheduled for eviction. Publishing happens at commit, over the whole op-id range
// the txn produced, so it is not this method's concern.
func (a *Adapter) afterInsert(key *metadata.Key, meta record.RecordMeta, rec record.Record) error {
	metrics.OplogOperationsTotal.WithLabelValues("insert").Inc()
	if rec.Lifetime != nil && a.evict != nil && key != nil {
		pk := key.PrimaryKeyBytes
		if key.Kind == metadata.KeyKindHash {
			pk = key.RecordBytes
		}
		live, ok, err := a.log.GetMetadata(a.txn, *key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("ingest: no live metadata for key just inserted on endpoint %q", a.cfg.EndpointName)
		}
		if err := a.evict.InsertLifetime(a.txn, *rec.Lifetime, a.cfg.JoinKey, pk, *key, meta, *live.InsertOperationID); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) handleTransactionInfo(info *TransactionInfoMessage) error {
	switch info.Kind {
	case TxnCommit:
		metrics.IngestEventsTotal.WithLabelValues(a.cfg.EndpointName, "commit").Inc()
		id := info.Commit.ID
		a.pendingCommit = &id
		return a.commitTxn()
	case TxnSnapshottingStarted, TxnSnapshottingDone:
		return nil
	default:
		return fmt.Errorf("ingest: unrecognized transaction info kind %d", info.Kind)
	}
}

func (a *Adapter) ensureTxn() error {
	if a.txn != nil {
		return nil
	}
	txn, err := a.env.Begin(true)
	if err != nil {
		return err
	}
	startOpID, err := a.log.NextOperationID(txn)
	if err != nil {
		_ = txn.Abort()
		return err
	}
	a.txn = txn
	a.txnStartOpID = startOpID
	return nil
}

// commitTxn implements the commit boundary of spec.md §4.8: commit the
// accumulated writer txn, then publish every operation it produced —
// including any compensating Delete an Update appended internally — in
// op-id order, so a subscriber tailing from an op-id never misses one
// the log actually holds.
func (a *Adapter) commitTxn() error {
	if a.txn == nil {
		a.pendingCommit = nil
		return nil
	}
	txn := a.txn
	startOpID := a.txnStartOpID
	commitID := a.pendingCommit
	a.txn = nil
	a.pendingCommit = nil

	endOpID, err := a.log.NextOperationID(txn)
	if err != nil {
		_ = txn.Abort()
		return err
	}

	var pending []events.OperationEvent
	if a.broker != nil {
		for id := startOpID; id < endOpID; id++ {
			op, ok, err := a.log.GetOperation(txn, id)
			if err != nil {
				_ = txn.Abort()
				return err
			}
			if !ok {
				continue
			}
			pending = append(pending, events.OperationEvent{OperationID: id, Operation: op})
		}
	}

	if commitID != nil && a.checkpoints != nil {
		if err := a.checkpoints.Save(txn, *commitID); err != nil {
			_ = txn.Abort()
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return err
	}
	for _, evt := range pending {
		a.broker.Publish(evt)
	}
	return nil
}

func (a *Adapter) abortOpenTxn() {
	if a.txn == nil {
		return
	}
	if err := a.txn.Abort(); err != nil {
		a.logg.Error().Err(err).Msg("ingest: aborting open transaction on shutdown")
	}
	a.txn = nil
}
