package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/getdozer/dozer-cache/pkg/eviction"
	"github.com/getdozer/dozer-cache/pkg/events"
	"github.com/getdozer/dozer-cache/pkg/ingest"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metrics"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/query"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// Endpoint ties one endpoint's KV environment, operation log, ingestion
// adapter, query adapter and eviction manager together and exposes
// spec.md §6.3's API-facing interface (get/query/count/subscribe/schema)
// over it, mirroring the way the teacher's Store façade gathers every
// entity's CRUD behind a single type.
type Endpoint struct {
	cfg    EndpointConfig
	schema record.Schema

	env    *kv.Env
	log    *oplog.OperationLog
	evict  *eviction.Manager
	broker *events.Broker

	query  *query.Adapter
	ingest *ingest.Adapter

	logg zerolog.Logger
}

// Open opens (creating if necessary) the endpoint backed by dir/<name>.db,
// wiring every sub-component per cfg. The returned Endpoint owns its
// Broker (started) and must be closed with Close.
func Open(cfg EndpointConfig, dir string, logger zerolog.Logger) (*Endpoint, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	opts := kv.DefaultOptions()
	if cfg.Env.MapSize > 0 {
		opts.MapSize = cfg.Env.MapSize
	}
	if cfg.Env.MaxReaders > 0 {
		opts.MaxReaders = cfg.Env.MaxReaders
	}
	opts.NoSync = cfg.Env.NoSync

	logg := logger.With().Str("component", "cache").Str("endpoint", cfg.Name).Logger()
	env, err := kv.Open(filepath.Join(dir, cfg.Name+".db"), opts, logg)
	if err != nil {
		return nil, fmt.Errorf("cache: opening endpoint %q: %w", cfg.Name, err)
	}

	var log *oplog.OperationLog
	var evict *eviction.Manager
	var checkpoints *ingest.CheckpointStore
	err = env.Update(func(txn *kv.Txn) error {
		var err error
		log, err = oplog.Open(txn, true, logg)
		if err != nil {
			return err
		}
		evict, err = eviction.Open(txn, true, log, logg)
		if err != nil {
			return err
		}
		checkpoints, err = ingest.OpenCheckpointStore(txn, true)
		return err
	})
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("cache: initializing endpoint %q: %w", cfg.Name, err)
	}

	broker := events.NewBroker()
	broker.Start()

	queryAdapter := query.NewAdapter(cfg.Name, schema, cfg.AppendOnly, env, log, logg)

	ingestAdapter := ingest.NewAdapter(ingest.Config{
		EndpointName: cfg.Name,
		Schema:       schema,
		TableIndex:   cfg.SourceTableIdx,
		AppendOnly:   cfg.AppendOnly,
		JoinKey:      cfg.Name,
	}, env, log, evict, broker, checkpoints, logg)

	return &Endpoint{
		cfg:    cfg,
		schema: schema,
		env:    env,
		log:    log,
		evict:  evict,
		broker: broker,
		query:  queryAdapter,
		ingest: ingestAdapter,
		logg:   logg,
	}, nil
}

// Close stops the endpoint's event broker and closes its KV environment.
// Any ingestion loop driven by RunIngestion must already have returned.
func (e *Endpoint) Close() error {
	e.broker.Stop()
	return e.env.Close()
}

// Schema implements spec.md §6.3's schema().
func (e *Endpoint) Schema() record.Schema { return e.schema }

// EvictDue runs one eviction sweep: deletes every record whose lifetime
// expired at or before now (spec.md §4.6), then cleans the processed
// index buckets in the same transaction, and returns how many records
// were evicted.
func (e *Endpoint) EvictDue(now time.Time) (int, error) {
	var count int
	err := e.env.Update(func(txn *kv.Txn) error {
		times, err := e.evict.Evict(txn, now)
		if err != nil {
			return err
		}
		count = len(times)
		if len(times) == 0 {
			return nil
		}
		return e.evict.Clean(txn, times)
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		metrics.EvictionRecordsEvictedTotal.WithLabelValues(e.cfg.Name).Add(float64(count))
	}
	return count, nil
}

// Get implements spec.md §6.3's get(pk_bytes). For hash-keyed schemas
// (no primary index), use GetByHash instead.
func (e *Endpoint) Get(pkBytes []byte) (record.CacheRecord, bool, error) {
	var rec record.CacheRecord
	var ok bool
	err := e.env.View(func(txn *kv.Txn) error {
		var err error
		rec, ok, err = e.log.GetRecord(txn, pkBytes)
		return err
	})
	return rec, ok, err
}

// GetByHash looks up a record by its hash-metadata key, for schemas with
// no primary key (spec.md §4.4).
func (e *Endpoint) GetByHash(hash uint64, recordBytes []byte) (record.CacheRecord, bool, error) {
	var rec record.CacheRecord
	var ok bool
	err := e.env.View(func(txn *kv.Txn) error {
		var err error
		rec, ok, err = e.log.GetRecordByHash(txn, hash, recordBytes)
		return err
	})
	return rec, ok, err
}

// Query implements spec.md §6.3's query(QueryExpression) -> stream<CacheRecord>.
func (e *Endpoint) Query(expr query.QueryExpression, emit func(query.RecordBatch) error) error {
	if expr.BatchSize == 0 && e.cfg.BatchSize > 0 {
		expr.BatchSize = e.cfg.BatchSize
	}
	return e.query.Query(expr, emit)
}

// Count implements spec.md §6.3's count(QueryExpression) -> usize.
func (e *Endpoint) Count(expr query.QueryExpression) (int, error) {
	return e.query.Count(expr)
}

// Subscribe implements spec.md §6.3's subscribe() -> stream<Operation>,
// tailing the log from fromOpID. The returned cancel func must be called
// once the caller stops consuming, to unsubscribe from the broker.
func (e *Endpoint) Subscribe(fromOpID uint64) (<-chan events.OperationEvent, func(), error) {
	return events.Tail(e.broker, e.env, e.log, fromOpID)
}

// RunIngestion drives connector through spec.md §6.2's lifecycle: list
// its tables, fetch schemas, resume from this endpoint's last persisted
// checkpoint, and feed its message stream into the ingestion adapter
// until ctx is canceled or the stream closes.
func (e *Endpoint) RunIngestion(ctx context.Context, connector ingest.Connector) error {
	tables, err := connector.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("cache: listing tables for endpoint %q: %w", e.cfg.Name, err)
	}
	if _, err := connector.GetSchemas(ctx, tables); err != nil {
		return fmt.Errorf("cache: fetching schemas for endpoint %q: %w", e.cfg.Name, err)
	}

	var checkpoint *ingest.OpIdentifier
	err = e.env.View(func(txn *kv.Txn) error {
		id, ok, err := e.ingest.LastCheckpoint(txn)
		if err != nil || !ok {
			return err
		}
		checkpoint = &id
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: reading checkpoint for endpoint %q: %w", e.cfg.Name, err)
	}

	msgs, err := connector.Start(ctx, tables, checkpoint)
	if err != nil {
		return fmt.Errorf("cache: starting connector for endpoint %q: %w", e.cfg.Name, err)
	}
	return e.ingest.Run(ctx, msgs)
}
