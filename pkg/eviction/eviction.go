package eviction

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// Entry is one scheduled eviction: enough of the live record's identity
// to issue a standard pkg/oplog.Delete against it once its lifetime
// expires. MetaKey is the metadata address (primary-key or hash) the
// record is actually indexed under; PrimaryKeyBytes is the record's
// encoded primary key for a primary-key-addressed record, or its encoded
// record bytes for a hash-addressed one, used for the
// (join_key, primary_key) uniqueness of the eviction index itself.
type Entry struct {
	JoinKey           string
	PrimaryKeyBytes   []byte
	MetaKey           metadata.Key
	Meta              record.RecordMeta
	InsertOperationID uint64
}

// Manager owns the eviction_time → [(join_key, primary_key)] index
// (spec.md §4.6) and the OperationLog it issues deletes against.
type Manager struct {
	index *collection.Map[[]byte, Entry]
	log   *oplog.OperationLog
	logg  zerolog.Logger
}

// DBEvictionIndex names the sub-database backing the eviction index, not
// part of spec.md §6.1's table (lifetime eviction is a supplemented
// feature; see SPEC_FULL.md §12).
const DBEvictionIndex = "eviction_index"

// Open opens (creating if requested) the eviction index sub-database.
func Open(txn *kv.Txn, create bool, log *oplog.OperationLog, logger zerolog.Logger) (*Manager, error) {
	db, err := txn.OpenDB(DBEvictionIndex, kv.DBOptions{Create: create})
	if err != nil {
		return nil, err
	}
	return &Manager{
		index: collection.NewMap[[]byte, Entry](db, collection.BytesCodec{}, entryCodec{}),
		log:   log,
		logg:  logger.With().Str("component", "eviction").Logger(),
	}, nil
}

// compositeKey orders entries by eviction time first so ascending
// iteration visits them in non-decreasing eviction_time order (spec.md
// §4.6's ordering guarantee), then by join key and primary key so
// distinct records at the same instant don't collide.
func compositeKey(evictionTime time.Time, joinKey string, pk []byte) []byte {
	out := make([]byte, 0, 8+len(joinKey)+len(pk)+4)
	out = append(out, kv.EncodeUint64Key(uint64(evictionTime.UnixNano()))...)
	jk := []byte(joinKey)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(jk)))
	out = append(out, lenBuf...)
	out = append(out, jk...)
	out = append(out, pk...)
	return out
}

// decodeEvictionTime recovers the eviction instant from a composite
// index key's 8-byte big-endian prefix.
func decodeEvictionTime(key []byte) time.Time {
	return time.Unix(0, int64(kv.DecodeUint64Key(key[:8])))
}

// InsertLifetime schedules pk for eviction at lifetime.EvictionTime()
// (spec.md §4.6). metaKey is the metadata address the record is stored
// under (primary-key or hash); meta/insertOperationID identify the live
// Insert the eventual Evict call will retire.
func (m *Manager) InsertLifetime(txn *kv.Txn, lifetime record.Lifetime, joinKey string, pk []byte, metaKey metadata.Key, meta record.RecordMeta, insertOperationID uint64) error {
	evictionTime := lifetime.EvictionTime()
	if evictionTime.Before(lifetime.Reference) {
		return ErrEvictionTimeOverflow
	}
	key := compositeKey(evictionTime, joinKey, pk)
	entry := Entry{
		JoinKey:           joinKey,
		PrimaryKeyBytes:   pk,
		MetaKey:           metaKey,
		Meta:              meta,
		InsertOperationID: insertOperationID,
	}
	return m.index.Insert(txn, key, entry)
}

// Evict deletes every entry whose eviction time is at or before now,
// issuing a standard oplog.Delete for each (spec.md §3.3: eviction emits
// a compensating Delete exactly like a client-initiated one), and
// returns the set of eviction times that were processed so the caller
// can Clean them.
func (m *Manager) Evict(txn *kv.Txn, now time.Time) ([]time.Time, error) {
	it, err := m.index.Iter(txn)
	if err != nil {
		return nil, err
	}

	var evicted []time.Time
	for {
		key, entry, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		evictionTime := decodeEvictionTime(key)
		if evictionTime.After(now) {
			break // composite keys are time-ordered ascending; nothing further is due
		}

		if err := m.log.Delete(txn, entry.MetaKey, entry.Meta, entry.InsertOperationID); err != nil {
			return nil, fmt.Errorf("eviction: delete %q/%x: %w", entry.JoinKey, entry.PrimaryKeyBytes, err)
		}
		evicted = append(evicted, evictionTime)
	}
	if len(evicted) > 0 {
		m.logg.Debug().Int("count", len(evicted)).Time("now", now).Msg("evicted expired records")
	}
	return evicted, nil
}

// Clean removes the index buckets for the given eviction times, once the
// caller has processed everything Evict returned for them.
func (m *Manager) Clean(txn *kv.Txn, times []time.Time) error {
	it, err := m.index.Iter(txn)
	if err != nil {
		return err
	}
	due := make(map[int64]bool, len(times))
	for _, t := range times {
		due[t.UnixNano()] = true
	}

	var toDelete [][]byte
	for {
		key, _, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if due[decodeEvictionTime(key).UnixNano()] {
			toDelete = append(toDelete, key)
		}
	}
	for _, key := range toDelete {
		if err := m.index.Delete(txn, key); err != nil {
			return err
		}
	}
	return nil
}
