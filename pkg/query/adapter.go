package query

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/metrics"
	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// Adapter serves spec.md §4.7/§6.3 queries against one endpoint's
// operation log, under a single schema.
type Adapter struct {
	endpointName string
	schema       record.Schema
	appendOnly   bool
	env          *kv.Env
	log          *oplog.OperationLog
	logg         zerolog.Logger
}

// NewAdapter builds a query Adapter over log, scoped to schema.
func NewAdapter(endpointName string, schema record.Schema, appendOnly bool, env *kv.Env, log *oplog.OperationLog, logger zerolog.Logger) *Adapter {
	return &Adapter{
		endpointName: endpointName,
		schema:       schema,
		appendOnly:   appendOnly,
		env:          env,
		log:          log,
		logg:         logger.With().Str("component", "query").Str("endpoint", endpointName).Logger(),
	}
}

// RecordBatch is one bounded slice of a query's results, still carrying
// the projection already applied.
type RecordBatch struct {
	Records []record.CacheRecord
}

// validate checks expr's field indices are in range for a.schema, and
// that every In predicate carries at least one value.
func (a *Adapter) validate(expr QueryExpression) error {
	n := len(a.schema.Fields)
	checkIdx := func(i int) error {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: index %d", ErrSchemaMismatch, i)
		}
		return nil
	}
	for _, p := range expr.Filter {
		if err := checkIdx(p.FieldIndex); err != nil {
			return err
		}
		if p.Op == OpIn && len(p.Values) == 0 {
			return fmt.Errorf("%w: in predicate with no values", ErrInvalidPredicate)
		}
	}
	for _, o := range expr.OrderBy {
		if err := checkIdx(o.FieldIndex); err != nil {
			return err
		}
	}
	for _, idx := range expr.Projection {
		if err := checkIdx(idx); err != nil {
			return err
		}
	}
	return nil
}

// orderPreservingPushdownTypes holds the primary-key field types
// scanPushedDown serves from the primary-key index. UInt's fixed-width
// unsigned big-endian encoding sorts in value order, so every operator
// can seek to its bound and stop early. String, Text and Binary encode a
// 4-byte length prefix before the bytes, so index order is by length
// first and agrees with value order only among keys of equal length:
// scanPushedDown seeks and stops early for them on OpEq only, and walks
// the whole index for every other operator.
// Int, Float, I128 and Timestamp do not qualify: a two's-complement
// or IEEE-754 bit pattern reinterpreted as an unsigned big-endian integer
// sorts negative values above every non-negative one, so an ascending
// cursor scan over those types cannot use pastUpperBound to stop early
// without silently dropping matching records.
var orderPreservingPushdownTypes = map[record.FieldType]bool{
	record.FieldTypeUInt:   true,
	record.FieldTypeString: true,
	record.FieldTypeText:   true,
	record.FieldTypeBinary: true,
}

// pushablePredicate reports whether expr's filter contains a predicate
// directly against the schema's single-column primary key — the only
// shape spec.md §4.7 push-down supports. Composite and absent primary
// keys, and primary keys whose encoding is not order-preserving, always
// fall back to a full scan.
func (a *Adapter) pushablePredicate(expr QueryExpression) (Predicate, bool) {
	if a.appendOnly || len(a.schema.PrimaryIndex) != 1 {
		return Predicate{}, false
	}
	pkIdx := a.schema.PrimaryIndex[0]
	if !orderPreservingPushdownTypes[a.schema.Fields[pkIdx].Type] {
		return Predicate{}, false
	}
	for _, p := range expr.Filter {
		if p.FieldIndex == pkIdx {
			return p, true
		}
	}
	return Predicate{}, false
}

// Query streams expr's results through emit, one RecordBatch at a time,
// under a single read transaction spanning the whole call (spec.md
// §4.7: snapshot isolation — concurrent writes never appear mid-stream).
// emit returning an error stops iteration and is returned unwrapped.
func (a *Adapter) Query(expr QueryExpression, emit func(RecordBatch) error) error {
	if err := a.validate(expr); err != nil {
		return err
	}
	batchSize := expr.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, a.endpointName)

	txn, err := a.env.Begin(false)
	if err != nil {
		return err
	}
	defer txn.Abort()

	batch := make([]record.CacheRecord, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		metrics.QueryRecordsReturned.WithLabelValues(a.endpointName).Add(float64(len(batch)))
		metrics.QueryBatchesStreamedTotal.WithLabelValues(a.endpointName).Inc()
		if err := emit(RecordBatch{Records: batch}); err != nil {
			return err
		}
		batch = make([]record.CacheRecord, 0, batchSize)
		return nil
	}

	// An OrderBy over fields outside the scan's natural key order has no
	// streaming answer: every admitted record must be seen before the
	// first one can be emitted. Buffer the filtered set, sort it, then
	// apply skip/limit/projection and flush in batches.
	if len(expr.OrderBy) > 0 {
		var matched []record.CacheRecord
		collect := func(rec record.CacheRecord) (bool, error) {
			match, err := a.matches(expr, rec.Record)
			if err != nil {
				return false, err
			}
			if !match {
				return false, nil
			}
			if expr.AccessFilter != nil && !expr.AccessFilter(rec) {
				return false, nil
			}
			matched = append(matched, rec)
			return false, nil
		}
		if pred, ok := a.pushablePredicate(expr); ok {
			err = a.scanPushedDown(txn, pred, collect)
		} else {
			err = a.scanFull(txn, collect)
		}
		if err != nil {
			return err
		}
		sortRecords(matched, expr.OrderBy)
		for i, rec := range matched {
			if i < expr.Skip {
				continue
			}
			if expr.Limit > 0 && i-expr.Skip >= expr.Limit {
				break
			}
			batch = append(batch, a.project(expr, rec))
			if len(batch) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	}

	produced := 0
	skipped := 0
	consider := func(rec record.CacheRecord) (stop bool, err error) {
		match, err := a.matches(expr, rec.Record)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
		if expr.AccessFilter != nil && !expr.AccessFilter(rec) {
			return false, nil
		}
		if skipped < expr.Skip {
			skipped++
			return false, nil
		}
		batch = append(batch, a.project(expr, rec))
		produced++
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return false, err
			}
		}
		if expr.Limit > 0 && produced >= expr.Limit {
			return true, nil
		}
		return false, nil
	}

	if pred, ok := a.pushablePredicate(expr); ok {
		err = a.scanPushedDown(txn, pred, consider)
	} else {
		err = a.scanFull(txn, consider)
	}
	if err != nil {
		return err
	}
	return flush()
}

// Count implements spec.md §4.7's count: the number of records expr's
// filter and access-filter admit, ignoring Limit/Skip/OrderBy/Projection.
func (a *Adapter) Count(expr QueryExpression) (int, error) {
	if err := a.validate(expr); err != nil {
		return 0, err
	}
	txn, err := a.env.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Abort()

	count := 0
	consider := func(rec record.CacheRecord) (bool, error) {
		match, err := a.matches(expr, rec.Record)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
		if expr.AccessFilter != nil && !expr.AccessFilter(rec) {
			return false, nil
		}
		count++
		return false, nil
	}

	if pred, ok := a.pushablePredicate(expr); ok {
		err = a.scanPushedDown(txn, pred, consider)
	} else {
		err = a.scanFull(txn, consider)
	}
	return count, err
}

// matches evaluates every predicate in expr.Filter (residual ones in
// full; the pushed-down one too, since push-down only narrows the scan
// range and does not itself guarantee every visited entry matches — an
// In or non-equality predicate seeks to the lowest bound and then walks
// forward past entries the predicate rejects).
func (a *Adapter) matches(expr QueryExpression, rec record.Record) (bool, error) {
	for _, p := range expr.Filter {
		ok, err := p.Matches(rec.Values[p.FieldIndex])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// project copies rec with only expr.Projection's fields retained, in
// projection order. A nil Projection returns rec unchanged.
func (a *Adapter) project(expr QueryExpression, rec record.CacheRecord) record.CacheRecord {
	if expr.Projection == nil {
		return rec
	}
	values := make([]record.Field, len(expr.Projection))
	for i, idx := range expr.Projection {
		values[i] = rec.Record.Values[idx]
	}
	out := rec
	out.Record = record.Record{Values: values, Lifetime: rec.Record.Lifetime}
	return out
}

// scanFull walks every present operation id in insertion order, for
// schemas with no push-down candidate.
func (a *Adapter) scanFull(txn *kv.Txn, consider func(record.CacheRecord) (bool, error)) error {
	iter, err := a.log.PresentOperationIDs(txn, a.appendOnly)
	if err != nil {
		return err
	}
	for {
		opID, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		rec, err := a.log.GetRecordByOperationIDUnchecked(txn, opID)
		if err != nil {
			return err
		}
		stop, err := consider(rec)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// scanPushedDown walks the primary-key cursor starting from pred's
// bound, in key order, stopping early once pred can no longer admit any
// further key (an upper-bounded predicate on an ascending cursor).
func (a *Adapter) scanPushedDown(txn *kv.Txn, pred Predicate, consider func(record.CacheRecord) (bool, error)) error {
	cursor, err := a.log.PrimaryKeyIndex().PrimaryKeyCursor(txn)
	if err != nil {
		return err
	}

	seekBound := pred.Value
	if pred.Op == OpIn {
		seekBound = lowestOf(pred.Values)
	}

	// Only UInt keys sort in value order for every operator; a
	// length-prefixed key sorts in value order only for an exact match.
	exactOrder := a.schema.Fields[pred.FieldIndex].Type == record.FieldTypeUInt || pred.Op == OpEq

	var val []byte
	var ok bool
	if pred.Op == OpLt || pred.Op == OpLe || !exactOrder {
		_, val, ok = cursor.First()
	} else {
		seekKey := codec.EncodeField(seekBound)
		_, val, ok = cursor.SeekGE(seekKey)
	}

	for ok {
		meta, err := a.log.PrimaryKeyIndex().DecodeEntry(val)
		if err != nil {
			return err
		}
		if meta.IsLive() {
			rec, err := a.log.GetRecordByOperationIDUnchecked(txn, *meta.InsertOperationID)
			if err != nil {
				return err
			}
			cur := rec.Record.Values[pred.FieldIndex]
			if halt := exactOrder && pastUpperBound(pred, cur); halt {
				return nil
			}
			admit, err := pred.Matches(cur)
			if err != nil {
				return err
			}
			if admit {
				stop, err := consider(rec)
				if err != nil {
					return err
				}
				if stop {
					return nil
				}
			}
		}
		_, val, ok = cursor.Next()
	}
	return nil
}

// pastUpperBound reports whether cur has walked past every value an
// ascending cursor could still satisfy pred with, letting scanPushedDown
// stop without visiting the rest of the index.
func pastUpperBound(pred Predicate, cur record.Field) bool {
	switch pred.Op {
	case OpEq:
		cmp, ok := compareFields(cur, pred.Value)
		return ok && cmp > 0
	case OpLt:
		cmp, ok := compareFields(cur, pred.Value)
		return ok && cmp >= 0
	case OpLe:
		cmp, ok := compareFields(cur, pred.Value)
		return ok && cmp > 0
	default:
		return false
	}
}

// sortRecords orders recs in place by terms, most-significant first;
// fields with no natural ordering compare as equal, falling through to
// the next term.
func sortRecords(recs []record.CacheRecord, terms []OrderTerm) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, t := range terms {
			cmp, ok := compareFields(recs[i].Record.Values[t.FieldIndex], recs[j].Record.Values[t.FieldIndex])
			if !ok || cmp == 0 {
				continue
			}
			if t.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// lowestOf returns the least value in vs by compareFields, for seeking
// an In predicate's cursor to the first candidate it could admit.
func lowestOf(vs []record.Field) record.Field {
	lowest := vs[0]
	for _, v := range vs[1:] {
		if cmp, ok := compareFields(v, lowest); ok && cmp < 0 {
			lowest = v
		}
	}
	return lowest
}
