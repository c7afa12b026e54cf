package events

import (
	"sync"

	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/oplog"
)

// OperationEvent pairs an appended operation with the op-id it was
// logged under, the unit §6.3's subscribe() streams.
type OperationEvent struct {
	OperationID uint64
	Operation   oplog.Operation
}

// Subscriber is a channel that receives operations as they are
// published, in op-id order.
type Subscriber chan OperationEvent

// Broker fans out operations to every live subscriber. It only ever
// carries operations published after a given Subscribe call; reading
// what was already committed to the log is Tail's job.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan OperationEvent
	stopCh      chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan OperationEvent, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an operation to all subscribers. Callers publish in
// the same op-id order they committed the operations, immediately after
// the writer txn that appended them commits (pkg/ingest's commit
// boundary).
func (b *Broker) Publish(evt OperationEvent) {
	select {
	case b.eventCh <- evt:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case evt := <-b.eventCh:
			b.broadcast(evt)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(evt OperationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- evt:
		default:
			// Subscriber buffer full, skip. A slow subscriber falls behind
			// rather than stalling the writer; it must reconnect via Tail
			// with its last seen op-id to recover the gap.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Tail implements §6.3's subscribe(): a stream of every operation from
// fromOpID onward, splicing the persisted log (for anything already
// committed) with live broadcast (for anything published from here on).
// The subscription is taken out before the historical scan runs, so an
// operation committed mid-scan is never lost — it either lands in the
// historical read or arrives on the live channel, and the watermark
// dedupes the overlap.
func Tail(b *Broker, env *kv.Env, log *oplog.OperationLog, fromOpID uint64) (<-chan OperationEvent, func(), error) {
	live := b.Subscribe()

	var historical []OperationEvent
	err := env.View(func(txn *kv.Txn) error {
		next, err := log.NextOperationID(txn)
		if err != nil {
			return err
		}
		for id := fromOpID; id < next; id++ {
			present, err := log.ContainsOperationID(txn, id)
			if err != nil {
				return err
			}
			if !present {
				continue
			}
			op, _, err := log.GetOperation(txn, id)
			if err != nil {
				return err
			}
			historical = append(historical, OperationEvent{OperationID: id, Operation: op})
		}
		return nil
	})
	if err != nil {
		b.Unsubscribe(live)
		return nil, nil, err
	}

	watermark := fromOpID
	if len(historical) > 0 {
		watermark = historical[len(historical)-1].OperationID + 1
	}

	out := make(chan OperationEvent, cap(live))
	go func() {
		defer close(out)
		for _, evt := range historical {
			out <- evt
		}
		for evt := range live {
			if evt.OperationID < watermark {
				continue
			}
			out <- evt
		}
	}()

	cancel := func() { b.Unsubscribe(live) }
	return out, cancel, nil
}
