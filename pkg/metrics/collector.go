package metrics

import (
	"time"

	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/oplog"
)

// Collector periodically samples one endpoint's operation log into the
// OplogNextOperationID/OplogPresentRecords gauges.
type Collector struct {
	name       string
	env        *kv.Env
	log        *oplog.OperationLog
	appendOnly bool
	interval   time.Duration
	stopCh     chan struct{}
}

// NewCollector creates a collector for one named endpoint.
func NewCollector(name string, env *kv.Env, log *oplog.OperationLog, appendOnly bool) *Collector {
	return &Collector{
		name:       name,
		env:        env,
		log:        log,
		appendOnly: appendOnly,
		interval:   15 * time.Second,
		stopCh:     make(chan struct{}),
	}
}

// Start begins collecting metrics on a ticker, in its own goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	_ = c.env.View(func(txn *kv.Txn) error {
		next, err := c.log.NextOperationID(txn)
		if err != nil {
			return err
		}
		OplogNextOperationID.WithLabelValues(c.name).Set(float64(next))

		present, err := c.log.CountPresentRecords(txn, c.appendOnly)
		if err != nil {
			return err
		}
		OplogPresentRecords.WithLabelValues(c.name).Set(float64(present))
		return nil
	})
}
