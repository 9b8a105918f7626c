package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters for scheduler decisions plus a
// latency aggregate for whole Execute cycles.
type Metrics struct {
	cycles    uint64
	placed    uint64
	updated   uint64
	repriced  uint64
	canceled  uint64
	closeOuts uint64
	deferred  uint64
	rejected  uint64
	stale     uint64

	cycleLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	max   uint64
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncCycle()    { atomic.AddUint64(&m.cycles, 1) }
func (m *Metrics) IncPlaced()   { atomic.AddUint64(&m.placed, 1) }
func (m *Metrics) IncUpdated()  { atomic.AddUint64(&m.updated, 1) }
func (m *Metrics) IncRepriced() { atomic.AddUint64(&m.repriced, 1) }
func (m *Metrics) IncCanceled() { atomic.AddUint64(&m.canceled, 1) }

// IncCloseOut counts a market-on-close fallback submission.
func (m *Metrics) IncCloseOut() { atomic.AddUint64(&m.closeOuts, 1) }

// IncDeferred counts a cycle where no price was available.
func (m *Metrics) IncDeferred() { atomic.AddUint64(&m.deferred, 1) }

// IncRejected counts a broker reject.
func (m *Metrics) IncRejected() { atomic.AddUint64(&m.rejected, 1) }

// IncStale counts a mutation refused because the order was terminal.
func (m *Metrics) IncStale() { atomic.AddUint64(&m.stale, 1) }

// ObserveCycle records the wall time of one Execute call.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if d < 0 {
		return
	}
	ns := uint64(d.Nanoseconds())
	atomic.AddUint64(&m.cycleLatency.count, 1)
	atomic.AddUint64(&m.cycleLatency.sum, ns)
	for {
		max := atomic.LoadUint64(&m.cycleLatency.max)
		if ns <= max || atomic.CompareAndSwapUint64(&m.cycleLatency.max, max, ns) {
			return
		}
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Cycles    uint64
	Placed    uint64
	Updated   uint64
	Repriced  uint64
	Canceled  uint64
	CloseOuts uint64
	Deferred  uint64
	Rejected  uint64
	Stale     uint64

	CycleCount uint64
	CycleAvg   time.Duration
	CycleMax   time.Duration
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Cycles:    atomic.LoadUint64(&m.cycles),
		Placed:    atomic.LoadUint64(&m.placed),
		Updated:   atomic.LoadUint64(&m.updated),
		Repriced:  atomic.LoadUint64(&m.repriced),
		Canceled:  atomic.LoadUint64(&m.canceled),
		CloseOuts: atomic.LoadUint64(&m.closeOuts),
		Deferred:  atomic.LoadUint64(&m.deferred),
		Rejected:  atomic.LoadUint64(&m.rejected),
		Stale:     atomic.LoadUint64(&m.stale),
	}
	count := atomic.LoadUint64(&m.cycleLatency.count)
	sum := atomic.LoadUint64(&m.cycleLatency.sum)
	snap.CycleCount = count
	if count > 0 {
		snap.CycleAvg = time.Duration(sum / count)
	}
	snap.CycleMax = time.Duration(atomic.LoadUint64(&m.cycleLatency.max))
	return snap
}
