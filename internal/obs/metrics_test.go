package obs

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncCycle()
	m.IncPlaced()
	m.IncPlaced()
	m.IncCanceled()
	m.IncCloseOut()
	m.IncDeferred()
	m.IncStale()
	m.ObserveCycle(10 * time.Millisecond)
	m.ObserveCycle(30 * time.Millisecond)

	snap := m.Snapshot()
	if snap.Cycles != 1 || snap.Placed != 2 || snap.Canceled != 1 {
		t.Fatalf("counter mismatch: %+v", snap)
	}
	if snap.CloseOuts != 1 || snap.Deferred != 1 || snap.Stale != 1 {
		t.Fatalf("counter mismatch: %+v", snap)
	}
	if snap.CycleCount != 2 {
		t.Fatalf("cycle count mismatch: %+v", snap)
	}
	if snap.CycleAvg != 20*time.Millisecond {
		t.Fatalf("cycle avg mismatch: %v", snap.CycleAvg)
	}
	if snap.CycleMax != 30*time.Millisecond {
		t.Fatalf("cycle max mismatch: %v", snap.CycleMax)
	}
}
