package gridgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring
// systems like Prometheus.
//
// Mutation callbacks receive the number of cells touched, which is the
// cost driver for grid operations. Query callbacks additionally receive
// the wall-clock duration.
type MetricsCollector interface {
	// RecordInsert is called after each insert with the number of
	// cells the element was linked into.
	RecordInsert(cells int)

	// RecordRemove is called after each remove with the number of
	// cells probed.
	RecordRemove(cells int)

	// RecordUpdate is called after each update with the combined cell
	// count of the old and new bounds.
	RecordUpdate(cells int)

	// RecordQuery is called after each query or visit with the number
	// of distinct elements found and the time taken.
	RecordQuery(results int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(int)               {}
func (NoopMetricsCollector) RecordRemove(int)               {}
func (NoopMetricsCollector) RecordUpdate(int)               {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies. Safe for concurrent use even though the Grid itself is
// not: several grids may share one collector.
type BasicMetricsCollector struct {
	InsertCount     atomic.Int64
	InsertCells     atomic.Int64
	RemoveCount     atomic.Int64
	RemoveCells     atomic.Int64
	UpdateCount     atomic.Int64
	UpdateCells     atomic.Int64
	QueryCount      atomic.Int64
	QueryResults    atomic.Int64
	QueryTotalNanos atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(cells int) {
	b.InsertCount.Add(1)
	b.InsertCells.Add(int64(cells))
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(cells int) {
	b.RemoveCount.Add(1)
	b.RemoveCells.Add(int64(cells))
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(cells int) {
	b.UpdateCount.Add(1)
	b.UpdateCells.Add(int64(cells))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(results int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:   b.InsertCount.Load(),
		InsertCells:   b.InsertCells.Load(),
		RemoveCount:   b.RemoveCount.Load(),
		RemoveCells:   b.RemoveCells.Load(),
		UpdateCount:   b.UpdateCount.Load(),
		UpdateCells:   b.UpdateCells.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryResults:  b.QueryResults.Load(),
		QueryAvgNanos: b.getAvgQueryNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount   int64
	InsertCells   int64
	RemoveCount   int64
	RemoveCells   int64
	UpdateCount   int64
	UpdateCells   int64
	QueryCount    int64
	QueryResults  int64
	QueryAvgNanos int64
}
