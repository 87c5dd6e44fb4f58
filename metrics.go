package tagstash

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    getCounter       *prometheus.CounterVec
//	    snapshotDuration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGet(hit bool) {
//	    p.getCounter.WithLabelValues(strconv.FormatBool(hit)).Inc()
//	}
type MetricsCollector interface {
	// RecordGet is called after each lookup (Get or Has).
	// hit is false for missing and expired entries alike.
	RecordGet(hit bool)

	// RecordSet is called after each insert/refresh.
	RecordSet(duration time.Duration, err error)

	// RecordDelete is called after each explicit delete.
	RecordDelete()

	// RecordInvalidate is called after each bulk invalidation (tags,
	// pattern or clear). removed is the number of entries deleted.
	RecordInvalidate(removed int)

	// RecordSweep is called after each expiry sweep.
	RecordSweep(removed int, duration time.Duration)

	// RecordSnapshot is called after each persistence attempt.
	// bytes is the size of the written blob, err is nil on success.
	RecordSnapshot(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(bool)                           {}
func (NoopMetricsCollector) RecordSet(time.Duration, error)           {}
func (NoopMetricsCollector) RecordDelete()                            {}
func (NoopMetricsCollector) RecordInvalidate(int)                     {}
func (NoopMetricsCollector) RecordSweep(int, time.Duration)           {}
func (NoopMetricsCollector) RecordSnapshot(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetHits            atomic.Int64
	GetMisses          atomic.Int64
	SetCount           atomic.Int64
	SetErrors          atomic.Int64
	SetTotalNanos      atomic.Int64
	DeleteCount        atomic.Int64
	InvalidateCount    atomic.Int64
	InvalidateRemoved  atomic.Int64
	SweepCount         atomic.Int64
	SweepRemoved       atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotBytes      atomic.Int64
	SnapshotTotalNanos atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(hit bool) {
	if hit {
		b.GetHits.Add(1)
	} else {
		b.GetMisses.Add(1)
	}
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	b.SetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete() {
	b.DeleteCount.Add(1)
}

// RecordInvalidate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvalidate(removed int) {
	b.InvalidateCount.Add(1)
	b.InvalidateRemoved.Add(int64(removed))
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(removed int, duration time.Duration) {
	b.SweepCount.Add(1)
	b.SweepRemoved.Add(int64(removed))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotBytes.Add(int64(bytes))
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}
