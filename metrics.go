package seqgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordIngest is called after the ingestion phase.
	RecordIngest(files, records int, duration time.Duration, err error)

	// RecordBuild is called after each generation build.
	// reverse reports which generation was built.
	RecordBuild(reverse bool, duration time.Duration, err error)

	// RecordPersist is called after each artifact write.
	RecordPersist(duration time.Duration, err error)

	// RecordArchive is called after the optional archiving step.
	RecordArchive(artifacts int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(bool, time.Duration, error)      {}
func (NoopMetricsCollector) RecordPersist(time.Duration, error)          {}
func (NoopMetricsCollector) RecordArchive(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCount       atomic.Int64
	IngestRecords     atomic.Int64
	IngestErrors      atomic.Int64
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildTotalNanos   atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
	PersistTotalNanos atomic.Int64
	ArchiveCount      atomic.Int64
	ArchiveErrors     atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(files, records int, duration time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestRecords.Add(int64(records))
	if err != nil {
		b.IngestErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(reverse bool, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(duration time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// RecordArchive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArchive(artifacts int, duration time.Duration, err error) {
	b.ArchiveCount.Add(1)
	if err != nil {
		b.ArchiveErrors.Add(1)
	}
}
