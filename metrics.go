package semshift

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAlign is called after each alignment run. words is the size of
	// the common vocabulary, 0 on failure.
	RecordAlign(words int, duration time.Duration, err error)

	// RecordQuery is called after each top-k or context query.
	RecordQuery(k int, duration time.Duration, err error)

	// RecordMining is called after each sentence mining request. pairs is
	// the number of returned line pairs.
	RecordMining(pairs int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlign(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordMining(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// It is safe for concurrent use.
type BasicMetricsCollector struct {
	AlignCount      atomic.Int64
	AlignErrors     atomic.Int64
	AlignTotalNanos atomic.Int64
	AlignedWords    atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	MiningCount     atomic.Int64
	MiningErrors    atomic.Int64
	MinedPairs      atomic.Int64
}

// RecordAlign implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlign(words int, duration time.Duration, err error) {
	b.AlignCount.Add(1)
	b.AlignTotalNanos.Add(duration.Nanoseconds())
	b.AlignedWords.Add(int64(words))
	if err != nil {
		b.AlignErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordMining implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMining(pairs int, _ time.Duration, err error) {
	b.MiningCount.Add(1)
	b.MinedPairs.Add(int64(pairs))
	if err != nil {
		b.MiningErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AlignCount:    b.AlignCount.Load(),
		AlignErrors:   b.AlignErrors.Load(),
		AlignAvgNanos: avg(b.AlignTotalNanos.Load(), b.AlignCount.Load()),
		AlignedWords:  b.AlignedWords.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryAvgNanos: avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		MiningCount:   b.MiningCount.Load(),
		MiningErrors:  b.MiningErrors.Load(),
		MinedPairs:    b.MinedPairs.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AlignCount    int64
	AlignErrors   int64
	AlignAvgNanos int64
	AlignedWords  int64
	QueryCount    int64
	QueryErrors   int64
	QueryAvgNanos int64
	MiningCount   int64
	MiningErrors  int64
	MinedPairs    int64
}
