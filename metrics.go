package goLogin

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts identity flows that completed with an identity.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts identity flows that completed with an error.
	MetricLoginFailure
	// MetricValidationRejected counts flows rejected before any network call.
	MetricValidationRejected
	MetricConnectionAuthSuccess
	MetricConnectionAuthRevoked
	MetricConnectionAuthError
	// MetricSessionPersisted counts successful session saves.
	MetricSessionPersisted
	// MetricSessionPersistFailed counts saves that failed without failing the flow.
	MetricSessionPersistFailed
	MetricSessionCleared
	MetricSessionRestored
	MetricSessionRestoreEmpty
	// MetricRevocationDetected counts background revocations observed by the watcher.
	MetricRevocationDetected
	MetricLogout
	MetricAccountCreated
	MetricAccountRemoved
	MetricPasswordChanged
	MetricPasswordResetSent
	MetricAccountFlowFailure
	// MetricFlowTimeout counts flows that ended on their deadline.
	MetricFlowTimeout
	// MetricFlowLatency is the end-to-end flow latency histogram.
	MetricFlowLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's in-process counters.
//
// All methods are safe for concurrent use and are no-ops on a nil or disabled Metrics.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only MetricFlowLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricFlowLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricFlowLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricFlowLatency].buckets[i])
		}
		s.Histograms[MetricFlowLatency] = buckets
	}

	return s
}

// Buckets: 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 5s, +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 5000:
		return 6
	default:
		return 7
	}
}
