// Package metrics collects gateway counters and publishes them.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Remote call outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeRateLimited  = "rate_limited"
	OutcomeNoResults    = "no_results"
	OutcomeCircuitOpen  = "circuit_open"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// Reasons a request was denied before any call, or fell back.
const (
	ReasonNotConfigured = "not_configured"
	ReasonQuota         = "quota"
	ReasonTier          = "tier"
	ReasonMonthlyLimit  = "monthly_limit"
	ReasonWaypoints     = "waypoints"
	ReasonUnavailable   = "unavailable"
	ReasonError         = "error"
)

// Tracker is the in-process MetricsRecorder. When a publisher is
// attached every event is also forwarded to it.
type Tracker struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	remoteCalls    atomic.Int64
	remoteFailures atomic.Int64

	notConfigured atomic.Int64
	quotaDenied   atomic.Int64
	fallbacks     atomic.Int64

	cbStateChanges atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	publisher Publisher
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPublisher forwards every recorded event to p.
func WithPublisher(p Publisher) TrackerOption {
	return func(t *Tracker) { t.publisher = p }
}

// WithLatencyBuffer sets how many recent latencies feed the percentiles.
func WithLatencyBuffer(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.latencyBuffer = make([]time.Duration, n)
		}
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
		publisher:     NoOpPublisher{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) RecordCacheHit(endpoint string) {
	t.cacheHits.Add(1)
	t.publisher.Incr("cache.hit", EndpointTag(endpoint))
}

func (t *Tracker) RecordCacheMiss(endpoint string) {
	t.cacheMisses.Add(1)
	t.publisher.Incr("cache.miss", EndpointTag(endpoint))
}

// RecordRemoteCall records one provider call and its latency.
func (t *Tracker) RecordRemoteCall(endpoint, outcome string, latency time.Duration) {
	t.remoteCalls.Add(1)
	if outcome != OutcomeSuccess {
		t.remoteFailures.Add(1)
	}
	t.recordLatency(latency)
	t.publisher.Timing("provider.latency", latency, EndpointTag(endpoint), OutcomeTag(outcome))
}

// RecordDenied records a request answered without calling the provider.
func (t *Tracker) RecordDenied(endpoint, reason string) {
	switch reason {
	case ReasonNotConfigured:
		t.notConfigured.Add(1)
	case ReasonQuota:
		t.quotaDenied.Add(1)
	}
	t.publisher.Incr("gateway.denied", EndpointTag(endpoint), ReasonTag(reason))
}

// RecordFallback records a route estimate or absent geocode served in
// place of provider data.
func (t *Tracker) RecordFallback(operation, reason string) {
	t.fallbacks.Add(1)
	t.publisher.Incr("gateway.fallback", OperationTag(operation), ReasonTag(reason))
}

func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	t.cbStateChanges.Add(1)
	t.publisher.Event("Provider circuit "+to, "circuit moved from "+from+" to "+to, alertType(to), CircuitStateTag(to))
}

func alertType(state string) string {
	if state == "open" {
		return "warning"
	}
	return "info"
}

// recordLatency writes into a circular buffer.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() types.MetricsSnapshot {
	t.latencyMu.RLock()
	count := t.latencyCount
	latencies := make([]time.Duration, count)
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencies, t.latencyBuffer[:count])
		} else {
			// full: the oldest sample sits at latencyIndex
			n := copy(latencies, t.latencyBuffer[t.latencyIndex:])
			copy(latencies[n:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := types.MetricsSnapshot{
		Timestamp:           time.Now(),
		CacheHits:           t.cacheHits.Load(),
		CacheMisses:         t.cacheMisses.Load(),
		RemoteCalls:         t.remoteCalls.Load(),
		RemoteFailures:      t.remoteFailures.Load(),
		NotConfigured:       t.notConfigured.Load(),
		QuotaDenied:         t.quotaDenied.Load(),
		Fallbacks:           t.fallbacks.Load(),
		CircuitStateChanges: t.cbStateChanges.Load(),
	}

	if len(latencies) > 0 {
		snapshot.AvgLatencyMs = durationMs(avgDuration(latencies))
		snapshot.P50LatencyMs = durationMs(percentile(latencies, 50))
		snapshot.P95LatencyMs = durationMs(percentile(latencies, 95))
		snapshot.P99LatencyMs = durationMs(percentile(latencies, 99))
	}
	return snapshot
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.cacheHits.Store(0)
	t.cacheMisses.Store(0)
	t.remoteCalls.Store(0)
	t.remoteFailures.Store(0)
	t.notConfigured.Store(0)
	t.quotaDenied.Store(0)
	t.fallbacks.Store(0)
	t.cbStateChanges.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)
	return sorted[(len(sorted)-1)*p/100]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
