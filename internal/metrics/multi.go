package metrics

import (
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// MultiRecorder forwards every event to each of its recorders in order.
type MultiRecorder []types.MetricsRecorder

// Multi combines recorders, dropping nil entries. A single recorder is
// returned as is.
func Multi(recorders ...types.MetricsRecorder) types.MetricsRecorder {
	out := make(MultiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return NoOpRecorder{}
	case 1:
		return out[0]
	}
	return out
}

func (m MultiRecorder) RecordCacheHit(endpoint string) {
	for _, r := range m {
		r.RecordCacheHit(endpoint)
	}
}

func (m MultiRecorder) RecordCacheMiss(endpoint string) {
	for _, r := range m {
		r.RecordCacheMiss(endpoint)
	}
}

func (m MultiRecorder) RecordRemoteCall(endpoint, outcome string, latency time.Duration) {
	for _, r := range m {
		r.RecordRemoteCall(endpoint, outcome, latency)
	}
}

func (m MultiRecorder) RecordDenied(endpoint, reason string) {
	for _, r := range m {
		r.RecordDenied(endpoint, reason)
	}
}

func (m MultiRecorder) RecordFallback(operation, reason string) {
	for _, r := range m {
		r.RecordFallback(operation, reason)
	}
}

func (m MultiRecorder) RecordCircuitBreakerStateChange(from, to string) {
	for _, r := range m {
		r.RecordCircuitBreakerStateChange(from, to)
	}
}
