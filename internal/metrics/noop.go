package metrics

import (
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// NoOpRecorder discards everything. The gateway uses it when no
// recorder is supplied.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordCacheHit(string)                          {}
func (NoOpRecorder) RecordCacheMiss(string)                         {}
func (NoOpRecorder) RecordRemoteCall(string, string, time.Duration) {}
func (NoOpRecorder) RecordDenied(string, string)                    {}
func (NoOpRecorder) RecordFallback(string, string)                  {}
func (NoOpRecorder) RecordCircuitBreakerStateChange(string, string) {}

// OrNoOp returns r, or a NoOpRecorder when r is nil.
func OrNoOp(r types.MetricsRecorder) types.MetricsRecorder {
	if r == nil {
		return NoOpRecorder{}
	}
	return r
}

// NoOpPublisher discards everything.
type NoOpPublisher struct{}

func (NoOpPublisher) Gauge(string, float64, ...string)          {}
func (NoOpPublisher) Incr(string, ...string)                    {}
func (NoOpPublisher) Count(string, int64, ...string)            {}
func (NoOpPublisher) Histogram(string, float64, ...string)      {}
func (NoOpPublisher) Timing(string, time.Duration, ...string)   {}
func (NoOpPublisher) Event(string, string, string, ...string)   {}
func (NoOpPublisher) PublishHealthMetrics(*types.HealthMetrics) {}
func (NoOpPublisher) PublishSnapshot(types.MetricsSnapshot)     {}
func (NoOpPublisher) Close() error                              { return nil }

var (
	_ types.MetricsRecorder = NoOpRecorder{}
	_ Publisher             = NoOpPublisher{}
)
