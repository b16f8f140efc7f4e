package metrics

import (
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// Publisher ships metrics to a backend.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text, alertType string, tags ...string)
	PublishHealthMetrics(m *types.HealthMetrics)
	PublishSnapshot(s types.MetricsSnapshot)
	Close() error
}
