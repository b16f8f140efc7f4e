package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates the provider is reachable and quota remains.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates callers are getting fallbacks
	// (provider unconfigured, circuit open, quota spent or store down).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates the governor is closed.
	HealthStatusUnhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthMetrics describes the governor at a point in time.
type HealthMetrics struct {
	Timestamp          time.Time    `json:"timestamp"`
	Status             HealthStatus `json:"status"`
	ProviderConfigured bool         `json:"providerConfigured"`
	CircuitState       string       `json:"circuitState"`
	Store              string       `json:"store"`
	StoreAvailable     bool         `json:"storeAvailable"`
	Cache              CacheStats   `json:"cache"`
	Today              TodayUsage   `json:"today"`
	DailyQuota         int          `json:"dailyQuota"`
	QuotaRemaining     int          `json:"quotaRemaining"`
}

// MetricsSnapshot contains a point-in-time view of gateway counters.
//
//nolint:govet // Metrics struct - grouping by category improves readability
type MetricsSnapshot struct {
	Timestamp time.Time

	CacheHits   int64
	CacheMisses int64

	RemoteCalls    int64
	RemoteFailures int64

	NotConfigured int64
	QuotaDenied   int64
	Fallbacks     int64

	CircuitStateChanges int64

	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// HitRatio calculates the response cache hit ratio.
func (s *MetricsSnapshot) HitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}
