package metrics

import (
	"log/slog"
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// LoggingPublisher writes metrics to slog. Individual metrics go out at
// debug level; health and snapshot batches at info.
type LoggingPublisher struct {
	logger   *slog.Logger
	baseTags []string
}

func NewLoggingPublisher(logger *slog.Logger, baseTags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{
		logger:   logger.With("component", "metrics"),
		baseTags: baseTags,
	}
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.logger.Debug("gauge", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.logger.Debug("incr", "name", name, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.logger.Debug("count", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Histogram(name string, value float64, tags ...string) {
	p.logger.Debug("histogram", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.logger.Debug("timing", "name", name, "duration_ms", duration.Milliseconds(), "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Event(title, text, alertType string, tags ...string) {
	p.logger.Info("event",
		"title", title,
		"text", text,
		"alert_type", alertType,
		"tags", p.mergeTags(tags),
	)
}

func (p *LoggingPublisher) PublishHealthMetrics(m *types.HealthMetrics) {
	if m == nil {
		return
	}
	p.logger.Info("health_metrics",
		"status", m.Status.String(),
		"provider_configured", m.ProviderConfigured,
		"circuit_state", m.CircuitState,
		"store", m.Store,
		"store_available", m.StoreAvailable,
		"cache_size", m.Cache.Size,
		"cache_usage_pct", m.Cache.UsagePercent,
		"api_calls_today", m.Today.APICalls,
		"quota_remaining", m.QuotaRemaining,
	)
}

func (p *LoggingPublisher) PublishSnapshot(s types.MetricsSnapshot) {
	p.logger.Info("gateway_metrics",
		"cache_hits", s.CacheHits,
		"cache_misses", s.CacheMisses,
		"hit_ratio", s.HitRatio(),
		"remote_calls", s.RemoteCalls,
		"remote_failures", s.RemoteFailures,
		"quota_denied", s.QuotaDenied,
		"fallbacks", s.Fallbacks,
		"p95_latency_ms", s.P95LatencyMs,
	)
}

func (p *LoggingPublisher) Close() error {
	return nil
}

func (p *LoggingPublisher) mergeTags(tags []string) []string {
	return MergeTags(p.baseTags, tags)
}

var _ Publisher = (*LoggingPublisher)(nil)
