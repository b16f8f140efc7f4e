// Package datadog publishes gateway metrics to a DataDog agent over
// StatsD.
package datadog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/types"
)

// Client is the subset of the StatsD client the publisher uses.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
	Event(e *statsd.Event) error
	Close() error
}

// Publisher implements metrics.Publisher on a StatsD client.
type Publisher struct {
	client   Client
	baseTags []string
	logger   *slog.Logger
}

// NewPublisher dials the agent named in cfg. A disabled config yields a
// no-op publisher.
func NewPublisher(cfg config.DataDogConfig, logger *slog.Logger) (metrics.Publisher, error) {
	if !cfg.Enabled {
		return metrics.NoOpPublisher{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.Port)
	client, err := statsd.New(addr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("DataDog publisher initialized", "address", addr, "prefix", cfg.Prefix, "tags", cfg.Tags)
	return NewWithClient(client, nil, logger), nil
}

// NewWithClient wraps an existing client. Global tags set on the client
// itself are not repeated in baseTags.
func NewWithClient(client Client, baseTags []string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:   client,
		baseTags: baseTags,
		logger:   logger.With("component", "datadog"),
	}
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	if err := p.client.Gauge(name, value, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("Failed to send gauge metric", "name", name, "error", err)
	}
}

func (p *Publisher) Incr(name string, tags ...string) {
	if err := p.client.Incr(name, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("Failed to send incr metric", "name", name, "error", err)
	}
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	if err := p.client.Count(name, value, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("Failed to send count metric", "name", name, "error", err)
	}
}

func (p *Publisher) Histogram(name string, value float64, tags ...string) {
	if err := p.client.Histogram(name, value, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("Failed to send histogram metric", "name", name, "error", err)
	}
}

func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	if err := p.client.Timing(name, duration, metrics.MergeTags(p.baseTags, tags), 1); err != nil {
		p.logger.Debug("Failed to send timing metric", "name", name, "error", err)
	}
}

func (p *Publisher) Event(title, text, alertType string, tags ...string) {
	event := &statsd.Event{
		Title:     title,
		Text:      text,
		AlertType: statsd.EventAlertType(alertType),
		Tags:      metrics.MergeTags(p.baseTags, tags),
	}
	if err := p.client.Event(event); err != nil {
		p.logger.Debug("Failed to send event", "title", title, "error", err)
	}
}

// PublishHealthMetrics sends the health batch as gauges.
func (p *Publisher) PublishHealthMetrics(m *types.HealthMetrics) {
	if m == nil {
		return
	}
	p.Gauge("health.status", float64(m.Status))
	p.Gauge("provider.configured", boolGauge(m.ProviderConfigured))
	p.Gauge("store.available", boolGauge(m.StoreAvailable), metrics.Tag("store", m.Store))
	p.Gauge("circuit.open", boolGauge(m.CircuitState == "open"))
	p.Gauge("cache.size", float64(m.Cache.Size))
	p.Gauge("cache.usage_percentage", clamp(m.Cache.UsagePercent, 0, 100))
	p.Gauge("quota.api_calls_today", float64(m.Today.APICalls))
	p.Gauge("quota.cached_today", float64(m.Today.Cached))
	p.Gauge("quota.remaining", float64(m.QuotaRemaining))
	for endpoint, n := range m.Today.ByEndpoint {
		p.Gauge("quota.requests_today", float64(n), metrics.EndpointTag(endpoint))
	}
}

// PublishSnapshot sends cumulative gateway counters as gauges.
func (p *Publisher) PublishSnapshot(s types.MetricsSnapshot) {
	p.Gauge("gateway.cache_hits", float64(s.CacheHits))
	p.Gauge("gateway.cache_misses", float64(s.CacheMisses))
	p.Gauge("gateway.hit_ratio", clamp(s.HitRatio(), 0, 1))
	p.Gauge("gateway.remote_calls", float64(s.RemoteCalls))
	p.Gauge("gateway.remote_failures", float64(s.RemoteFailures))
	p.Gauge("gateway.fallbacks", float64(s.Fallbacks))
	p.Gauge("gateway.latency_p95_ms", max(0, s.P95LatencyMs))
}

func (p *Publisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(val, minVal, maxVal float64) float64 {
	return min(max(val, minVal), maxVal)
}

var _ metrics.Publisher = (*Publisher)(nil)
