package datadog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/types"
)

type fakeClient struct {
	mu     sync.Mutex
	gauges map[string]float64
	tags   map[string][]string
	events []*statsd.Event
	fail   bool
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{gauges: map[string]float64{}, tags: map[string][]string{}}
}

func (c *fakeClient) err() error {
	if c.fail {
		return errors.New("agent unreachable")
	}
	return nil
}

func (c *fakeClient) Gauge(name string, value float64, tags []string, _ float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
	c.tags[name] = tags
	return c.err()
}

func (c *fakeClient) Incr(name string, tags []string, _ float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name]++
	c.tags[name] = tags
	return c.err()
}

func (c *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] += float64(value)
	return c.err()
}

func (c *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
	return c.err()
}

func (c *fakeClient) Timing(name string, value time.Duration, tags []string, _ float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = float64(value.Milliseconds())
	c.tags[name] = tags
	return c.err()
}

func (c *fakeClient) Event(e *statsd.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.err()
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(config.DataDogConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if _, ok := pub.(metrics.NoOpPublisher); !ok {
		t.Errorf("got %T, want metrics.NoOpPublisher", pub)
	}
}

func TestPublishHealthMetrics(t *testing.T) {
	client := newFakeClient()
	pub := NewWithClient(client, []string{"env:test"}, nil)

	pub.PublishHealthMetrics(&types.HealthMetrics{
		Status:             types.HealthStatusHealthy,
		ProviderConfigured: true,
		CircuitState:       "closed",
		Store:              "sqlite",
		StoreAvailable:     true,
		Cache:              types.CacheStats{Size: 10, UsagePercent: 150},
		Today:              types.TodayUsage{APICalls: 40, Cached: 5, ByEndpoint: map[string]int{"geocode": 45}},
		QuotaRemaining:     1960,
	})

	want := map[string]float64{
		"health.status":          1,
		"provider.configured":    1,
		"store.available":        1,
		"circuit.open":           0,
		"cache.size":             10,
		"cache.usage_percentage": 100,
		"quota.api_calls_today":  40,
		"quota.cached_today":     5,
		"quota.remaining":        1960,
		"quota.requests_today":   45,
	}
	for name, v := range want {
		if got := client.gauges[name]; got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
	if tags := client.tags["store.available"]; len(tags) != 2 || tags[0] != "env:test" || tags[1] != "store:sqlite" {
		t.Errorf("store.available tags = %v", tags)
	}

	pub.PublishHealthMetrics(nil)
}

func TestPublishSnapshot(t *testing.T) {
	client := newFakeClient()
	pub := NewWithClient(client, nil, nil)

	pub.PublishSnapshot(types.MetricsSnapshot{CacheHits: 9, CacheMisses: 1, RemoteCalls: 4, P95LatencyMs: -1})

	if got := client.gauges["gateway.hit_ratio"]; got != 0.9 {
		t.Errorf("hit ratio = %v, want 0.9", got)
	}
	if got := client.gauges["gateway.remote_calls"]; got != 4 {
		t.Errorf("remote calls = %v, want 4", got)
	}
	if got := client.gauges["gateway.latency_p95_ms"]; got != 0 {
		t.Errorf("p95 = %v, want clamped to 0", got)
	}
}

func TestPublisherThroughTracker(t *testing.T) {
	client := newFakeClient()
	tracker := metrics.NewTracker(metrics.WithPublisher(NewWithClient(client, nil, nil)))

	tracker.RecordCacheMiss(types.EndpointDirections)
	tracker.RecordRemoteCall(types.EndpointDirections, metrics.OutcomeSuccess, 25*time.Millisecond)
	tracker.RecordCircuitBreakerStateChange("half-open", "closed")

	if client.gauges["cache.miss"] != 1 {
		t.Errorf("cache.miss = %v, want 1", client.gauges["cache.miss"])
	}
	if client.gauges["provider.latency"] != 25 {
		t.Errorf("provider.latency = %v, want 25", client.gauges["provider.latency"])
	}
	if len(client.events) != 1 || client.events[0].AlertType != statsd.Info {
		t.Errorf("events = %+v", client.events)
	}
}

func TestPublisherSwallowsClientErrors(t *testing.T) {
	client := newFakeClient()
	client.fail = true
	pub := NewWithClient(client, nil, nil)

	pub.Gauge("g", 1)
	pub.Incr("i")
	pub.Count("c", 2)
	pub.Histogram("h", 3)
	pub.Timing("t", time.Second)
	pub.Event("title", "text", "error")

	if err := pub.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if !client.closed {
		t.Error("client not closed")
	}
}
