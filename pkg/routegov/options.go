package routegov

import (
	"log/slog"
	"net/http"
)

// Option customizes a Governor beyond what configuration covers.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    MetricsRecorder
	publisher  Publisher
	clock      Clock
	store      KeyValueStore
	provider   Provider
	httpClient *http.Client
}

// WithLogger routes governor logs to a Logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = slog.New(newLoggerHandler(logger))
		}
	}
}

// WithSlogLogger sets the slog logger every component derives from.
func WithSlogLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics receives gateway events in addition to the built-in tracker.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithPublisher replaces the publisher built from metrics configuration.
// The governor closes it on Close.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithClock sets the clock used for expiry and quota windows.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithStore supplies the durable store instead of opening one from
// configuration. The caller keeps ownership and must close it.
func WithStore(store KeyValueStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithProvider replaces the built-in provider client.
func WithProvider(p Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithHTTPClient sets the HTTP client the built-in provider client uses.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}
