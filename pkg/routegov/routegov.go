package routegov

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/LavishGent/routegov/internal/cache"
	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/entitlement"
	"github.com/LavishGent/routegov/internal/gateway"
	"github.com/LavishGent/routegov/internal/geo"
	"github.com/LavishGent/routegov/internal/ledger"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/metrics/datadog"
	"github.com/LavishGent/routegov/internal/ors"
	"github.com/LavishGent/routegov/internal/resilience"
	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/internal/types"
)

// Governor is the usage governor: response cache, usage ledger,
// entitlement resolver and quota-aware gateway wired over one store.
// It is safe for concurrent use.
type Governor struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     Clock
	store     KeyValueStore
	ownsStore bool

	cache     *cache.Cache[any]
	ledger    *ledger.Ledger
	resolver  *entitlement.Resolver
	policy    *resilience.Policy
	gateway   *gateway.Gateway
	service   *gateway.Service
	estimator geo.Estimator

	tracker    *metrics.Tracker
	publisher  Publisher
	background *metrics.BackgroundPublisher

	stopJanitor chan struct{}
	closeOnce   sync.Once
	closed      atomic.Bool
}

// New creates a governor with default configuration.
func New(opts ...Option) (*Governor, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromFile creates a governor from a JSON or YAML config file with
// environment overrides applied.
func NewFromFile(path string, opts ...Option) (*Governor, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// Config returns a default configuration that can be modified before creating a governor.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}

// NewFromConfig creates a governor from configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Governor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = clock.Real{}
	}

	loc, err := cfg.Ledger.Location()
	if err != nil {
		return nil, err
	}

	g := &Governor{
		cfg:       cfg,
		logger:    o.logger.With("component", "governor"),
		clock:     o.clock,
		store:     o.store,
		estimator: geo.NewEstimator(cfg.Estimate.RoadFactor, cfg.Estimate.AverageSpeedKmh),
	}
	if g.store == nil {
		g.store, err = storage.Open(cfg.Storage, cfg.KeyValidation, o.logger)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		g.ownsStore = true
	}

	g.publisher = o.publisher
	if g.publisher == nil {
		g.publisher, err = newPublisher(cfg.Metrics, o.logger)
		if err != nil {
			g.closeStore()
			return nil, err
		}
	}
	g.tracker = metrics.NewTracker(metrics.WithPublisher(g.publisher))
	recorder := metrics.Multi(g.tracker, o.metrics)

	ctx := context.Background()
	g.ledger = ledger.New(ctx, g.store, ledger.Options{
		MaxRecords: cfg.Ledger.MaxRecords,
		Location:   loc,
		Clock:      o.clock,
		Logger:     o.logger,
	})
	g.resolver, err = entitlement.NewResolver(ctx, g.store, entitlement.Options{
		TestIdentities: cfg.Entitlements.TestIdentities,
		Location:       loc,
		Clock:          o.clock,
		Logger:         o.logger,
	})
	if err != nil {
		_ = g.publisher.Close()
		g.closeStore()
		return nil, err
	}

	g.cache = cache.New[any](cache.Options{
		Capacity:   cfg.Cache.Capacity,
		DefaultTTL: cfg.Cache.DefaultTTL,
		Clock:      o.clock,
		Logger:     o.logger,
	})

	g.policy = resilience.NewPolicy(cfg.CircuitBreaker, cfg.Bulkhead, o.clock)
	g.policy.SetOnCircuitStateChange(func(from, to resilience.State) {
		g.logger.Warn("Provider circuit state changed", "from", from.String(), "to", to.String())
		recorder.RecordCircuitBreakerStateChange(from.String(), to.String())
	})

	provider := o.provider
	if provider == nil {
		clientOpts := []ors.Option{ors.WithLogger(o.logger)}
		if o.httpClient != nil {
			clientOpts = append(clientOpts, ors.WithHTTPClient(o.httpClient))
		}
		provider = ors.New(cfg.Provider, clientOpts...)
	}

	g.gateway = gateway.New(provider, g.cache, g.ledger, gateway.Options{
		DailyQuota:  cfg.Provider.DailyQuota,
		RouteTTL:    cfg.Cache.RouteTTL,
		GeocodeTTL:  cfg.Cache.GeocodeTTL,
		CallTimeout: cfg.Provider.Timeout + cfg.Bulkhead.AcquireTimeout,
		Policy:      g.policy,
		Metrics:     recorder,
		Clock:       o.clock,
		Logger:      o.logger,
	})
	g.service = gateway.NewService(g.gateway, g.resolver, gateway.ServiceOptions{
		Estimator:      g.estimator,
		Profile:        types.Profile(cfg.Provider.DefaultProfile),
		DefaultCountry: cfg.Provider.DefaultCountry,
		Metrics:        recorder,
		Logger:         o.logger,
	})

	if cfg.Cache.PruneInterval > 0 {
		g.stopJanitor = make(chan struct{})
		g.cache.StartJanitor(cfg.Cache.PruneInterval, g.stopJanitor)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.PublishInterval > 0 {
		g.background = metrics.NewBackgroundPublisher(g.publisher, cfg.Metrics.PublishInterval, g.Health, g.tracker.Snapshot, o.logger)
		g.background.Start(ctx)
	}

	// The ledger only keeps MaxRecords records, so no more than that many
	// calls of a day are ever counted.
	if quota := g.gateway.DailyQuota(); quota > cfg.Ledger.MaxRecords {
		g.logger.Warn("Daily quota exceeds the usage log cap and can never be reached",
			"dailyQuota", quota,
			"maxRecords", cfg.Ledger.MaxRecords)
	}

	g.logger.Info("Governor started",
		"store", g.store.Name(),
		"providerConfigured", provider.Configured(),
		"dailyQuota", g.gateway.DailyQuota(),
		"timezone", loc.String())
	return g, nil
}

func newPublisher(cfg config.MetricsConfig, logger *slog.Logger) (Publisher, error) {
	switch {
	case !cfg.Enabled:
		return metrics.NoOpPublisher{}, nil
	case cfg.DataDog.Enabled:
		pub, err := datadog.NewPublisher(cfg.DataDog, logger)
		if err != nil {
			return nil, fmt.Errorf("datadog publisher: %w", err)
		}
		return pub, nil
	default:
		return metrics.NewLoggingPublisher(logger), nil
	}
}

// CalculateRoute returns a provider route when userID may use real-time
// routing and has monthly route calculations left, and a straight-line
// estimate otherwise. It never fails.
func (g *Governor) CalculateRoute(ctx context.Context, waypoints []LatLng, userID string) RouteEstimate {
	if g.closed.Load() {
		return g.estimator.Estimate(waypoints)
	}
	return g.service.CalculateRoute(ctx, waypoints, userID)
}

// GeocodeAddress resolves address to a place when userID may use
// geocoding. It returns nil when the user is not entitled or nothing
// was found.
func (g *Governor) GeocodeAddress(ctx context.Context, address, userID string) *Place {
	if g.closed.Load() {
		return nil
	}
	return g.service.GeocodeAddress(ctx, address, userID)
}

// EstimateRoute returns the local approximation without consulting the
// provider, the quota or any tier.
func (g *Governor) EstimateRoute(waypoints []LatLng) RouteEstimate {
	return g.estimator.Estimate(waypoints)
}

// Directions runs a raw directions request through the gateway with no
// tier check. The result is nil when the request was answered without
// a route, and shared with the cache.
func (g *Governor) Directions(ctx context.Context, waypoints []LatLng, profile Profile, opts DirectionsOptions) (*Route, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	return g.gateway.Directions(ctx, waypoints, profile, opts)
}

// Geocode runs a raw geocode request through the gateway with no tier
// check.
func (g *Governor) Geocode(ctx context.Context, query string, opts GeocodeOptions) (*Place, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	return g.gateway.Geocode(ctx, query, opts)
}

// Membership resolves the tier of userID.
func (g *Governor) Membership(ctx context.Context, userID string) Tier {
	return g.resolver.Membership(ctx, userID)
}

// SetMembership stores the tier of userID.
func (g *Governor) SetMembership(ctx context.Context, userID string, tier Tier) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.SetMembership(ctx, userID, tier)
}

// ClearMembership removes the stored tier of userID.
func (g *Governor) ClearMembership(ctx context.Context, userID string) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.ClearMembership(ctx, userID)
}

func (g *Governor) MembershipLimits(tier Tier) MembershipLimits {
	return g.resolver.MembershipLimits(tier)
}

func (g *Governor) Features(ctx context.Context, userID string) FeatureAccess {
	return g.resolver.Features(ctx, userID)
}

func (g *Governor) IsFeatureEnabled(ctx context.Context, f Feature, userID string) bool {
	return g.resolver.IsFeatureEnabled(ctx, f, userID)
}

func (g *Governor) CheckUsageLimit(ctx context.Context, userID string, limitType LimitType, current int64) LimitCheck {
	return g.resolver.CheckUsageLimit(ctx, userID, limitType, current)
}

func (g *Governor) Usage(ctx context.Context, userID string) UserUsage {
	return g.resolver.Usage(ctx, userID)
}

func (g *Governor) IncrementUsage(ctx context.Context, userID string, c Counter, amount int64) UserUsage {
	return g.resolver.IncrementUsage(ctx, userID, c, amount)
}

func (g *Governor) ResetMonthlyLimits(ctx context.Context, userID string) UserUsage {
	return g.resolver.ResetMonthlyLimits(ctx, userID)
}

// SetTestTier forces every user onto tier until ClearTestTier.
func (g *Governor) SetTestTier(ctx context.Context, tier Tier) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.SetTestTier(ctx, tier)
}

func (g *Governor) ClearTestTier(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.ClearTestTier(ctx)
}

func (g *Governor) TestTier() (Tier, bool) {
	return g.resolver.TestTier()
}

// SetFeatureOverride forces f on or off for every user.
func (g *Governor) SetFeatureOverride(ctx context.Context, f Feature, enabled bool) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.SetFeatureOverride(ctx, f, enabled)
}

func (g *Governor) ClearFeatureOverride(ctx context.Context, f Feature) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.ClearFeatureOverride(ctx, f)
}

func (g *Governor) ClearFeatureOverrides(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.resolver.ClearFeatureOverrides(ctx)
}

func (g *Governor) FeatureOverrides(ctx context.Context) (map[Feature]bool, error) {
	return g.resolver.FeatureOverrides(ctx)
}

// TodayUsage aggregates today's ledger records.
func (g *Governor) TodayUsage() TodayUsage {
	return g.ledger.Today()
}

// WithinRateLimit reports whether the daily quota still has room.
func (g *Governor) WithinRateLimit() bool {
	return g.ledger.WithinRateLimit(g.gateway.DailyQuota())
}

func (g *Governor) RemainingQuota() int {
	return g.gateway.RemainingQuota()
}

func (g *Governor) UsageStats() UsageStats {
	return g.gateway.UsageStats()
}

// UsageRecords returns a copy of the ledger, oldest first.
func (g *Governor) UsageRecords() []UsageRecord {
	return g.ledger.Records()
}

func (g *Governor) CacheStats() CacheStats {
	return g.cache.Stats()
}

// PruneCache drops expired responses and reports how many went.
func (g *Governor) PruneCache() int {
	return g.gateway.Prune()
}

func (g *Governor) ClearCache() {
	g.gateway.ClearCache()
}

// Metrics returns the built-in tracker's counters.
func (g *Governor) Metrics() MetricsSnapshot {
	return g.tracker.Snapshot()
}

// Health reports whether callers are currently getting provider data.
func (g *Governor) Health() *HealthMetrics {
	stats := g.gateway.UsageStats()
	h := &HealthMetrics{
		Timestamp:          g.clock.Now(),
		ProviderConfigured: g.gateway.ProviderConfigured(),
		CircuitState:       g.gateway.CircuitState().String(),
		Store:              g.store.Name(),
		StoreAvailable:     g.store.IsAvailable(),
		Cache:              stats.Cache,
		Today:              stats.Today,
		DailyQuota:         stats.DailyQuota,
		QuotaRemaining:     stats.Remaining,
	}

	switch {
	case g.closed.Load():
		h.Status = HealthStatusUnhealthy
	case !h.ProviderConfigured, g.policy.IsCircuitOpen(), !h.StoreAvailable, h.QuotaRemaining == 0:
		h.Status = HealthStatusDegraded
	default:
		h.Status = HealthStatusHealthy
	}
	return h
}

// Close stops background work and releases the store and publisher.
// It is safe to call more than once.
func (g *Governor) Close() error {
	var err error
	g.closeOnce.Do(func() {
		g.closed.Store(true)
		if g.stopJanitor != nil {
			close(g.stopJanitor)
		}
		if g.background != nil {
			g.background.Stop()
		}
		err = errors.Join(g.publisher.Close(), g.closeStore())
		g.logger.Info("Governor closed")
	})
	return err
}

func (g *Governor) closeStore() error {
	if !g.ownsStore {
		return nil
	}
	return g.store.Close()
}
