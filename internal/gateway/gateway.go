// Package gateway fronts the metered routing provider with the response
// cache, the daily quota and the usage ledger, and builds the route and
// geocode services that fall back when the provider is unavailable.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/routegov/internal/cache"
	"github.com/LavishGent/routegov/internal/ledger"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/resilience"
	"github.com/LavishGent/routegov/internal/types"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultRouteTTL    = 24 * time.Hour
	DefaultGeocodeTTL  = 30 * 24 * time.Hour
	DefaultCallTimeout = 10 * time.Second
)

// Provider is the remote routing/geocoding API.
type Provider interface {
	Configured() bool
	Directions(ctx context.Context, waypoints []types.LatLng, profile types.Profile, opts types.DirectionsOptions) (*types.Route, error)
	Geocode(ctx context.Context, query string, opts types.GeocodeOptions) (*types.Place, error)
}

// Options configures a Gateway.
type Options struct {
	DailyQuota int
	RouteTTL   time.Duration
	GeocodeTTL time.Duration
	// CallTimeout bounds a coalesced provider call, which outlives the
	// context of the caller that started it. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	Policy      *resilience.Policy
	Metrics     types.MetricsRecorder
	Clock       types.Clock
	Logger      *slog.Logger
}

// Gateway runs every provider request through the same sequence: cache,
// configuration, quota, remote call. Each request appends exactly one
// record to the ledger.
//
// Absent outcomes (unconfigured, quota spent, 401, 429, no match) return
// (nil, nil). Only transient failures return an error.
type Gateway struct {
	provider Provider
	cache    *cache.Cache[any]
	ledger   *ledger.Ledger
	policy   *resilience.Policy
	metrics  types.MetricsRecorder
	logger   *slog.Logger
	flight   singleflight.Group

	quota       int
	routeTTL    time.Duration
	geocodeTTL  time.Duration
	callTimeout time.Duration
}

// New creates a gateway over a shared cache and ledger.
func New(provider Provider, c *cache.Cache[any], l *ledger.Ledger, opts Options) *Gateway {
	if opts.DailyQuota <= 0 {
		opts.DailyQuota = ledger.DefaultDailyQuota
	}
	if opts.RouteTTL <= 0 {
		opts.RouteTTL = DefaultRouteTTL
	}
	if opts.GeocodeTTL <= 0 {
		opts.GeocodeTTL = DefaultGeocodeTTL
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Policy == nil {
		opts.Policy = resilience.NewDisabledPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Gateway{
		provider:   provider,
		cache:      c,
		ledger:     l,
		policy:     opts.Policy,
		metrics:    metrics.OrNoOp(opts.Metrics),
		logger:     opts.Logger.With("component", "gateway"),
		quota:       opts.DailyQuota,
		routeTTL:    opts.RouteTTL,
		geocodeTTL:  opts.GeocodeTTL,
		callTimeout: opts.CallTimeout,
	}
}

// Directions returns the provider route through waypoints.
// The returned route is shared with the cache and must not be modified.
func (g *Gateway) Directions(ctx context.Context, waypoints []types.LatLng, profile types.Profile, opts types.DirectionsOptions) (*types.Route, error) {
	if len(waypoints) < 2 {
		return nil, types.ErrInvalidWaypoints
	}
	if !profile.Valid() {
		profile = types.ProfileDrivingCar
	}

	key := cache.DirectionsKey(profile, waypoints, opts)
	v, err := g.fetch(ctx, types.EndpointDirections, key, g.routeTTL, func(ctx context.Context) (any, error) {
		return g.provider.Directions(ctx, waypoints, profile, opts)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*types.Route), nil
}

// Geocode returns the first provider match for query.
// The returned place is shared with the cache and must not be modified.
func (g *Gateway) Geocode(ctx context.Context, query string, opts types.GeocodeOptions) (*types.Place, error) {
	key := cache.GeocodeKey(query, opts.Country)
	v, err := g.fetch(ctx, types.EndpointGeocode, key, g.geocodeTTL, func(ctx context.Context) (any, error) {
		return g.provider.Geocode(ctx, query, opts)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*types.Place), nil
}

// flight is the outcome shared between coalesced callers.
type flight struct {
	value  any
	cached bool
}

func (g *Gateway) fetch(ctx context.Context, endpoint, key string, ttl time.Duration, call func(context.Context) (any, error)) (any, error) {
	log := g.logger.With("request", uuid.NewString(), "endpoint", endpoint)

	if v, ok := g.cache.Get(key); ok {
		g.metrics.RecordCacheHit(endpoint)
		g.ledger.Log(ctx, endpoint, true, true)
		log.Debug("Served from cache", "key", key)
		return v, nil
	}
	g.metrics.RecordCacheMiss(endpoint)

	if !g.provider.Configured() {
		g.metrics.RecordDenied(endpoint, metrics.ReasonNotConfigured)
		g.ledger.Log(ctx, endpoint, false, false)
		log.Debug("Provider not configured")
		return nil, nil
	}

	// Advisory: concurrent callers can all pass before any of them logs.
	if !g.ledger.WithinRateLimit(g.quota) {
		g.metrics.RecordDenied(endpoint, metrics.ReasonQuota)
		g.ledger.Log(ctx, endpoint, false, false)
		log.Warn("Daily quota exhausted", "quota", g.quota)
		return nil, nil
	}

	leader := false
	ch := g.flight.DoChan(key, func() (any, error) {
		leader = true
		if v, ok := g.cache.Get(key); ok {
			return flight{value: v, cached: true}, nil
		}

		// Followers share this call, so it must not die with the leader.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.callTimeout)
		defer cancel()

		start := time.Now()
		v, err := g.policy.Execute(callCtx, call)
		g.metrics.RecordRemoteCall(endpoint, outcome(err), time.Since(start))
		if err != nil {
			return flight{}, err
		}
		if isNil(v) {
			return flight{}, types.ErrNoResults
		}
		g.cache.Set(key, v, ttl)
		return flight{value: v}, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		g.ledger.Log(context.WithoutCancel(ctx), endpoint, false, false)
		log.Debug("Caller gave up waiting for provider", "error", ctx.Err())
		return nil, ctx.Err()
	}

	// A failure is never a cached record. A follower's success is, since
	// it made no call of its own.
	switch err := res.Err; {
	case err == nil:
		f := res.Val.(flight)
		g.ledger.Log(ctx, endpoint, true, !leader || f.cached)
		return f.value, nil
	case types.IsAbsent(err):
		g.ledger.Log(ctx, endpoint, false, false)
		log.Info("Provider returned no usable result", "reason", outcome(err))
		return nil, nil
	default:
		g.ledger.Log(ctx, endpoint, false, false)
		log.Warn("Provider call failed", "error", err)
		return nil, err
	}
}

// isNil catches typed nil pointers stored in an interface.
func isNil(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *types.Route:
		return p == nil
	case *types.Place:
		return p == nil
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, types.ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, types.ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, types.ErrNoResults):
		return metrics.OutcomeNoResults
	case errors.Is(err, types.ErrCircuitOpen):
		return metrics.OutcomeCircuitOpen
	case resilience.IsBulkheadError(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// RemainingQuota returns how many real calls are left today.
func (g *Gateway) RemainingQuota() int {
	return g.ledger.Remaining(g.quota)
}

// DailyQuota returns the configured daily ceiling.
func (g *Gateway) DailyQuota() int {
	return g.quota
}

// UsageStats reports today's ledger aggregate alongside the cache.
func (g *Gateway) UsageStats() UsageStats {
	return UsageStats{
		Today:      g.ledger.Today(),
		DailyQuota: g.quota,
		Remaining:  g.ledger.Remaining(g.quota),
		Cache:      g.cache.Stats(),
	}
}

// UsageStats is a point-in-time view of quota consumption.
type UsageStats struct {
	Today      types.TodayUsage `json:"today"`
	DailyQuota int              `json:"dailyQuota"`
	Remaining  int              `json:"remaining"`
	Cache      types.CacheStats `json:"cache"`
}

// Prune drops expired cache entries and returns how many were removed.
func (g *Gateway) Prune() int {
	return g.cache.Prune()
}

// ClearCache empties the response cache. The ledger is untouched.
func (g *Gateway) ClearCache() {
	g.cache.Clear()
}

// ProviderConfigured reports whether the provider has credentials.
func (g *Gateway) ProviderConfigured() bool {
	return g.provider.Configured()
}

// CircuitState returns the provider breaker state.
func (g *Gateway) CircuitState() resilience.State {
	return g.policy.CircuitState()
}
