package routegov_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/pkg/routegov"
)

var (
	newYork    = routegov.LatLng{Lat: 40.7128, Lng: -74.0060}
	losAngeles = routegov.LatLng{Lat: 34.0522, Lng: -118.2437}
	chicago    = routegov.LatLng{Lat: 41.8781, Lng: -87.6298}
)

// fakeORS serves canned directions and geocode responses and counts calls.
func fakeORS(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v2/directions/driving-car":
			_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":4500000,"duration":162000},"geometry":"_p~iF~ps|U_ulLnnqC","segments":[{"distance":4500000,"duration":162000,"steps":[{"distance":4500000,"duration":162000,"instruction":"Head west","name":"I-80"}]}]}]}`))
		case "/geocode/search":
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[2.3522,48.8566]},"properties":{"label":"Paris, France"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newGovernor(t *testing.T, baseURL string, opts ...routegov.Option) (*routegov.Governor, *clock.Fake) {
	t.Helper()
	cfg := routegov.TestConfig()
	if baseURL != "" {
		cfg.Provider.BaseURL = baseURL
		cfg.Provider.APIKey = routegov.NewSecretString("test-key")
	}
	fc := clock.NewFake(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	opts = append([]routegov.Option{routegov.WithClock(fc)}, opts...)

	gov, err := routegov.NewFromConfig(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gov.Close() })
	return gov, fc
}

func TestFreeTierNeverCallsProvider(t *testing.T) {
	ctx := context.Background()
	srv, calls := fakeORS(t)
	gov, _ := newGovernor(t, srv.URL)

	got := gov.CalculateRoute(ctx, []routegov.LatLng{newYork, losAngeles}, "someone@example.com")

	assert.Equal(t, routegov.SourceEstimate, got.Source)
	assert.InDelta(t, 3935.75*1.3, got.DistanceKm, 5)
	assert.Empty(t, got.Geometry)
	assert.Empty(t, got.Instructions)
	assert.Zero(t, calls.Load())
	assert.Zero(t, gov.TodayUsage().Total)
	assert.Equal(t, int64(1), gov.Metrics().Fallbacks)
}

func TestProviderRouteForEntitledUser(t *testing.T) {
	ctx := context.Background()
	srv, calls := fakeORS(t)
	gov, _ := newGovernor(t, srv.URL)
	user := "bob@example.com"
	require.NoError(t, gov.SetMembership(ctx, user, routegov.TierBasic))

	waypoints := []routegov.LatLng{newYork, chicago, losAngeles}
	first := gov.CalculateRoute(ctx, waypoints, user)
	require.Equal(t, routegov.SourceProvider, first.Source)
	assert.InDelta(t, 4500, first.DistanceKm, 1e-9)
	assert.InDelta(t, 45, first.DurationHours, 1e-9)
	assert.Len(t, first.Geometry, 2)
	require.Len(t, first.Instructions, 1)
	assert.Equal(t, "Head west", first.Instructions[0].Instruction)

	second := gov.CalculateRoute(ctx, waypoints, user)
	assert.Equal(t, first.DistanceKm, second.DistanceKm)
	assert.Equal(t, int32(1), calls.Load(), "second request is served from cache")

	today := gov.TodayUsage()
	assert.Equal(t, 2, today.Total)
	assert.Equal(t, 1, today.Cached)
	assert.Equal(t, 1, today.APICalls)
	assert.Equal(t, 1999, gov.RemainingQuota())
	assert.Equal(t, int64(2), gov.Usage(ctx, user).RouteCalculations)
}

func TestMonthlyRouteLimit(t *testing.T) {
	ctx := context.Background()
	srv, _ := fakeORS(t)
	gov, fc := newGovernor(t, srv.URL)
	user := "carol@example.com"
	require.NoError(t, gov.SetMembership(ctx, user, routegov.TierBasic))

	limit := gov.MembershipLimits(routegov.TierBasic).MonthlyRouteCalculations
	require.False(t, limit.IsUnlimited())
	gov.IncrementUsage(ctx, user, routegov.CounterRouteCalculations, int64(limit))

	check := gov.CheckUsageLimit(ctx, user, routegov.LimitRouteCalculations, gov.Usage(ctx, user).RouteCalculations)
	assert.False(t, check.Allowed)

	got := gov.CalculateRoute(ctx, []routegov.LatLng{newYork, losAngeles}, user)
	assert.Equal(t, routegov.SourceEstimate, got.Source)

	fc.Advance(31 * 24 * time.Hour)
	got = gov.CalculateRoute(ctx, []routegov.LatLng{newYork, losAngeles}, user)
	assert.Equal(t, routegov.SourceProvider, got.Source, "a new month restores the budget")
	assert.Equal(t, int64(1), gov.Usage(ctx, user).RouteCalculations)
}

func TestGeocodeAddress(t *testing.T) {
	ctx := context.Background()
	srv, calls := fakeORS(t)
	gov, _ := newGovernor(t, srv.URL)

	assert.Nil(t, gov.GeocodeAddress(ctx, "Paris", "free@example.com"))
	assert.Zero(t, calls.Load())

	require.NoError(t, gov.SetMembership(ctx, "paid@example.com", routegov.TierAdvanced))
	place := gov.GeocodeAddress(ctx, "Paris", "paid@example.com")
	require.NotNil(t, place)
	assert.Equal(t, "Paris, France", place.Label)
	assert.InDelta(t, 48.8566, place.Lat, 1e-9)
	assert.InDelta(t, 2.3522, place.Lng, 1e-9)

	again, err := gov.Geocode(ctx, "  PARIS ", routegov.GeocodeOptions{})
	require.NoError(t, err)
	assert.Same(t, place, again, "normalised query hits the cached place")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnconfiguredProvider(t *testing.T) {
	ctx := context.Background()
	gov, _ := newGovernor(t, "")
	require.NoError(t, gov.SetMembership(ctx, "bob@example.com", routegov.TierBasic))

	got := gov.CalculateRoute(ctx, []routegov.LatLng{newYork, chicago, losAngeles}, "bob@example.com")
	assert.Equal(t, routegov.SourceEstimate, got.Source)
	assert.Greater(t, got.DistanceKm, 0.0)

	route, err := gov.Directions(ctx, []routegov.LatLng{newYork, losAngeles}, routegov.ProfileDrivingCar, routegov.DirectionsOptions{})
	assert.NoError(t, err)
	assert.Nil(t, route)

	recs := gov.UsageRecords()
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.False(t, rec.Success)
		assert.False(t, rec.Cached)
	}
	assert.Equal(t, int64(2), gov.Metrics().NotConfigured)
}

func TestTestTierAndOverrides(t *testing.T) {
	ctx := context.Background()
	gov, _ := newGovernor(t, "")
	user := "dave@example.com"

	assert.Equal(t, routegov.TierFree, gov.Membership(ctx, user))
	assert.Equal(t, routegov.TierTest, gov.Membership(ctx, "dev@example.com"))

	require.NoError(t, gov.SetTestTier(ctx, routegov.TierExpert))
	assert.Equal(t, routegov.TierExpert, gov.Membership(ctx, user))
	tier, ok := gov.TestTier()
	assert.True(t, ok)
	assert.Equal(t, routegov.TierExpert, tier)

	require.NoError(t, gov.ClearTestTier(ctx))
	assert.Equal(t, routegov.TierFree, gov.Membership(ctx, user))

	assert.False(t, gov.IsFeatureEnabled(ctx, routegov.FeatureGeocoding, user))
	require.NoError(t, gov.SetFeatureOverride(ctx, routegov.FeatureGeocoding, true))
	assert.True(t, gov.IsFeatureEnabled(ctx, routegov.FeatureGeocoding, user))

	overrides, err := gov.FeatureOverrides(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[routegov.Feature]bool{routegov.FeatureGeocoding: true}, overrides)

	require.NoError(t, gov.ClearFeatureOverrides(ctx))
	assert.False(t, gov.IsFeatureEnabled(ctx, routegov.FeatureGeocoding, user))
}

func TestHealth(t *testing.T) {
	t.Run("unconfigured provider is degraded", func(t *testing.T) {
		gov, _ := newGovernor(t, "")
		h := gov.Health()
		assert.Equal(t, routegov.HealthStatusDegraded, h.Status)
		assert.False(t, h.ProviderConfigured)
		assert.Equal(t, "memory", h.Store)
		assert.True(t, h.StoreAvailable)
		assert.Equal(t, 2000, h.QuotaRemaining)
	})

	t.Run("configured provider is healthy", func(t *testing.T) {
		srv, _ := fakeORS(t)
		gov, _ := newGovernor(t, srv.URL)
		h := gov.Health()
		assert.Equal(t, routegov.HealthStatusHealthy, h.Status)
		assert.Equal(t, "closed", h.CircuitState)
	})

	t.Run("closed governor is unhealthy", func(t *testing.T) {
		gov, _ := newGovernor(t, "")
		require.NoError(t, gov.Close())
		assert.Equal(t, routegov.HealthStatusUnhealthy, gov.Health().Status)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	gov, _ := newGovernor(t, "")

	require.NoError(t, gov.Close())
	require.NoError(t, gov.Close(), "second close is a no-op")

	_, err := gov.Directions(ctx, []routegov.LatLng{newYork, losAngeles}, routegov.ProfileDrivingCar, routegov.DirectionsOptions{})
	assert.ErrorIs(t, err, routegov.ErrClosed)
	assert.ErrorIs(t, gov.SetMembership(ctx, "x", routegov.TierBasic), routegov.ErrClosed)

	got := gov.CalculateRoute(ctx, []routegov.LatLng{newYork, losAngeles}, "x")
	assert.Equal(t, routegov.SourceEstimate, got.Source)
}

func TestWithStoreIsNotClosed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	defer store.Close()

	gov, _ := newGovernor(t, "", routegov.WithStore(store))
	require.NoError(t, gov.SetMembership(ctx, "erin@example.com", routegov.TierAdvanced))
	require.NoError(t, gov.Close())

	assert.True(t, store.IsAvailable())

	reopened, _ := newGovernor(t, "", routegov.WithStore(store))
	assert.Equal(t, routegov.TierAdvanced, reopened.Membership(ctx, "erin@example.com"), "membership persisted in the shared store")
}

func TestStateSurvivesUsageLogGrowth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	defer store.Close()

	gov, _ := newGovernor(t, "", routegov.WithStore(store))
	const users = 64
	for i := 0; i < users; i++ {
		require.NoError(t, gov.SetMembership(ctx, fmt.Sprintf("user%d@example.com", i), routegov.TierExpert))
	}
	require.NoError(t, gov.SetFeatureOverride(ctx, routegov.FeatureGeocoding, true))

	for i := 0; i < 1200; i++ {
		place, err := gov.Geocode(ctx, fmt.Sprintf("street %d", i), routegov.GeocodeOptions{})
		require.NoError(t, err)
		require.Nil(t, place)
	}
	assert.Len(t, gov.UsageRecords(), 1000)
	require.NoError(t, gov.Close())

	reopened, _ := newGovernor(t, "", routegov.WithStore(store))
	assert.Len(t, reopened.UsageRecords(), 1000, "usage log reloaded")
	for i := 0; i < users; i++ {
		user := fmt.Sprintf("user%d@example.com", i)
		assert.Equal(t, routegov.TierExpert, reopened.Membership(ctx, user), user)
	}
	overrides, err := reopened.FeatureOverrides(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[routegov.Feature]bool{routegov.FeatureGeocoding: true}, overrides)
}

func TestQuotaWithinLedgerCapLogsNoWarning(t *testing.T) {
	logger := &recordingLogger{}
	cfg := routegov.TestConfig()
	cfg.Ledger.MaxRecords = cfg.Provider.DailyQuota
	gov, err := routegov.NewFromConfig(cfg, routegov.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, gov.Close())

	logger.mu.Lock()
	defer logger.mu.Unlock()
	for _, e := range logger.entries {
		assert.NotContains(t, e, "Daily quota exceeds")
	}
}

type fakeProvider struct {
	err error
}

func (p *fakeProvider) Configured() bool { return true }

func (p *fakeProvider) Directions(context.Context, []routegov.LatLng, routegov.Profile, routegov.DirectionsOptions) (*routegov.Route, error) {
	return nil, p.err
}

func (p *fakeProvider) Geocode(context.Context, string, routegov.GeocodeOptions) (*routegov.Place, error) {
	return nil, p.err
}

func TestWithProviderAndMetrics(t *testing.T) {
	ctx := context.Background()
	extra := metrics.NewTracker()
	provider := &fakeProvider{err: fmt.Errorf("boom: %w", routegov.ErrBulkheadTimeout)}
	gov, _ := newGovernor(t, "", routegov.WithProvider(provider), routegov.WithMetrics(extra))

	_, err := gov.Directions(ctx, []routegov.LatLng{newYork, losAngeles}, routegov.ProfileDrivingCar, routegov.DirectionsOptions{})
	require.Error(t, err)
	assert.True(t, routegov.IsTransient(err))

	assert.Equal(t, int64(1), gov.Metrics().RemoteCalls)
	assert.Equal(t, int64(1), extra.Snapshot().RemoteCalls, "custom recorder sees the same events")
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	args    [][]any
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+":"+msg)
	l.args = append(l.args, args)
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func TestWithLogger(t *testing.T) {
	logger := &recordingLogger{}
	gov, _ := newGovernor(t, "", routegov.WithLogger(logger))
	require.NoError(t, gov.Close())

	logger.mu.Lock()
	defer logger.mu.Unlock()
	require.Contains(t, logger.entries, "info:Governor started")
	assert.Contains(t, logger.entries, "warn:Daily quota exceeds the usage log cap and can never be reached")

	i := indexOf(logger.entries, "info:Governor started")
	args := logger.args[i]
	assert.Contains(t, args, "component")
	assert.Contains(t, args, "governor")
	assert.Contains(t, args, "store")
	assert.Contains(t, args, "memory")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
