package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/internal/types"
)

const testerID = "test@example.com"

func newTestResolver(t *testing.T) (*Resolver, *storage.MemoryStore, *clock.Fake) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	fake := clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	r, err := NewResolver(context.Background(), store, Options{
		TestIdentities: config.DefaultConfig().Entitlements.TestIdentities,
		Location:       time.UTC,
		Clock:          fake,
	})
	require.NoError(t, err)
	return r, store, fake
}

func TestNewResolverRejectsIncompleteTable(t *testing.T) {
	table := DefaultTable()
	delete(table[TierFree].Features, FeatureRealTimeRouting)

	_, err := NewResolver(context.Background(), nil, Options{Table: table})
	assert.ErrorIs(t, err, types.ErrIncompleteTierTable)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("empty user is free", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		require.NoError(t, r.SetTestTier(ctx, TierExpert))
		assert.Equal(t, TierFree, r.Membership(ctx, ""))
	})

	t.Run("unknown user is free", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		assert.Equal(t, TierFree, r.Membership(ctx, "someone"))
	})

	t.Run("test identity is test", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		assert.Equal(t, TierTest, r.Membership(ctx, testerID))
		assert.True(t, r.IsTestIdentity(testerID))
	})

	t.Run("stored membership beats allow-list", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		require.NoError(t, r.SetMembership(ctx, testerID, TierBasic))
		assert.Equal(t, TierBasic, r.Membership(ctx, testerID))

		require.NoError(t, r.ClearMembership(ctx, testerID))
		assert.Equal(t, TierTest, r.Membership(ctx, testerID))
	})

	t.Run("test tier beats everything", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		require.NoError(t, r.SetMembership(ctx, "alice", TierExpert))
		require.NoError(t, r.SetTestTier(ctx, TierAdvanced))

		assert.Equal(t, TierAdvanced, r.Membership(ctx, "alice"))
		assert.Equal(t, TierAdvanced, r.Membership(ctx, testerID))

		require.NoError(t, r.ClearTestTier(ctx))
		assert.Equal(t, TierExpert, r.Membership(ctx, "alice"))
		_, ok := r.TestTier()
		assert.False(t, ok)
	})

	t.Run("test tier reloads from store", func(t *testing.T) {
		r, store, fake := newTestResolver(t)
		require.NoError(t, r.SetTestTier(ctx, TierBasic))

		reloaded, err := NewResolver(ctx, store, Options{Location: time.UTC, Clock: fake})
		require.NoError(t, err)
		tier, ok := reloaded.TestTier()
		assert.True(t, ok)
		assert.Equal(t, TierBasic, tier)
	})

	t.Run("garbage stored membership is ignored", func(t *testing.T) {
		r, store, _ := newTestResolver(t)
		require.NoError(t, store.Set(ctx, storage.MembershipKey("bob"), "platinum"))
		assert.Equal(t, TierFree, r.Membership(ctx, "bob"))
	})

	t.Run("invalid tiers rejected", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		assert.ErrorIs(t, r.SetMembership(ctx, "bob", "platinum"), types.ErrUnknownTier)
		assert.ErrorIs(t, r.SetTestTier(ctx, "platinum"), types.ErrUnknownTier)
		assert.Error(t, r.SetMembership(ctx, "", TierBasic))
	})
}

func TestIsFeatureEnabled(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestResolver(t)

	assert.False(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, "free-user"))
	assert.True(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, testerID))
	assert.False(t, r.IsFeatureEnabled(ctx, "noSuchFeature", testerID))

	t.Run("override enables for free user", func(t *testing.T) {
		require.NoError(t, r.SetFeatureOverride(ctx, FeatureRealTimeRouting, true))
		assert.True(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, "free-user"))
		assert.True(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, ""))
	})

	t.Run("override disables for test user", func(t *testing.T) {
		require.NoError(t, r.SetFeatureOverride(ctx, FeatureGeocoding, false))
		assert.False(t, r.IsFeatureEnabled(ctx, FeatureGeocoding, testerID))
	})

	t.Run("tier features stay tier derived", func(t *testing.T) {
		assert.False(t, r.Features(ctx, "free-user").Enabled(FeatureRealTimeRouting))
	})

	t.Run("list and clear overrides", func(t *testing.T) {
		overrides, err := r.FeatureOverrides(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[Feature]bool{FeatureRealTimeRouting: true, FeatureGeocoding: false}, overrides)

		require.NoError(t, r.ClearFeatureOverride(ctx, FeatureGeocoding))
		assert.True(t, r.IsFeatureEnabled(ctx, FeatureGeocoding, testerID))

		require.NoError(t, r.ClearFeatureOverrides(ctx))
		assert.False(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, "free-user"))
	})
}

func TestStoreOverridesIgnoresMalformedValues(t *testing.T) {
	ctx := context.Background()
	r, store, _ := newTestResolver(t)
	require.NoError(t, store.Set(ctx, storage.FeatureKey(string(FeatureRealTimeRouting)), "yes"))
	assert.False(t, r.IsFeatureEnabled(ctx, FeatureRealTimeRouting, "free-user"))
}

func TestCheckUsageLimit(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestResolver(t)
	require.NoError(t, r.SetMembership(ctx, "basic-user", TierBasic))

	tests := []struct {
		name      string
		user      string
		limitType LimitType
		current   int64
		want      LimitCheck
	}{
		{"free under saved trips", "free-user", LimitSavedTrips, 2, LimitCheck{true, 3, 1}},
		{"free at saved trips", "free-user", LimitSavedTrips, 3, LimitCheck{false, 3, 0}},
		{"free over saved trips", "free-user", LimitSavedTrips, 9, LimitCheck{false, 3, 0}},
		{"free route calculations", "free-user", LimitRouteCalculations, 0, LimitCheck{false, 0, 0}},
		{"basic waypoints", "basic-user", LimitWaypointsPerTrip, 10, LimitCheck{true, 25, 15}},
		{"basic offline", "basic-user", LimitOfflineTrips, 5, LimitCheck{false, 5, 0}},
		{"test unlimited", testerID, LimitSavedTrips, 1_000_000, LimitCheck{true, Unlimited, Unlimited}},
		{"unknown limit type", "basic-user", "photos", 0, LimitCheck{false, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CheckUsageLimit(ctx, tt.user, tt.limitType, tt.current))
		})
	}
}

func TestIncrementUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates and persists", func(t *testing.T) {
		r, store, _ := newTestResolver(t)
		r.IncrementUsage(ctx, "alice", CounterRouteCalculations, 1)
		u := r.IncrementUsage(ctx, "alice", CounterRouteCalculations, 2)
		assert.EqualValues(t, 3, u.RouteCalculations)
		assert.Equal(t, "2026-01", u.CurrentMonth)

		_, err := store.Get(ctx, storage.UserUsageKey("alice"))
		assert.NoError(t, err)
		assert.EqualValues(t, 3, r.Usage(ctx, "alice").RouteCalculations)
	})

	t.Run("monthly rollover resets to amount", func(t *testing.T) {
		r, _, fake := newTestResolver(t)
		r.IncrementUsage(ctx, "alice", CounterRouteCalculations, 40)
		r.IncrementUsage(ctx, "alice", CounterSavedTrips, 2)

		fake.Set(time.Date(2026, 2, 1, 0, 0, 1, 0, time.UTC))
		assert.EqualValues(t, 0, r.Usage(ctx, "alice").RouteCalculations, "stale month reads as reset")

		u := r.IncrementUsage(ctx, "alice", CounterRouteCalculations, 5)
		assert.EqualValues(t, 5, u.RouteCalculations)
		assert.EqualValues(t, 2, u.SavedTrips, "standing counts survive rollover")
		assert.Equal(t, "2026-02", u.CurrentMonth)
		assert.True(t, u.LastReset.Equal(fake.Now()))
	})

	t.Run("empty user is not tracked", func(t *testing.T) {
		r, store, _ := newTestResolver(t)
		u := r.IncrementUsage(ctx, "", CounterRouteCalculations, 1)
		assert.EqualValues(t, 0, u.RouteCalculations)
		assert.Equal(t, TierFree, u.Tier)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("corrupt usage starts fresh", func(t *testing.T) {
		r, store, _ := newTestResolver(t)
		require.NoError(t, store.Set(ctx, storage.UserUsageKey("carol"), "{oops"))
		u := r.IncrementUsage(ctx, "carol", CounterOfflineTrips, 1)
		assert.EqualValues(t, 1, u.OfflineTrips)
	})

	t.Run("reset monthly limits", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		r.IncrementUsage(ctx, "dave", CounterRouteCalculations, 9)
		u := r.ResetMonthlyLimits(ctx, "dave")
		assert.EqualValues(t, 0, u.RouteCalculations)
		assert.EqualValues(t, 0, r.Usage(ctx, "dave").RouteCalculations)
	})
}

func TestMembershipLimitsIsACopy(t *testing.T) {
	r, _, _ := newTestResolver(t)
	limits := r.MembershipLimits(TierFree)
	limits.Features[FeatureRealTimeRouting] = Bool(true)
	assert.False(t, r.MembershipLimits(TierFree).Features.Enabled(FeatureRealTimeRouting))
	assert.Equal(t, r.MembershipLimits(TierFree).MaxSavedTrips, r.MembershipLimits("platinum").MaxSavedTrips)
}
