package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/internal/types"
)

// Options configures a Resolver.
type Options struct {
	// Table defaults to DefaultTable.
	Table Table
	// TestIdentities resolve to TierTest when nothing more specific applies.
	TestIdentities []string
	// Overrides defaults to a StoreOverrides over the resolver's store.
	Overrides OverrideProvider
	// Location fixes where a usage month begins. Nil means time.Local.
	Location *time.Location
	Clock    types.Clock
	Logger   *slog.Logger
}

// Resolver maps users to tiers and enforces per-user monthly usage.
//
// Tier resolution, first match wins:
//  1. the test tier override
//  2. the membership stored for the user
//  3. membership of the test identity allow-list
//  4. TierFree
//
// An empty user id is always TierFree.
type Resolver struct {
	table      Table
	identities map[string]struct{}
	overrides  OverrideProvider
	store      types.KeyValueStore
	loc        *time.Location
	clock      types.Clock
	logger     *slog.Logger

	mu       sync.RWMutex
	testTier Tier
}

// NewResolver validates the tier table and restores a persisted test tier.
func NewResolver(ctx context.Context, store types.KeyValueStore, opts Options) (*Resolver, error) {
	if opts.Table == nil {
		opts.Table = DefaultTable()
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = storage.NewDisabledStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Overrides == nil {
		opts.Overrides = NewStoreOverrides(store, opts.Logger)
	}

	identities := make(map[string]struct{}, len(opts.TestIdentities))
	for _, id := range opts.TestIdentities {
		identities[id] = struct{}{}
	}

	r := &Resolver{
		table:      opts.Table,
		identities: identities,
		overrides:  opts.Overrides,
		store:      store,
		loc:        opts.Location,
		clock:      clock.OrReal(opts.Clock),
		logger:     opts.Logger.With("component", "entitlements"),
	}
	r.loadTestTier(ctx)
	return r, nil
}

func (r *Resolver) loadTestTier(ctx context.Context) {
	raw, err := r.store.Get(ctx, storage.TestTierKey)
	if err != nil {
		if !types.IsNotFound(err) {
			r.logger.Warn("Failed to read test tier", "error", err)
		}
		return
	}
	if tier := Tier(raw); tier.Valid() {
		r.testTier = tier
		r.logger.Info("Test tier override active", "tier", tier)
	}
}

// Membership resolves the tier of userID.
func (r *Resolver) Membership(ctx context.Context, userID string) Tier {
	if userID == "" {
		return TierFree
	}
	if tier, ok := r.TestTier(); ok {
		return tier
	}
	if tier, ok := r.storedMembership(ctx, userID); ok {
		return tier
	}
	if _, ok := r.identities[userID]; ok {
		return TierTest
	}
	return TierFree
}

func (r *Resolver) storedMembership(ctx context.Context, userID string) (Tier, bool) {
	raw, err := r.store.Get(ctx, storage.MembershipKey(userID))
	if err != nil {
		if !types.IsNotFound(err) {
			r.logger.Warn("Failed to read membership", "user", userID, "error", err)
		}
		return "", false
	}
	tier := Tier(strings.TrimSpace(raw))
	if !tier.Valid() {
		r.logger.Warn("Ignoring unknown stored membership", "user", userID, "value", raw)
		return "", false
	}
	return tier, true
}

// SetMembership persists the tier of userID.
func (r *Resolver) SetMembership(ctx context.Context, userID string, tier Tier) error {
	if userID == "" {
		return fmt.Errorf("set membership: empty user id")
	}
	if !tier.Valid() {
		return fmt.Errorf("set membership: %w: %q", types.ErrUnknownTier, tier)
	}
	return r.store.Set(ctx, storage.MembershipKey(userID), string(tier))
}

// ClearMembership removes the stored tier of userID.
func (r *Resolver) ClearMembership(ctx context.Context, userID string) error {
	return r.store.Remove(ctx, storage.MembershipKey(userID))
}

// MembershipLimits returns the limits of tier. Unknown tiers get TierFree's.
func (r *Resolver) MembershipLimits(tier Tier) MembershipLimits {
	limits, ok := r.table[tier]
	if !ok {
		limits = r.table[TierFree]
	}
	limits.Features = limits.Features.Clone()
	return limits
}

// Features returns the tier-derived feature set of userID. Overrides are
// not applied; see IsFeatureEnabled.
func (r *Resolver) Features(ctx context.Context, userID string) FeatureAccess {
	return r.MembershipLimits(r.Membership(ctx, userID)).Features
}

// IsFeatureEnabled reports whether userID may use f. A feature override
// takes precedence over the tier table.
func (r *Resolver) IsFeatureEnabled(ctx context.Context, f Feature, userID string) bool {
	if enabled, ok := r.overrides.Override(ctx, f); ok {
		return enabled
	}
	tier := r.Membership(ctx, userID)
	return r.table[tier].Features.Enabled(f)
}

// CheckUsageLimit compares current against the ceiling of limitType for
// userID's tier. It gates the next creation only; nothing already
// created is affected. Unknown limit types have a ceiling of zero.
func (r *Resolver) CheckUsageLimit(ctx context.Context, userID string, limitType LimitType, current int64) LimitCheck {
	limits := r.table[r.Membership(ctx, userID)]

	var limit Limit
	switch limitType {
	case LimitSavedTrips:
		limit = limits.MaxSavedTrips
	case LimitWaypointsPerTrip:
		limit = limits.MaxWaypointsPerTrip
	case LimitRouteCalculations:
		limit = limits.MonthlyRouteCalculations
	case LimitOfflineTrips:
		limit = limits.MaxOfflineTrips
	}

	if limit.IsUnlimited() {
		return LimitCheck{Allowed: true, Limit: Unlimited, Remaining: Unlimited}
	}
	return LimitCheck{
		Allowed:   current < int64(limit),
		Limit:     limit,
		Remaining: Limit(max(0, int64(limit)-current)),
	}
}

// Usage returns the counters of userID as of now. A stale month reads
// as a reset budget; nothing is written.
func (r *Resolver) Usage(ctx context.Context, userID string) UserUsage {
	now := r.clock.Now()
	usage := r.loadUsage(ctx, userID, now)
	usage.rollover(clock.MonthStamp(now, r.loc), now)
	return usage
}

// IncrementUsage adds amount to counter c of userID, resetting the
// monthly budget first when the month has changed, and persists the
// result. Persistence failures are logged; the returned usage is still
// the updated one. An empty user id is not tracked.
func (r *Resolver) IncrementUsage(ctx context.Context, userID string, c Counter, amount int64) UserUsage {
	now := r.clock.Now()
	if userID == "" {
		return r.defaultUsage(ctx, userID, now)
	}

	usage := r.loadUsage(ctx, userID, now)
	if usage.rollover(clock.MonthStamp(now, r.loc), now) {
		r.logger.Debug("Monthly usage reset", "user", userID, "month", usage.CurrentMonth)
	}
	usage.add(c, amount)
	usage.Tier = r.Membership(ctx, userID)
	r.saveUsage(ctx, usage)
	return usage
}

// ResetMonthlyLimits zeroes the monthly budget of userID and stamps the
// current month.
func (r *Resolver) ResetMonthlyLimits(ctx context.Context, userID string) UserUsage {
	now := r.clock.Now()
	usage := r.loadUsage(ctx, userID, now)
	usage.CurrentMonth = clock.MonthStamp(now, r.loc)
	usage.RouteCalculations = 0
	usage.LastReset = now
	if userID != "" {
		r.saveUsage(ctx, usage)
	}
	return usage
}

func (r *Resolver) defaultUsage(ctx context.Context, userID string, now time.Time) UserUsage {
	return UserUsage{
		UserID:       userID,
		Tier:         r.Membership(ctx, userID),
		CurrentMonth: clock.MonthStamp(now, r.loc),
		LastReset:    now,
	}
}

func (r *Resolver) loadUsage(ctx context.Context, userID string, now time.Time) UserUsage {
	if userID == "" {
		return r.defaultUsage(ctx, userID, now)
	}
	raw, err := r.store.Get(ctx, storage.UserUsageKey(userID))
	if err != nil {
		if !types.IsNotFound(err) {
			r.logger.Warn("Failed to read usage", "user", userID, "error", err)
		}
		return r.defaultUsage(ctx, userID, now)
	}

	var usage UserUsage
	if err := json.Unmarshal([]byte(raw), &usage); err != nil {
		r.logger.Warn("Stored usage is corrupt, starting fresh", "user", userID, "error", err)
		return r.defaultUsage(ctx, userID, now)
	}
	usage.UserID = userID
	return usage
}

func (r *Resolver) saveUsage(ctx context.Context, usage UserUsage) {
	data, err := json.Marshal(usage)
	if err != nil {
		r.logger.Error("Failed to encode usage", "user", usage.UserID, "error", err)
		return
	}
	if err := r.store.Set(ctx, storage.UserUsageKey(usage.UserID), string(data)); err != nil {
		r.logger.Warn("Failed to persist usage", "user", usage.UserID, "error", err)
	}
}

// SetTestTier forces every non-empty user id to resolve to tier. The
// override is kept in process and persisted so it survives restarts.
func (r *Resolver) SetTestTier(ctx context.Context, tier Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("set test tier: %w: %q", types.ErrUnknownTier, tier)
	}
	r.mu.Lock()
	r.testTier = tier
	r.mu.Unlock()

	r.logger.Info("Test tier set", "tier", tier)
	return r.store.Set(ctx, storage.TestTierKey, string(tier))
}

// ClearTestTier removes the test tier override.
func (r *Resolver) ClearTestTier(ctx context.Context) error {
	r.mu.Lock()
	r.testTier = ""
	r.mu.Unlock()

	r.logger.Info("Test tier cleared")
	return r.store.Remove(ctx, storage.TestTierKey)
}

// TestTier returns the active test tier override, if any.
func (r *Resolver) TestTier() (Tier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.testTier, r.testTier != ""
}

// IsTestIdentity reports whether userID is on the test identity allow-list.
func (r *Resolver) IsTestIdentity(userID string) bool {
	_, ok := r.identities[userID]
	return ok
}

// SetFeatureOverride forces f on or off for everyone.
func (r *Resolver) SetFeatureOverride(ctx context.Context, f Feature, enabled bool) error {
	r.logger.Info("Feature override set", "feature", f, "enabled", enabled)
	return r.overrides.SetOverride(ctx, f, enabled)
}

// ClearFeatureOverride removes the override for f.
func (r *Resolver) ClearFeatureOverride(ctx context.Context, f Feature) error {
	return r.overrides.ClearOverride(ctx, f)
}

// ClearFeatureOverrides removes every feature override.
func (r *Resolver) ClearFeatureOverrides(ctx context.Context) error {
	return r.overrides.ClearOverrides(ctx)
}

// FeatureOverrides lists the active feature overrides.
func (r *Resolver) FeatureOverrides(ctx context.Context) (map[Feature]bool, error) {
	return r.overrides.Overrides(ctx)
}
