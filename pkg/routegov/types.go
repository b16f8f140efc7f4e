package routegov

import (
	"github.com/LavishGent/routegov/internal/entitlement"
	"github.com/LavishGent/routegov/internal/gateway"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/types"
)

// Re-export domain types from internal/types.
type (
	LatLng            = types.LatLng
	Route             = types.Route
	Segment           = types.Segment
	Step              = types.Step
	Place             = types.Place
	Profile           = types.Profile
	RouteEstimate     = types.RouteEstimate
	RouteSource       = types.RouteSource
	DirectionsOptions = types.DirectionsOptions
	GeocodeOptions    = types.GeocodeOptions
	UsageRecord       = types.UsageRecord
	TodayUsage        = types.TodayUsage
	CacheStats        = types.CacheStats
	UsageStats        = gateway.UsageStats
)

// Re-export extension points.
type (
	Logger          = types.Logger
	Clock           = types.Clock
	KeyValueStore   = types.KeyValueStore
	MetricsRecorder = types.MetricsRecorder
	Publisher       = metrics.Publisher
	Provider        = gateway.Provider
	SecretString    = types.SecretString
)

// Re-export entitlement types.
type (
	Tier             = entitlement.Tier
	Feature          = entitlement.Feature
	FeatureAccess    = entitlement.FeatureAccess
	Limit            = entitlement.Limit
	LimitType        = entitlement.LimitType
	LimitCheck       = entitlement.LimitCheck
	Counter          = entitlement.Counter
	UserUsage        = entitlement.UserUsage
	MembershipLimits = entitlement.MembershipLimits
)

const (
	ProfileDrivingCar = types.ProfileDrivingCar
	ProfileDrivingHGV = types.ProfileDrivingHGV

	SourceProvider = types.SourceProvider
	SourceEstimate = types.SourceEstimate
)

const (
	TierFree     = entitlement.TierFree
	TierBasic    = entitlement.TierBasic
	TierAdvanced = entitlement.TierAdvanced
	TierExpert   = entitlement.TierExpert
	TierTest     = entitlement.TierTest
)

const (
	LimitSavedTrips        = entitlement.LimitSavedTrips
	LimitWaypointsPerTrip  = entitlement.LimitWaypointsPerTrip
	LimitRouteCalculations = entitlement.LimitRouteCalculations
	LimitOfflineTrips      = entitlement.LimitOfflineTrips

	CounterRouteCalculations = entitlement.CounterRouteCalculations
	CounterSavedTrips        = entitlement.CounterSavedTrips
	CounterOfflineTrips      = entitlement.CounterOfflineTrips

	Unlimited = entitlement.Unlimited
)

// The features the governor itself consults. Every other tier table
// feature is reachable through the Feature type.
const (
	FeatureRealTimeRouting = entitlement.FeatureRealTimeRouting
	FeatureGeocoding       = entitlement.FeatureGeocoding
)

// ParseTier converts a tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	return entitlement.ParseTier(s)
}

// NewSecretString wraps a credential so it is redacted in logs and JSON.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}
