package gateway

import (
	"context"
	"log/slog"

	"github.com/LavishGent/routegov/internal/entitlement"
	"github.com/LavishGent/routegov/internal/geo"
	"github.com/LavishGent/routegov/internal/metrics"
	"github.com/LavishGent/routegov/internal/types"
)

// Entitlements is the slice of the resolver the service consults.
type Entitlements interface {
	IsFeatureEnabled(ctx context.Context, f entitlement.Feature, userID string) bool
	Usage(ctx context.Context, userID string) entitlement.UserUsage
	CheckUsageLimit(ctx context.Context, userID string, limitType entitlement.LimitType, current int64) entitlement.LimitCheck
	IncrementUsage(ctx context.Context, userID string, c entitlement.Counter, amount int64) entitlement.UserUsage
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Estimator      geo.Estimator
	Profile        types.Profile
	DefaultCountry string
	Metrics        types.MetricsRecorder
	Logger         *slog.Logger
}

// Service answers route and geocode requests for a user, using the
// provider when the user's tier allows it and falling back otherwise.
// Neither operation returns an error.
type Service struct {
	gateway   *Gateway
	ent       Entitlements
	estimator geo.Estimator
	profile   types.Profile
	country   string
	metrics   types.MetricsRecorder
	logger    *slog.Logger
}

const (
	opCalculateRoute = "calculateRoute"
	opGeocodeAddress = "geocodeAddress"
)

// NewService creates a Service over gw. Zero estimator settings fall
// back to the geo defaults.
func NewService(gw *Gateway, ent Entitlements, opts ServiceOptions) *Service {
	if opts.Estimator.RoadFactor <= 0 || opts.Estimator.AverageSpeedKmh <= 0 {
		opts.Estimator = geo.NewEstimator(opts.Estimator.RoadFactor, opts.Estimator.AverageSpeedKmh)
	}
	if !opts.Profile.Valid() {
		opts.Profile = types.ProfileDrivingCar
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		gateway:   gw,
		ent:       ent,
		estimator: opts.Estimator,
		profile:   opts.Profile,
		country:   opts.DefaultCountry,
		metrics:   metrics.OrNoOp(opts.Metrics),
		logger:    opts.Logger.With("component", "route-service"),
	}
}

// CalculateRoute returns a provider route through waypoints when
// userID is entitled to real-time routing and has monthly route
// calculations left. Otherwise, or when the provider yields nothing,
// it returns a straight-line estimate with no geometry. A provider
// route counts against the user's monthly budget.
func (s *Service) CalculateRoute(ctx context.Context, waypoints []types.LatLng, userID string) types.RouteEstimate {
	if len(waypoints) < 2 {
		return s.estimate(waypoints, metrics.ReasonWaypoints)
	}
	if !s.ent.IsFeatureEnabled(ctx, entitlement.FeatureRealTimeRouting, userID) {
		return s.estimate(waypoints, metrics.ReasonTier)
	}
	if userID != "" {
		used := s.ent.Usage(ctx, userID).RouteCalculations
		if check := s.ent.CheckUsageLimit(ctx, userID, entitlement.LimitRouteCalculations, used); !check.Allowed {
			s.logger.Info("Monthly route calculations exhausted", "user", userID, "limit", check.Limit.String())
			return s.estimate(waypoints, metrics.ReasonMonthlyLimit)
		}
	}

	route, err := s.gateway.Directions(ctx, waypoints, s.profile, types.DirectionsOptions{})
	if err != nil {
		s.logger.Warn("Route calculation failed, using estimate", "error", err)
		return s.estimate(waypoints, metrics.ReasonError)
	}
	if route == nil {
		return s.estimate(waypoints, metrics.ReasonUnavailable)
	}

	if userID != "" {
		s.ent.IncrementUsage(ctx, userID, entitlement.CounterRouteCalculations, 1)
	}
	return types.RouteEstimate{
		DistanceKm:    route.Distance / 1000,
		DurationHours: route.Duration / 3600,
		Geometry:      route.Geometry,
		Instructions:  route.Steps(),
		Source:        types.SourceProvider,
	}
}

func (s *Service) estimate(waypoints []types.LatLng, reason string) types.RouteEstimate {
	s.metrics.RecordFallback(opCalculateRoute, reason)
	s.logger.Debug("Using route estimate", "reason", reason, "waypoints", len(waypoints))
	return s.estimator.Estimate(waypoints)
}

// GeocodeAddress resolves address for userID. It returns nil when the
// tier lacks geocoding or the provider has no answer; there is no local
// approximation.
func (s *Service) GeocodeAddress(ctx context.Context, address, userID string) *types.Place {
	if !s.ent.IsFeatureEnabled(ctx, entitlement.FeatureGeocoding, userID) {
		s.metrics.RecordFallback(opGeocodeAddress, metrics.ReasonTier)
		return nil
	}

	place, err := s.gateway.Geocode(ctx, address, types.GeocodeOptions{Country: s.country})
	if err != nil {
		s.logger.Warn("Geocoding failed", "error", err)
		s.metrics.RecordFallback(opGeocodeAddress, metrics.ReasonError)
		return nil
	}
	if place == nil {
		s.metrics.RecordFallback(opGeocodeAddress, metrics.ReasonUnavailable)
	}
	return place
}
