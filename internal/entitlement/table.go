package entitlement

import (
	"fmt"

	"github.com/LavishGent/routegov/internal/types"
)

// MembershipLimits holds a tier's ceilings and feature set.
type MembershipLimits struct {
	MaxSavedTrips            Limit         `json:"maxSavedTrips"`
	MaxWaypointsPerTrip      Limit         `json:"maxWaypointsPerTrip"`
	MonthlyRouteCalculations Limit         `json:"monthlyRouteCalculations"`
	MaxOfflineTrips          Limit         `json:"maxOfflineTrips"`
	Features                 FeatureAccess `json:"features"`
}

// Table maps every tier to its limits.
type Table map[Tier]MembershipLimits

// Validate checks that every tier is present and defines every feature
// in Features, and that a feature has the same kind in every tier.
func (t Table) Validate() error {
	kinds := make(map[Feature]Kind, len(Features))
	for _, tier := range Tiers {
		limits, ok := t[tier]
		if !ok {
			return fmt.Errorf("%w: tier %s missing", types.ErrIncompleteTierTable, tier)
		}
		for _, f := range Features {
			v, ok := limits.Features[f]
			if !ok {
				return fmt.Errorf("%w: tier %s does not define %s", types.ErrIncompleteTierTable, tier, f)
			}
			if k, seen := kinds[f]; seen && k != v.Kind() {
				return fmt.Errorf("%w: %s is a %s in tier %s but a %s elsewhere",
					types.ErrIncompleteTierTable, f, v.Kind(), tier, k)
			}
			kinds[f] = v.Kind()
		}
	}
	return nil
}

// offFeatures returns every feature in its withheld form.
func offFeatures() FeatureAccess {
	fa := make(FeatureAccess, len(Features))
	for _, f := range Features {
		fa[f] = Bool(false)
	}
	fa[FeatureExportFormats] = List()
	fa[FeatureInfluencerContent] = Level("")
	fa[FeatureAIMessages] = Count(0)
	fa[FeatureSafetyFeatures] = Level("")
	return fa
}

func grant(base FeatureAccess, values FeatureAccess) FeatureAccess {
	out := base.Clone()
	for f, v := range values {
		out[f] = v
	}
	return out
}

func flags(on ...Feature) FeatureAccess {
	fa := make(FeatureAccess, len(on))
	for _, f := range on {
		fa[f] = Bool(true)
	}
	return fa
}

// DefaultTable returns the built-in tier table.
func DefaultTable() Table {
	exportFormats := List("csv", "pdf", "gpx", "kml")

	free := grant(offFeatures(), FeatureAccess{
		FeatureInfluencerContent: Level("sample"),
		FeatureAIMessages:        Count(10),
		FeatureSafetyFeatures:    Level("basic"),
	})

	basic := grant(free, flags(
		FeatureRealTimeRouting,
		FeatureGeocoding,
		FeatureOfflineAccess,
		FeatureTripSharing,
		FeatureDataExport,
	))
	basic = grant(basic, FeatureAccess{
		FeatureInfluencerContent: Level("full"),
		FeatureAIMessages:        Count(Unlimited),
		FeatureSafetyFeatures:    Level("full"),
	})

	advanced := grant(basic, flags(
		FeatureRouteOptimization,
		FeatureGeocodingUnlimited,
		FeatureTripCollaboration,
		FeatureAIPriority,
		FeatureLiveTracking,
		FeatureAnalytics,
		FeatureEVRouting,
		FeatureFuelOptimization,
	))
	advanced = grant(advanced, FeatureAccess{
		FeatureExportFormats:     exportFormats,
		FeatureInfluencerContent: Level("exclusive"),
	})

	expert := grant(advanced, flags(
		FeatureRouteOptimizationAdvanced,
		FeatureOfflineAutoSync,
		FeaturePublicProfile,
		FeatureAPIAccess,
		FeatureInfluencerContentCreation,
		FeatureAICustomTraining,
		FeatureParkingFinder,
		FeatureFlightTracking,
		FeatureARFeatures,
		FeatureWhiteLabel,
		FeaturePrioritySupport,
		FeatureBetaAccess,
	))

	test := grant(expert, flags(FeatureDebugMode, FeatureAPIMonitoring))

	return Table{
		TierFree: {
			MaxSavedTrips:            3,
			MaxWaypointsPerTrip:      7,
			MonthlyRouteCalculations: 0,
			MaxOfflineTrips:          0,
			Features:                 free,
		},
		TierBasic: {
			MaxSavedTrips:            25,
			MaxWaypointsPerTrip:      25,
			MonthlyRouteCalculations: 100,
			MaxOfflineTrips:          5,
			Features:                 basic,
		},
		TierAdvanced: {
			MaxSavedTrips:            Unlimited,
			MaxWaypointsPerTrip:      100,
			MonthlyRouteCalculations: 500,
			MaxOfflineTrips:          Unlimited,
			Features:                 advanced,
		},
		TierExpert: {
			MaxSavedTrips:            Unlimited,
			MaxWaypointsPerTrip:      Unlimited,
			MonthlyRouteCalculations: Unlimited,
			MaxOfflineTrips:          Unlimited,
			Features:                 expert,
		},
		TierTest: {
			MaxSavedTrips:            Unlimited,
			MaxWaypointsPerTrip:      Unlimited,
			MonthlyRouteCalculations: Unlimited,
			MaxOfflineTrips:          Unlimited,
			Features:                 test,
		},
	}
}
