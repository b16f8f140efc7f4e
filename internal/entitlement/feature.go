package entitlement

import (
	"encoding/json"
	"slices"
)

// Feature names a capability flag in the tier table.
type Feature string

const (
	FeatureRealTimeRouting           Feature = "realTimeRouting"
	FeatureRouteOptimization         Feature = "routeOptimization"
	FeatureRouteOptimizationAdvanced Feature = "routeOptimizationAdvanced"
	FeatureGeocoding                 Feature = "geocoding"
	FeatureGeocodingUnlimited        Feature = "geocodingUnlimited"
	FeatureOfflineAccess             Feature = "offlineAccess"
	FeatureOfflineAutoSync           Feature = "offlineAutoSync"
	FeatureTripSharing               Feature = "tripSharing"
	FeatureTripCollaboration         Feature = "tripCollaboration"
	FeaturePublicProfile             Feature = "publicProfile"
	FeatureDataExport                Feature = "dataExport"
	FeatureExportFormats             Feature = "exportFormats"
	FeatureAPIAccess                 Feature = "apiAccess"
	FeatureInfluencerContent         Feature = "influencerContent"
	FeatureInfluencerContentCreation Feature = "influencerContentCreation"
	FeatureAIMessages                Feature = "aiMessages"
	FeatureAIPriority                Feature = "aiPriority"
	FeatureAICustomTraining          Feature = "aiCustomTraining"
	FeatureSafetyFeatures            Feature = "safetyFeatures"
	FeatureLiveTracking              Feature = "liveTracking"
	FeatureAnalytics                 Feature = "analytics"
	FeatureEVRouting                 Feature = "evRouting"
	FeatureFuelOptimization          Feature = "fuelOptimization"
	FeatureParkingFinder             Feature = "parkingFinder"
	FeatureFlightTracking            Feature = "flightTracking"
	FeatureARFeatures                Feature = "arFeatures"
	FeatureWhiteLabel                Feature = "whiteLabel"
	FeaturePrioritySupport           Feature = "prioritySupport"
	FeatureBetaAccess                Feature = "betaAccess"
	FeatureDebugMode                 Feature = "debugMode"
	FeatureAPIMonitoring             Feature = "apiMonitoring"
)

// Features lists every feature the system references. Every tier in a
// valid table defines all of them.
var Features = []Feature{
	FeatureRealTimeRouting,
	FeatureRouteOptimization,
	FeatureRouteOptimizationAdvanced,
	FeatureGeocoding,
	FeatureGeocodingUnlimited,
	FeatureOfflineAccess,
	FeatureOfflineAutoSync,
	FeatureTripSharing,
	FeatureTripCollaboration,
	FeaturePublicProfile,
	FeatureDataExport,
	FeatureExportFormats,
	FeatureAPIAccess,
	FeatureInfluencerContent,
	FeatureInfluencerContentCreation,
	FeatureAIMessages,
	FeatureAIPriority,
	FeatureAICustomTraining,
	FeatureSafetyFeatures,
	FeatureLiveTracking,
	FeatureAnalytics,
	FeatureEVRouting,
	FeatureFuelOptimization,
	FeatureParkingFinder,
	FeatureFlightTracking,
	FeatureARFeatures,
	FeatureWhiteLabel,
	FeaturePrioritySupport,
	FeatureBetaAccess,
	FeatureDebugMode,
	FeatureAPIMonitoring,
}

// Kind is the shape of a feature value.
type Kind int

const (
	KindBool Kind = iota
	KindLevel
	KindCount
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindLevel:
		return "level"
	case KindCount:
		return "count"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is one entry of a tier's feature set: a flag, a named level
// ("sample", "full"), a count that may be Unlimited, or a list of options.
type Value struct {
	kind  Kind
	flag  bool
	level string
	count Limit
	list  []string
}

// Bool returns a flag value.
func Bool(on bool) Value { return Value{kind: KindBool, flag: on} }

// Level returns a named level value.
func Level(name string) Value { return Value{kind: KindLevel, level: name} }

// Count returns a numeric allowance.
func Count(n Limit) Value { return Value{kind: KindCount, count: n} }

// List returns a set of options.
func List(items ...string) Value { return Value{kind: KindList, list: items} }

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Level returns the named level, or "" for other kinds.
func (v Value) Level() string { return v.level }

// Count returns the allowance, or 0 for other kinds.
func (v Value) Count() Limit { return v.count }

// List returns a copy of the options.
func (v Value) List() []string { return slices.Clone(v.list) }

// Enabled reports whether the value grants the feature: a true flag, a
// non-empty level, a non-zero count or Unlimited, or a non-empty list.
func (v Value) Enabled() bool {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindLevel:
		return v.level != ""
	case KindCount:
		return v.count != 0
	case KindList:
		return len(v.list) > 0
	}
	return false
}

// MarshalJSON encodes the value in its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindLevel:
		return json.Marshal(v.level)
	case KindCount:
		return json.Marshal(v.count)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.flag)
}

// FeatureAccess is a tier's complete feature set.
type FeatureAccess map[Feature]Value

// Enabled reports whether f is granted. Undefined features are not.
func (fa FeatureAccess) Enabled(f Feature) bool {
	v, ok := fa[f]
	return ok && v.Enabled()
}

// Clone returns an independent copy.
func (fa FeatureAccess) Clone() FeatureAccess {
	out := make(FeatureAccess, len(fa))
	for k, v := range fa {
		v.list = slices.Clone(v.list)
		out[k] = v
	}
	return out
}
