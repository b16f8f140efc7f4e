// Package types provides shared types for the routegov usage governor.
// This package breaks import cycles between pkg/routegov and the internal packages.
package types

import "time"

// Profile selects the travel mode used by the remote routing provider.
type Profile string

const (
	ProfileDrivingCar Profile = "driving-car"
	ProfileDrivingHGV Profile = "driving-hgv"
)

func (p Profile) String() string {
	return string(p)
}

// Valid reports whether the profile is one the provider accepts.
func (p Profile) Valid() bool {
	return p == ProfileDrivingCar || p == ProfileDrivingHGV
}

// Endpoint names recorded in the usage ledger.
const (
	EndpointDirections = "directions"
	EndpointGeocode    = "geocode"
)

// LatLng is a coordinate in decimal degrees. Every internal API uses this
// named form; only the provider client deals in [lng, lat] pairs.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Step is a single turn-by-turn instruction of a route.
type Step struct {
	Distance    float64 `json:"distance"` // meters
	Duration    float64 `json:"duration"` // seconds
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
	WayPoints   [2]int  `json:"wayPoints"`
}

// Segment groups the steps between two consecutive waypoints.
type Segment struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

// Route is the first candidate route returned by the provider.
type Route struct {
	Distance  float64   `json:"distance"` // meters
	Duration  float64   `json:"duration"` // seconds
	Geometry  []LatLng  `json:"geometry"`
	Segments  []Segment `json:"segments"`
	WayPoints []int     `json:"wayPoints"`
}

// Steps flattens the steps of every segment in order.
func (r *Route) Steps() []Step {
	var steps []Step
	for _, seg := range r.Segments {
		steps = append(steps, seg.Steps...)
	}
	return steps
}

// Place is a geocoding result.
type Place struct {
	LatLng
	Label string `json:"label"`
}

// RouteSource tells callers whether a route estimate came from the
// provider or from the local approximation.
type RouteSource string

const (
	SourceProvider RouteSource = "provider"
	SourceEstimate RouteSource = "estimate"
)

// RouteEstimate is what route calculation hands back to callers.
// Estimates produced locally never carry geometry or instructions.
type RouteEstimate struct {
	DistanceKm    float64     `json:"distanceKm"`
	DurationHours float64     `json:"durationHours"`
	Geometry      []LatLng    `json:"geometry,omitempty"`
	Instructions  []Step      `json:"instructions,omitempty"`
	Source        RouteSource `json:"source"`
}

// IsEstimate reports whether the route is a local approximation.
func (e RouteEstimate) IsEstimate() bool {
	return e.Source == SourceEstimate
}

// UsageRecord is one logged attempt to use the remote provider.
// Records are immutable once created.
type UsageRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
	Success   bool      `json:"success"`
	Cached    bool      `json:"cached"`
}

// TodayUsage aggregates the ledger records of the current day.
type TodayUsage struct {
	Total      int            `json:"total"`
	Cached     int            `json:"cached"`
	APICalls   int            `json:"apiCalls"`
	ByEndpoint map[string]int `json:"byEndpoint"`
}

// CacheStats is a point-in-time view of the response cache.
type CacheStats struct {
	Size         int     `json:"size"`
	Capacity     int     `json:"capacity"`
	UsagePercent float64 `json:"usagePercent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Evictions    int64   `json:"evictions"`
	Expirations  int64   `json:"expirations"`
}

// DirectionsOptions selects what a directions request asks the provider
// to include. Geometry and instructions are on unless explicitly turned off.
type DirectionsOptions struct {
	OmitGeometry     bool `json:"omitGeometry,omitempty"`
	OmitInstructions bool `json:"omitInstructions,omitempty"`
	Elevation        bool `json:"elevation,omitempty"`
}

// GeocodeOptions narrows a geocode query. Limit defaults to 1.
type GeocodeOptions struct {
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}
