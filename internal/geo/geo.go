// Package geo approximates road routes locally when the provider cannot
// be used.
package geo

import (
	"math"

	"github.com/LavishGent/routegov/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Defaults for the road approximation.
const (
	DefaultRoadFactor      = 1.3
	DefaultAverageSpeedKmh = 80.0
)

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b types.LatLng) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength sums Haversine over consecutive waypoints.
func PathLength(waypoints []types.LatLng) float64 {
	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		total += Haversine(waypoints[i-1], waypoints[i])
	}
	return total
}

// Estimator turns straight-line distance into a rough road estimate.
type Estimator struct {
	RoadFactor      float64
	AverageSpeedKmh float64
}

// NewEstimator returns an Estimator, substituting defaults for
// non-positive parameters.
func NewEstimator(roadFactor, averageSpeedKmh float64) Estimator {
	if roadFactor <= 0 {
		roadFactor = DefaultRoadFactor
	}
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = DefaultAverageSpeedKmh
	}
	return Estimator{RoadFactor: roadFactor, AverageSpeedKmh: averageSpeedKmh}
}

// Estimate approximates a route through waypoints. The result carries
// no geometry or instructions. Fewer than two waypoints give zero.
func (e Estimator) Estimate(waypoints []types.LatLng) types.RouteEstimate {
	distance := PathLength(waypoints) * e.RoadFactor
	return types.RouteEstimate{
		DistanceKm:    distance,
		DurationHours: distance / e.AverageSpeedKmh,
		Source:        types.SourceEstimate,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
