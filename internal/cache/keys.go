package cache

import (
	"math"
	"strconv"
	"strings"

	"github.com/LavishGent/routegov/internal/types"
)

// coordPrecision is the number of decimal degrees kept in route keys
// (about 11 m at the equator).
const coordPrecision = 4

// RouteKey derives the cache key for a directions request. Coordinates
// are rounded to four decimals so jitter below that precision maps to
// the same key, and the profile keeps travel modes apart:
//
//	route:driving-car:37.7749,-122.4194|34.0522,-118.2437
func RouteKey(profile types.Profile, waypoints []types.LatLng) string {
	var b strings.Builder
	b.WriteString("route:")
	b.WriteString(profile.String())
	b.WriteByte(':')
	for i, wp := range waypoints {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(formatCoord(wp.Lat))
		b.WriteByte(',')
		b.WriteString(formatCoord(wp.Lng))
	}
	return b.String()
}

// DirectionsKey extends RouteKey with non-default request options, so a
// route fetched without geometry never answers a request that wants it.
func DirectionsKey(profile types.Profile, waypoints []types.LatLng, opts types.DirectionsOptions) string {
	key := RouteKey(profile, waypoints)
	var flags []string
	if opts.OmitGeometry {
		flags = append(flags, "nogeom")
	}
	if opts.OmitInstructions {
		flags = append(flags, "noinstr")
	}
	if opts.Elevation {
		flags = append(flags, "elev")
	}
	if len(flags) > 0 {
		key += "#" + strings.Join(flags, ",")
	}
	return key
}

// GeocodeKey derives the cache key for a geocode query. Queries are
// compared case-insensitively after trimming; a country restriction is
// part of the key.
func GeocodeKey(query, country string) string {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(query))
	if c := strings.ToLower(strings.TrimSpace(country)); c != "" {
		key += "|country=" + c
	}
	return key
}

func formatCoord(v float64) string {
	scale := math.Pow10(coordPrecision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // normalizes -0
	}
	return strconv.FormatFloat(r, 'f', coordPrecision, 64)
}
