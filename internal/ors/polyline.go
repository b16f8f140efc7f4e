package ors

import (
	"errors"

	"github.com/LavishGent/routegov/internal/types"
)

var errTruncatedPolyline = errors.New("polyline: truncated input")

// DecodePolyline decodes an encoded polyline at precision 5. The
// provider emits a third, elevation, dimension when elevation was
// requested; it is read and dropped.
func DecodePolyline(encoded string, withElevation bool) ([]types.LatLng, error) {
	var (
		points   []types.LatLng
		lat, lng int64
		pos      int
	)
	for pos < len(encoded) {
		dLat, next, err := decodeValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		if withElevation {
			if _, next, err = decodeValue(encoded, next); err != nil {
				return nil, err
			}
		}
		pos = next
		lat += dLat
		lng += dLng
		points = append(points, types.LatLng{Lat: float64(lat) / 1e5, Lng: float64(lng) / 1e5})
	}
	return points, nil
}

func decodeValue(s string, pos int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if pos >= len(s) {
			return 0, pos, errTruncatedPolyline
		}
		b := int64(s[pos]) - 63
		pos++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
