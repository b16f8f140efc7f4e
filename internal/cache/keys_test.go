package cache

import (
	"testing"

	"github.com/LavishGent/routegov/internal/types"
)

func TestRouteKey(t *testing.T) {
	sf := types.LatLng{Lat: 37.7749, Lng: -122.4194}
	la := types.LatLng{Lat: 34.0522, Lng: -118.2437}

	t.Run("format", func(t *testing.T) {
		got := RouteKey(types.ProfileDrivingCar, []types.LatLng{sf, la})
		want := "route:driving-car:37.7749,-122.4194|34.0522,-118.2437"
		if got != want {
			t.Errorf("RouteKey() = %q, want %q", got, want)
		}
	})

	t.Run("stable below fourth decimal", func(t *testing.T) {
		jittered := []types.LatLng{
			{Lat: 37.77491, Lng: -122.41938},
			{Lat: 34.052249, Lng: -118.243651},
		}
		a := RouteKey(types.ProfileDrivingCar, []types.LatLng{sf, la})
		b := RouteKey(types.ProfileDrivingCar, jittered)
		if a != b {
			t.Errorf("keys differ: %q vs %q", a, b)
		}
	})

	t.Run("differs at fourth decimal", func(t *testing.T) {
		moved := types.LatLng{Lat: 37.7750, Lng: -122.4194}
		a := RouteKey(types.ProfileDrivingCar, []types.LatLng{sf, la})
		b := RouteKey(types.ProfileDrivingCar, []types.LatLng{moved, la})
		if a == b {
			t.Error("keys should differ")
		}
	})

	t.Run("profile separates modes", func(t *testing.T) {
		a := RouteKey(types.ProfileDrivingCar, []types.LatLng{sf, la})
		b := RouteKey(types.ProfileDrivingHGV, []types.LatLng{sf, la})
		if a == b {
			t.Error("car and hgv keys collide")
		}
	})

	t.Run("negative zero", func(t *testing.T) {
		got := RouteKey(types.ProfileDrivingCar, []types.LatLng{{Lat: -0.00001, Lng: 0}})
		if got != "route:driving-car:0.0000,0.0000" {
			t.Errorf("RouteKey() = %q", got)
		}
	})
}

func TestGeocodeKey(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		country string
		want    string
	}{
		{"lowercases and trims", "  Golden Gate Bridge ", "", "geocode:golden gate bridge"},
		{"country appended", "Berlin", "DE", "geocode:berlin|country=de"},
		{"blank country ignored", "Berlin", "  ", "geocode:berlin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GeocodeKey(tt.query, tt.country); got != tt.want {
				t.Errorf("GeocodeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectionsKey(t *testing.T) {
	wps := []types.LatLng{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	base := RouteKey(types.ProfileDrivingCar, wps)

	tests := []struct {
		name string
		opts types.DirectionsOptions
		want string
	}{
		{"defaults", types.DirectionsOptions{}, base},
		{"elevation", types.DirectionsOptions{Elevation: true}, base + "#elev"},
		{"all", types.DirectionsOptions{OmitGeometry: true, OmitInstructions: true, Elevation: true}, base + "#nogeom,noinstr,elev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirectionsKey(types.ProfileDrivingCar, wps, tt.opts); got != tt.want {
				t.Errorf("DirectionsKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
