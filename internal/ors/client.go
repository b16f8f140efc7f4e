// Package ors is the HTTP client for the OpenRouteService directions and
// geocoding APIs. It is the only place that speaks the provider's
// [lng, lat] coordinate order.
package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

const (
	directionsPath = "/v2/directions/"
	geocodePath    = "/geocode/search"

	// maxErrorBody bounds how much of an error response is kept for the message.
	maxErrorBody = 512
)

// Client calls the provider. A client without an API key is
// unconfigured: every call returns ErrNotConfigured without network I/O.
type Client struct {
	baseURL string
	apiKey  types.SecretString
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client from provider configuration.
func New(cfg config.ProviderConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "ors-client")
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return !c.apiKey.IsEmpty()
}

type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Units        string       `json:"units"`
	Language     string       `json:"language"`
	Geometry     bool         `json:"geometry"`
	Instructions bool         `json:"instructions"`
	Elevation    bool         `json:"elevation"`
	ExtraInfo    []string     `json:"extra_info,omitempty"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry json.RawMessage `json:"geometry"`
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Steps    []struct {
				Distance    float64 `json:"distance"`
				Duration    float64 `json:"duration"`
				Type        int     `json:"type"`
				Instruction string  `json:"instruction"`
				Name        string  `json:"name"`
				WayPoints   [2]int  `json:"way_points"`
			} `json:"steps"`
		} `json:"segments"`
		WayPoints []int `json:"way_points"`
	} `json:"routes"`
}

// Directions requests a route through waypoints and returns the first
// candidate. Distances are meters and durations seconds.
//
// 401 yields ErrUnauthorized, 429 ErrRateLimited and an empty route list
// ErrNoResults. Every other failure is a *types.GatewayError.
func (c *Client) Directions(ctx context.Context, waypoints []types.LatLng, profile types.Profile, opts types.DirectionsOptions) (*types.Route, error) {
	if !c.Configured() {
		return nil, types.ErrNotConfigured
	}
	if len(waypoints) < 2 {
		return nil, types.ErrInvalidWaypoints
	}
	if !profile.Valid() {
		profile = types.ProfileDrivingCar
	}

	body := directionsRequest{
		Coordinates:  toLngLat(waypoints),
		Units:        "m",
		Language:     "en",
		Geometry:     !opts.OmitGeometry,
		Instructions: !opts.OmitInstructions,
		Elevation:    opts.Elevation,
	}
	if opts.Elevation {
		body.ExtraInfo = []string{"surface"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewGatewayError("encode", types.EndpointDirections, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+directionsPath+profile.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewGatewayError("request", types.EndpointDirections, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp directionsResponse
	if err := c.do(req, types.EndpointDirections, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, types.ErrNoResults
	}

	first := resp.Routes[0]
	geometry, err := decodeGeometry(first.Geometry, opts.Elevation)
	if err != nil {
		return nil, types.NewGatewayError("decode", types.EndpointDirections, 0, err)
	}

	route := &types.Route{
		Distance:  first.Summary.Distance,
		Duration:  first.Summary.Duration,
		Geometry:  geometry,
		WayPoints: first.WayPoints,
	}
	for _, seg := range first.Segments {
		s := types.Segment{Distance: seg.Distance, Duration: seg.Duration}
		for _, st := range seg.Steps {
			s.Steps = append(s.Steps, types.Step{
				Distance:    st.Distance,
				Duration:    st.Duration,
				Type:        st.Type,
				Instruction: st.Instruction,
				Name:        st.Name,
				WayPoints:   st.WayPoints,
			})
		}
		route.Segments = append(route.Segments, s)
	}
	return route, nil
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a free-text query and returns the first match.
// Error mapping follows Directions.
func (c *Client) Geocode(ctx context.Context, query string, opts types.GeocodeOptions) (*types.Place, error) {
	if !c.Configured() {
		return nil, types.ErrNotConfigured
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{}
	params.Set("text", query)
	params.Set("size", strconv.Itoa(limit))
	if opts.Country != "" {
		params.Set("boundary.country", opts.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+geocodePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewGatewayError("request", types.EndpointGeocode, 0, err)
	}

	var resp geocodeResponse
	if err := c.do(req, types.EndpointGeocode, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, types.ErrNoResults
	}

	f := resp.Features[0]
	if len(f.Geometry.Coordinates) < 2 {
		return nil, types.NewGatewayError("decode", types.EndpointGeocode, 0,
			fmt.Errorf("feature has %d coordinates", len(f.Geometry.Coordinates)))
	}
	return &types.Place{
		LatLng: types.LatLng{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]},
		Label:  f.Properties.Label,
	}, nil
}

// do sends req with credentials and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	req.Header.Set("Authorization", c.apiKey.Value())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return types.NewGatewayError("call", endpoint, 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Error("Provider rejected API key", "endpoint", endpoint)
		return types.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Provider rate limit exceeded", "endpoint", endpoint)
		return types.ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return types.NewGatewayError("call", endpoint, resp.StatusCode,
			fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewGatewayError("decode", endpoint, resp.StatusCode, err)
	}
	return nil
}

func toLngLat(waypoints []types.LatLng) [][2]float64 {
	out := make([][2]float64, len(waypoints))
	for i, wp := range waypoints {
		out[i] = [2]float64{wp.Lng, wp.Lat}
	}
	return out
}

// decodeGeometry accepts either an encoded polyline string or a GeoJSON
// LineString object.
func decodeGeometry(raw json.RawMessage, elevation bool) ([]types.LatLng, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, err
		}
		return DecodePolyline(encoded, elevation)
	}

	var line struct {
		Coordinates [][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, err
	}
	out := make([]types.LatLng, 0, len(line.Coordinates))
	for _, pt := range line.Coordinates {
		if len(pt) < 2 {
			return nil, errors.New("geometry point has fewer than two coordinates")
		}
		out = append(out, types.LatLng{Lat: pt[1], Lng: pt[0]})
	}
	return out, nil
}
