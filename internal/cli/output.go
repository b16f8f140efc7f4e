package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LavishGent/routegov/pkg/routegov"
)

func (a *app) print(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	switch strings.ToLower(a.output) {
	case "yaml", "yml":
		// Round-trip through JSON so yaml keys follow the json tags.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

// parseWaypoints reads "lat,lng" arguments.
func parseWaypoints(args []string) ([]routegov.LatLng, error) {
	out := make([]routegov.LatLng, 0, len(args))
	for _, arg := range args {
		lat, lng, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("waypoint %q: want lat,lng", arg)
		}
		p, err := parseLatLng(lat, lng)
		if err != nil {
			return nil, fmt.Errorf("waypoint %q: %w", arg, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseLatLng(lat, lng string) (routegov.LatLng, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return routegov.LatLng{}, fmt.Errorf("latitude: %w", err)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return routegov.LatLng{}, fmt.Errorf("longitude: %w", err)
	}
	if la < -90 || la > 90 {
		return routegov.LatLng{}, fmt.Errorf("latitude %v out of range", la)
	}
	if ln < -180 || ln > 180 {
		return routegov.LatLng{}, fmt.Errorf("longitude %v out of range", ln)
	}
	return routegov.LatLng{Lat: la, Lng: ln}, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enable", "enabled", "1":
		return true, nil
	case "off", "false", "disable", "disabled", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not on or off", s)
}
