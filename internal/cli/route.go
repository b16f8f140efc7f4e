package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LavishGent/routegov/pkg/routegov"
)

func newRouteCmd(a *app) *cobra.Command {
	var (
		user             string
		raw              bool
		profile          string
		omitGeometry     bool
		omitInstructions bool
		elevation        bool
	)

	cmd := &cobra.Command{
		Use:   "route <lat,lng> <lat,lng> [<lat,lng>...]",
		Short: "Calculate a route through waypoints",
		Long: `Calculate a route for a user. The provider is used when the user's tier
allows real-time routing and monthly route calculations remain; otherwise
the result is a straight-line estimate.

With --raw the request goes straight to the gateway: no tier check, and
the full provider route (or null) is printed.`,
		Args: cobra.MinimumNArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			waypoints, err := parseWaypoints(args)
			if err != nil {
				return err
			}
			if !raw {
				return a.print(cmd, a.gov.CalculateRoute(cmd.Context(), waypoints, user))
			}

			route, err := a.gov.Directions(cmd.Context(), waypoints, routegov.Profile(profile), routegov.DirectionsOptions{
				OmitGeometry:     omitGeometry,
				OmitInstructions: omitInstructions,
				Elevation:        elevation,
			})
			if err != nil {
				return fmt.Errorf("directions: %w", err)
			}
			return a.print(cmd, route)
		}),
	}

	cmd.Flags().StringVar(&user, "user", "", "user id whose tier and monthly budget apply")
	cmd.Flags().BoolVar(&raw, "raw", false, "call the gateway directly and print the provider route")
	cmd.Flags().StringVar(&profile, "profile", string(routegov.ProfileDrivingCar), "routing profile for --raw: driving-car, driving-hgv")
	cmd.Flags().BoolVar(&omitGeometry, "no-geometry", false, "do not request route geometry (--raw)")
	cmd.Flags().BoolVar(&omitInstructions, "no-instructions", false, "do not request turn instructions (--raw)")
	cmd.Flags().BoolVar(&elevation, "elevation", false, "request elevation and surface data (--raw)")
	return cmd
}

func newEstimateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <lat,lng> <lat,lng> [<lat,lng>...]",
		Short: "Approximate a route locally without the provider",
		Args:  cobra.MinimumNArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			waypoints, err := parseWaypoints(args)
			if err != nil {
				return err
			}
			return a.print(cmd, a.gov.EstimateRoute(waypoints))
		}),
	}
}

func newGeocodeCmd(a *app) *cobra.Command {
	var (
		user    string
		raw     bool
		country string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Resolve an address to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !raw {
				return a.print(cmd, a.gov.GeocodeAddress(cmd.Context(), args[0], user))
			}
			place, err := a.gov.Geocode(cmd.Context(), args[0], routegov.GeocodeOptions{Country: country, Limit: limit})
			if err != nil {
				return fmt.Errorf("geocode: %w", err)
			}
			return a.print(cmd, place)
		}),
	}

	cmd.Flags().StringVar(&user, "user", "", "user id whose tier applies")
	cmd.Flags().BoolVar(&raw, "raw", false, "call the gateway directly, skipping the tier check")
	cmd.Flags().StringVar(&country, "country", "", "restrict results to a country code (--raw)")
	cmd.Flags().IntVar(&limit, "limit", 1, "number of candidates to request (--raw)")
	return cmd
}
