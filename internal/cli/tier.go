package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LavishGent/routegov/pkg/routegov"
)

type membershipView struct {
	UserID      string                 `json:"userId"`
	Tier        routegov.Tier          `json:"tier"`
	DisplayName string                 `json:"displayName"`
	Price       float64                `json:"price"`
	Features    routegov.FeatureAccess `json:"features,omitempty"`
}

func newTierCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Manage user memberships",
	}

	get := &cobra.Command{
		Use:   "get <user>",
		Short: "Show the tier a user resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tier := a.gov.Membership(cmd.Context(), args[0])
			return a.print(cmd, membershipView{
				UserID:      args[0],
				Tier:        tier,
				DisplayName: tier.DisplayName(),
				Price:       tier.Price(),
				Features:    a.gov.Features(cmd.Context(), args[0]),
			})
		}),
	}

	set := &cobra.Command{
		Use:   "set <user> <tier>",
		Short: "Store a user's membership tier",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tier, err := routegov.ParseTier(args[1])
			if err != nil {
				return err
			}
			if err := a.gov.SetMembership(cmd.Context(), args[0], tier); err != nil {
				return fmt.Errorf("set membership: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], tier.DisplayName())
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear <user>",
		Short: "Remove a user's stored membership",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.gov.ClearMembership(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("clear membership: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "membership of %s cleared\n", args[0])
			return nil
		}),
	}

	limits := &cobra.Command{
		Use:   "limits <tier>",
		Short: "Show a tier's limits and features",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tier, err := routegov.ParseTier(args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, a.gov.MembershipLimits(tier))
		}),
	}

	cmd.AddCommand(get, set, clearCmd, limits)
	return cmd
}

func newTestTierCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-tier",
		Short: "Force every user onto one tier",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active test tier",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			tier, ok := a.gov.TestTier()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no test tier set")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tier)
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set <tier>",
		Short: "Set the test tier",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tier, err := routegov.ParseTier(args[0])
			if err != nil {
				return err
			}
			if err := a.gov.SetTestTier(cmd.Context(), tier); err != nil {
				return fmt.Errorf("set test tier: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test tier set to %s\n", tier)
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the test tier",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.gov.ClearTestTier(cmd.Context()); err != nil {
				return fmt.Errorf("clear test tier: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "test tier cleared")
			return nil
		}),
	}

	cmd.AddCommand(show, set, clearCmd)
	return cmd
}

func newFeatureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Inspect features and manage global overrides",
	}

	check := &cobra.Command{
		Use:   "check <feature> [user]",
		Short: "Report whether a feature is enabled for a user",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			user := ""
			if len(args) == 2 {
				user = args[1]
			}
			enabled := a.gov.IsFeatureEnabled(cmd.Context(), routegov.Feature(args[0]), user)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], enabled)
			return nil
		}),
	}

	overrides := &cobra.Command{
		Use:   "overrides",
		Short: "List global feature overrides",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			list, err := a.gov.FeatureOverrides(cmd.Context())
			if err != nil {
				return fmt.Errorf("list overrides: %w", err)
			}
			return a.print(cmd, list)
		}),
	}

	override := &cobra.Command{
		Use:   "override <feature> <on|off>",
		Short: "Force a feature on or off for every user",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			enabled, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			if err := a.gov.SetFeatureOverride(cmd.Context(), routegov.Feature(args[0]), enabled); err != nil {
				return fmt.Errorf("set override: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s forced %s\n", args[0], args[1])
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear [feature]",
		Short: "Clear one override, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := a.gov.ClearFeatureOverrides(cmd.Context()); err != nil {
					return fmt.Errorf("clear overrides: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all overrides cleared")
				return nil
			}
			if err := a.gov.ClearFeatureOverride(cmd.Context(), routegov.Feature(args[0])); err != nil {
				return fmt.Errorf("clear override: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "override of %s cleared\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(check, overrides, override, clearCmd)
	return cmd
}
