package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LavishGent/routegov/pkg/routegov"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type usageView struct {
	Today          routegov.TodayUsage `json:"today"`
	DailyQuota     int                 `json:"dailyQuota"`
	QuotaRemaining int                 `json:"quotaRemaining"`
	User           *userUsageView      `json:"user,omitempty"`
}

type userUsageView struct {
	routegov.UserUsage
	RouteLimit routegov.LimitCheck `json:"routeLimit"`
}

func newUsageCmd(a *app) *cobra.Command {
	var (
		user  string
		reset bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show today's provider usage and, with --user, a user's monthly usage",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if list {
				return a.print(cmd, a.gov.UsageRecords())
			}

			stats := a.gov.UsageStats()
			view := usageView{
				Today:          stats.Today,
				DailyQuota:     stats.DailyQuota,
				QuotaRemaining: stats.Remaining,
			}
			if user != "" {
				usage := a.gov.Usage(ctx, user)
				if reset {
					usage = a.gov.ResetMonthlyLimits(ctx, user)
				}
				view.User = &userUsageView{
					UserUsage:  usage,
					RouteLimit: a.gov.CheckUsageLimit(ctx, user, routegov.LimitRouteCalculations, usage.RouteCalculations),
				}
			}
			return a.print(cmd, view)
		}),
	}

	cmd.Flags().StringVar(&user, "user", "", "include the monthly usage of this user")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset the user's monthly route calculations first")
	cmd.Flags().BoolVar(&list, "records", false, "print the raw ledger records instead")
	return cmd
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the response cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd, a.gov.CacheStats())
		}),
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Drop expired responses",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", a.gov.PruneCache())
			return nil
		}),
	}

	cmd.AddCommand(stats, prune)
	return cmd
}

type healthView struct {
	*routegov.HealthMetrics
	Status  string                   `json:"status"`
	Metrics routegov.MetricsSnapshot `json:"metrics"`
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report governor health",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			h := a.gov.Health()
			return a.print(cmd, healthView{
				HealthMetrics: h,
				Status:        h.Status.String(),
				Metrics:       a.gov.Metrics(),
			})
		}),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the routegov version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "routegov version %s\n", Version)
		},
	}
}
