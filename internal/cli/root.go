// Package cli implements the routegov command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/pkg/routegov"
)

// app carries state shared by every command of one invocation.
type app struct {
	cfgFile  string
	output   string
	logLevel string

	opts []routegov.Option
	cfg  *config.Config
	gov  *routegov.Governor
}

// NewRootCmd builds the command tree. opts are passed to every Governor
// the commands create.
func NewRootCmd(opts ...routegov.Option) *cobra.Command {
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "routegov",
		Short: "Inspect and drive the routing API usage governor",
		Long: `routegov answers route and geocode requests through the usage governor
and manages the state it keeps: memberships, the test tier, feature
overrides, monthly usage and the daily provider quota.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file, JSON or YAML (default: built-in defaults)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json, yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level: debug, info, warn, error")

	root.AddCommand(
		newRouteCmd(a),
		newEstimateCmd(a),
		newGeocodeCmd(a),
		newUsageCmd(a),
		newTierCmd(a),
		newTestTierCmd(a),
		newFeatureCmd(a),
		newCacheCmd(a),
		newHealthCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.LoadWithEnv(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	opts := append([]routegov.Option{routegov.WithSlogLogger(logger)}, a.opts...)
	a.gov, err = routegov.NewFromConfig(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to start governor: %w", err)
	}
	return nil
}

// run wraps a command body with a governor that lives for the
// duration of the command.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return err
		}
		err := fn(cmd, args)
		return errors.Join(err, a.close())
	}
}

func (a *app) close() error {
	if a.gov == nil {
		return nil
	}
	err := a.gov.Close()
	a.gov = nil
	return err
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
