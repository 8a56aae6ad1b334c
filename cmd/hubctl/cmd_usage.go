package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hub-backend/internal/bootstrap"
	"hub-backend/internal/shared/config"
	"hub-backend/internal/shared/telemetry"
	"hub-backend/internal/usage"
)

var (
	loadConfig = config.Load
	openMeter  = openConfiguredMeter
)

func openConfiguredMeter(ctx context.Context, cfg config.Config) (*usage.Meter, func(), error) {
	if cfg.UsageStore == "memory" {
		telemetry.Warn("hubctl.memory_store", map[string]any{"hint": "set USAGE_STORE or DATABASE_URL; memory records vanish on exit"})
	}
	app, err := bootstrap.BuildUsage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Meter, app.Close, nil
}

type usageOptions struct {
	userID string
	output string
}

func newUsageCommand() *cobra.Command {
	opts := &usageOptions{}
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect or adjust a user's usage record",
		Long: `Inspect or adjust a user's usage record in the store selected by
USAGE_STORE (memory, postgres, redis).`,
	}
	cmd.PersistentFlags().StringVar(&opts.userID, "user", "", "User id (guest ids use the guest: prefix)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format (json, yaml)")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show tier, period and remaining quota",
		Args:  cobra.NoArgs,
		RunE: withMeter(opts, func(ctx context.Context, m *usage.Meter, args []string) (any, error) {
			return m.Status(ctx, opts.userID)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <agent>",
		Short: "Report whether the user may run an agent, without consuming",
		Args:  cobra.ExactArgs(1),
		RunE: withMeter(opts, func(ctx context.Context, m *usage.Meter, args []string) (any, error) {
			return m.Check(ctx, opts.userID, args[0])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "consume <agent>",
		Short: "Consume one unit of the user's quota for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: withMeter(opts, func(ctx context.Context, m *usage.Meter, args []string) (any, error) {
			return m.TryConsume(ctx, opts.userID, args[0])
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Zero the user's counts and start a new period",
		Args:  cobra.NoArgs,
		RunE: withMeter(opts, func(ctx context.Context, m *usage.Meter, args []string) (any, error) {
			return m.Reset(ctx, opts.userID)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-tier <tier>",
		Short: "Move the user to another tier",
		Args:  cobra.ExactArgs(1),
		RunE: withMeter(opts, func(ctx context.Context, m *usage.Meter, args []string) (any, error) {
			return m.ChangeTier(ctx, opts.userID, args[0])
		}),
	})

	return cmd
}

type meterAction func(ctx context.Context, m *usage.Meter, args []string) (any, error)

func withMeter(opts *usageOptions, action meterAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(opts.userID) == "" {
			return fmt.Errorf("%w: --user is required", errBadUsage)
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		meter, closeFn, err := openMeter(ctx, loadConfig())
		if err != nil {
			return err
		}
		defer closeFn()

		out, err := action(ctx, meter, args)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), opts.output, out)
	}
}
