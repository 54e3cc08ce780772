package main

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/app"
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/platform/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Fleet tracking database management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd())
	return root
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store == config.StoreMemory {
		return nil, nil, errors.New("dbtool needs STORE=postgres or STORE=sqlite")
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			conn, err := app.OpenDatabase(cfg, log)
			if err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return conn.Close()
		},
	}
}

func newSeedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate, then load demo routes from a JSON file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if path == "" {
				path = cfg.SeedPath
			}
			// Positions are not touched while seeding.
			cfg.PositionStore = config.PositionsSQL

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Seed(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("seed database: %w", err)
			}
			log.Info("Seeding complete", zap.Int("created", n), zap.String("path", path))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "seed file (defaults to SEED_PATH)")
	return cmd
}
