package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"pms/internal/app/server"
	"pms/internal/platform/config"
	"pms/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:           "pmsctl",
	Short:         "Performance management service and maintenance tasks",
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, clearGoalsCmd, activateCyclesCmd, markOverdueCmd, purgeDataCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer cancel()
		return server.Run(ctx)
	},
}

// connect loads config and opens the pool without running startup
// migrations; each command decides what it needs.
func connect(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg := config.Load()
	server.SetupLogging(cfg)
	if cfg.DatabaseURL == "" {
		return cfg, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, pool, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
