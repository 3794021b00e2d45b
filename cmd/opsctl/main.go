// Command opsctl runs operator tasks against a ReelMarket deployment.
package main

import (
	"context"
	"fmt"
	"os"

	"ReelMarket/config"
	"ReelMarket/internal/api"
	"ReelMarket/pkg/logger"
	"ReelMarket/pkg/postgres"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operator tasks for the ReelMarket order engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(retryRefundsCmd())
	root.AddCommand(issueTokenCmd())
	root.AddCommand(reelStatsCmd())

	return root
}

// withServices loads the full configuration and hands fn the wired services.
func withServices(ctx context.Context, fn func(ctx context.Context, s *api.Services) error) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(logger.Options{Level: cfg.LogLevel, Console: true, Service: "opsctl", Output: os.Stderr})

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(2))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	services, err := api.BuildServices(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer services.Close()

	return fn(ctx, services)
}
