package main

import (
	"fmt"

	"ReelMarket/internal/api"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

type migrateConfig struct {
	PgURL string `env:"PG_URL,required"`
}

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the embedded goose migrations to PG_URL.

Examples:
  opsctl migrate
  opsctl migrate --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.ParseAs[migrateConfig]()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if status {
				return api.MigrationStatus(cfg.PgURL, api.MigrationFS)
			}
			if err := api.ApplyMigrations(cfg.PgURL, api.MigrationFS); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print migration status instead of applying")
	return cmd
}
