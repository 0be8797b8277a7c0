package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/shared/infrastructure/migrations"
	"github.com/localift/engage/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending schema migrations to the configured database.

SQLite databases are migrated automatically on open; this command is
for Postgres deployments where migrations run as a release step.

Examples:
  engage migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.IsSQLite() {
			fmt.Println("SQLite schema is migrated automatically on startup. Nothing to do.")
			return nil
		}

		if err := migrations.RunPostgresMigrations(cmd.Context(), cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("Migrations applied.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
