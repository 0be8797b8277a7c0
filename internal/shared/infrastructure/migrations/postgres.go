package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver for the migration runner
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunPostgresMigrations connects with the database/sql pq driver and executes
// all PostgreSQL migrations in order. The application itself talks to
// PostgreSQL through pgx; migrations only need a short-lived plain connection.
func RunPostgresMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return apply(ctx, db, postgresFS, "postgres")
}
