// Package migrations embeds the engage schema and applies it at startup.
// Every statement is idempotent (CREATE ... IF NOT EXISTS), so running the
// migrations repeatedly is safe in both local and server mode.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return apply(ctx, db, sqliteFS, "sqlite")
}

// apply runs every *.up.sql file under dir against db. Glob returns paths
// in lexical order, which is the migration order by naming convention.
func apply(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, dir+"/*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, file := range files {
		migration, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}
