// Package sqlite adapts database/sql with the modernc driver to the
// database interfaces. Importing it registers the SQLite connection factory.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/localift/engage/internal/shared/infrastructure/database"
)

func init() {
	database.RegisterSQLiteDriver(NewConnection)
}

// dsnPragmas goes on every DSN: WAL for concurrent readers, foreign keys
// on, a busy timeout so writers wait on the lock instead of failing, and
// synchronous=NORMAL as the WAL-safe durability level.
const dsnPragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// querier is the query surface shared by sql.DB and sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor implements database.Executor over any querier, so the handle
// and its transactions share one delegation path.
type executor struct {
	q querier
}

// Exec runs a statement that returns no rows.
func (e executor) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	result, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{result: result}, nil
}

// QueryRow runs a query expected to return at most one row.
func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRowContext(ctx, query, args...)
}

// Query runs a query returning multiple rows.
func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows: rows}, nil
}

// Connection wraps sql.DB to implement database.Connection for SQLite.
type Connection struct {
	executor
	db *sql.DB
}

// NewConnection opens a SQLite database, creating the file and its parent
// directory when missing.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}

	if err := database.EnsureDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &Connection{executor: executor{q: db}, db: db}, nil
}

// dsn appends the connection pragmas to a database path.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + dsnPragmas
}

// DB returns the underlying sql.DB. The migration runner works on the raw
// handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Driver returns the driver type.
func (c *Connection) Driver() database.Driver {
	return database.DriverSQLite
}

// Close closes the database connection.
func (c *Connection) Close() error {
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// BeginTx starts a new transaction.
func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Transaction{executor: executor{q: tx}, tx: tx}, nil
}

// Transaction wraps sql.Tx to implement database.Transaction. The context
// parameters on Commit and Rollback satisfy the interface; database/sql
// finishes transactions without one.
type Transaction struct {
	executor
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Transaction) Commit(context.Context) error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Transaction) Rollback(context.Context) error {
	return t.tx.Rollback()
}

// sqlResult adapts sql.Result to database.Result.
type sqlResult struct {
	result sql.Result
}

func (r sqlResult) RowsAffected() (int64, error) { return r.result.RowsAffected() }

func (r sqlResult) LastInsertId() (int64, error) { return r.result.LastInsertId() }

// sqlRows adapts sql.Rows to database.Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool { return r.rows.Next() }

func (r sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }

func (r sqlRows) Close() error { return r.rows.Close() }

func (r sqlRows) Err() error { return r.rows.Err() }
