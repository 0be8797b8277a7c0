package database

import "context"

// Row is a single result row, abstracting pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set, abstracting pgx.Rows and *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result is the outcome of an Exec operation.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Executor runs queries against either driver. Repositories depend on this
// interface only, so the same repository code runs inside or outside a
// transaction.
type Executor interface {
	// Exec runs a statement that returns no rows (INSERT, UPDATE, DELETE).
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// QueryRow runs a query expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...any) Row

	// Query runs a query returning multiple rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor with commit/rollback.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a database handle that can open transactions.
type Connection interface {
	Executor
	// BeginTx starts a new transaction.
	BeginTx(ctx context.Context) (Transaction, error)
	// Close closes the database connection.
	Close() error
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Driver returns the driver type for this connection.
	Driver() Driver
}
