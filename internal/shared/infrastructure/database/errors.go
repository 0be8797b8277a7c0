package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows is returned when a query expected to return a row returns none.
var ErrNoRows = errors.New("no rows in result set")

// ErrOptimisticLocking is returned when a versioned update matched no row,
// meaning another transaction modified the aggregate first. Callers retry
// the whole unit of work with freshly loaded state.
var ErrOptimisticLocking = errors.New("optimistic locking conflict")

// ErrNoTransaction is returned when Commit or Rollback runs on a context
// that never went through Begin.
var ErrNoTransaction = errors.New("no transaction in context")

// IsNoRows reports whether err means no rows were found, regardless of
// which driver produced it.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}
