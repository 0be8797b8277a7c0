// Package persistence provides the gamification repositories: the points
// ledger, unlock records and profile snapshots, backed by PostgreSQL,
// SQLite or an in-memory implementation for tests.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// PostgresLedgerRepository implements domain.LedgerRepository using
// PostgreSQL.
type PostgresLedgerRepository struct {
	conn database.Connection
}

// NewPostgresLedgerRepository creates a new PostgreSQL ledger repository.
func NewPostgresLedgerRepository(conn database.Connection) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{conn: conn}
}

// Append stores one points award. The ledger holds at most one entry per
// task; a second award for the same task is rejected with
// domain.ErrDuplicateTaskAward without touching the stored entry.
func (r *PostgresLedgerRepository) Append(ctx context.Context, entry *domain.Entry) error {
	query := `
		INSERT INTO points_ledger (
			id, location_id, task_id, definition_id, category, cycle_week, points, awarded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (task_id) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		entry.ID(),
		entry.LocationID(),
		entry.TaskID(),
		entry.DefinitionID(),
		entry.Category(),
		entry.CycleWeek().String(),
		entry.Points(),
		entry.AwardedAt(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDuplicateTaskAward
	}
	return nil
}

// FindByLocation retrieves all ledger entries for a location, oldest first.
func (r *PostgresLedgerRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Entry, error) {
	query := `
		SELECT id, location_id, task_id, definition_id, category, cycle_week, points, awarded_at
		FROM points_ledger
		WHERE location_id = $1
		ORDER BY awarded_at, id
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			id           uuid.UUID
			locID        uuid.UUID
			taskID       uuid.UUID
			definitionID string
			category     string
			cycleWeek    string
			points       int
			awardedAt    time.Time
		)

		err := rows.Scan(&id, &locID, &taskID, &definitionID, &category, &cycleWeek, &points, &awardedAt)
		if err != nil {
			return nil, err
		}

		week, err := sharedDomain.ParseCycleWeek(cycleWeek)
		if err != nil {
			return nil, fmt.Errorf("ledger entry %s: %w", id, err)
		}

		entries = append(entries, domain.RehydrateEntry(id, locID, taskID, definitionID, category, week, points, awardedAt))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
