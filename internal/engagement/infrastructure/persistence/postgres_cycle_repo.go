package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/cycle"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// PostgresCycleRepository implements cycle.Repository using PostgreSQL.
type PostgresCycleRepository struct {
	conn database.Connection
}

// NewPostgresCycleRepository creates a new PostgreSQL cycle repository.
func NewPostgresCycleRepository(conn database.Connection) *PostgresCycleRepository {
	return &PostgresCycleRepository{conn: conn}
}

// cycleRow represents a database row for cycle records.
type cycleRow struct {
	ID          uuid.UUID
	LocationID  uuid.UUID
	CycleWeek   string
	RefreshedAt time.Time
	NextRefresh time.Time
	TaskCount   int
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Save inserts the record for a completed refresh. Records are immutable,
// so an existing row for the same location and week means a concurrent
// refresh won the race, reported as database.ErrOptimisticLocking.
func (r *PostgresCycleRepository) Save(ctx context.Context, record *cycle.Record) error {
	query := `
		INSERT INTO cycle_records (
			id, location_id, cycle_week, refreshed_at, next_refresh,
			task_count, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (location_id, cycle_week) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		record.ID(),
		record.LocationID(),
		record.Week().String(),
		record.RefreshedAt(),
		record.NextRefresh(),
		record.TaskCount(),
		record.Version(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return database.ErrOptimisticLocking
	}
	return nil
}

// FindLatest retrieves the most recent cycle record for a location.
func (r *PostgresCycleRepository) FindLatest(ctx context.Context, locationID uuid.UUID) (*cycle.Record, error) {
	query := `
		SELECT id, location_id, cycle_week, refreshed_at, next_refresh,
		       task_count, version, created_at, updated_at
		FROM cycle_records
		WHERE location_id = $1
		ORDER BY refreshed_at DESC
		LIMIT 1
	`
	return r.queryRecord(ctx, query, locationID)
}

// FindByLocationAndWeek retrieves the cycle record for a specific week.
func (r *PostgresCycleRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) (*cycle.Record, error) {
	query := `
		SELECT id, location_id, cycle_week, refreshed_at, next_refresh,
		       task_count, version, created_at, updated_at
		FROM cycle_records
		WHERE location_id = $1 AND cycle_week = $2
	`
	return r.queryRecord(ctx, query, locationID, week.String())
}

func (r *PostgresCycleRepository) queryRecord(ctx context.Context, query string, args ...any) (*cycle.Record, error) {
	var row cycleRow
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, args...).Scan(
		&row.ID,
		&row.LocationID,
		&row.CycleWeek,
		&row.RefreshedAt,
		&row.NextRefresh,
		&row.TaskCount,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)

	if err != nil {
		if database.IsNoRows(err) {
			return nil, cycle.ErrRecordNotFound
		}
		return nil, err
	}

	week, err := sharedDomain.ParseCycleWeek(row.CycleWeek)
	if err != nil {
		return nil, fmt.Errorf("cycle record %s: %w", row.ID, err)
	}

	return cycle.Rehydrate(
		row.ID,
		row.LocationID,
		week,
		row.RefreshedAt,
		row.NextRefresh,
		row.TaskCount,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}
