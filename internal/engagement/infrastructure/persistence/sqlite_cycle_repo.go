package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/cycle"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// SQLiteCycleRepository implements cycle.Repository using SQLite.
type SQLiteCycleRepository struct {
	conn database.Connection
}

// NewSQLiteCycleRepository creates a new SQLite cycle repository.
func NewSQLiteCycleRepository(conn database.Connection) *SQLiteCycleRepository {
	return &SQLiteCycleRepository{conn: conn}
}

// Save inserts the record for a completed refresh. Records are immutable,
// so an existing row for the same location and week means a concurrent
// refresh won the race, reported as database.ErrOptimisticLocking.
func (r *SQLiteCycleRepository) Save(ctx context.Context, record *cycle.Record) error {
	query := `
		INSERT INTO cycle_records (
			id, location_id, cycle_week, refreshed_at, next_refresh,
			task_count, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id, cycle_week) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		record.ID().String(),
		record.LocationID().String(),
		record.Week().String(),
		formatTime(record.RefreshedAt()),
		formatTime(record.NextRefresh()),
		record.TaskCount(),
		record.Version(),
		formatTime(record.CreatedAt()),
		formatTime(record.UpdatedAt()),
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
func (r *SQLiteCycleRepository) FindLatest(ctx context.Context, locationID uuid.UUID) (*cycle.Record, error) {
	query := `
		SELECT id, location_id, cycle_week, refreshed_at, next_refresh,
		       task_count, version, created_at, updated_at
		FROM cycle_records
		WHERE location_id = ?
		ORDER BY refreshed_at DESC
		LIMIT 1
	`
	return r.queryRecord(ctx, query, locationID.String())
}

// FindByLocationAndWeek retrieves the cycle record for a specific week.
func (r *SQLiteCycleRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) (*cycle.Record, error) {
	query := `
		SELECT id, location_id, cycle_week, refreshed_at, next_refresh,
		       task_count, version, created_at, updated_at
		FROM cycle_records
		WHERE location_id = ? AND cycle_week = ?
	`
	return r.queryRecord(ctx, query, locationID.String(), week.String())
}

func (r *SQLiteCycleRepository) queryRecord(ctx context.Context, query string, args ...any) (*cycle.Record, error) {
	var (
		id          string
		locationID  string
		cycleWeek   string
		refreshedAt string
		nextRefresh string
		taskCount   int
		version     int
		createdAt   string
		updatedAt   string
	)

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, args...).Scan(
		&id,
		&locationID,
		&cycleWeek,
		&refreshedAt,
		&nextRefresh,
		&taskCount,
		&version,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if database.IsNoRows(err) {
			return nil, cycle.ErrRecordNotFound
		}
		return nil, err
	}

	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("cycle record %s: %w", id, err)
	}
	locID, err := uuid.Parse(locationID)
	if err != nil {
		return nil, fmt.Errorf("cycle record %s: %w", id, err)
	}
	week, err := sharedDomain.ParseCycleWeek(cycleWeek)
	if err != nil {
		return nil, fmt.Errorf("cycle record %s: %w", id, err)
	}

	return cycle.Rehydrate(
		recordID,
		locID,
		week,
		parseTime(refreshedAt),
		parseTime(nextRefresh),
		taskCount,
		version,
		parseTime(createdAt),
		parseTime(updatedAt),
	), nil
}
