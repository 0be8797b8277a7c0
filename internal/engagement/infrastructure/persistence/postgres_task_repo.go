// Package persistence provides the task and cycle repositories for the
// engagement context: PostgreSQL for server mode, SQLite for local mode and
// an in-memory implementation for tests.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/task"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// PostgresTaskRepository implements task.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	conn database.Connection
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(conn database.Connection) *PostgresTaskRepository {
	return &PostgresTaskRepository{conn: conn}
}

// taskRow represents a database row for tasks.
type taskRow struct {
	ID            uuid.UUID
	LocationID    uuid.UUID
	CycleWeek     string
	DefinitionID  string
	Title         string
	Description   string
	Category      string
	TaskType      string
	Impact        string
	Priority      string
	EstimatedTime string
	Points        int
	Status        string
	CompletedAt   *time.Time
	ExcludedAt    *time.Time
	ExcludeReason *string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Save persists a task with a versioned upsert. The definition columns are
// frozen at generation time, so the update branch only touches the lifecycle
// columns. A zero-row update means another transaction moved the version,
// reported as database.ErrOptimisticLocking.
func (r *PostgresTaskRepository) Save(ctx context.Context, t *task.Task) error {
	var excludeReason *string
	if t.ExcludeReason() != "" {
		reason := t.ExcludeReason()
		excludeReason = &reason
	}

	query := `
		INSERT INTO tasks (
			id, location_id, cycle_week, definition_id, title, description,
			category, task_type, impact, priority, estimated_time, points, status,
			completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			excluded_at = EXCLUDED.excluded_at,
			exclude_reason = EXCLUDED.exclude_reason,
			version = tasks.version + 1,
			updated_at = NOW()
		WHERE tasks.version = $17
		RETURNING version
	`

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		t.ID(),
		t.LocationID(),
		t.CycleWeek().String(),
		t.DefinitionID(),
		t.Title(),
		t.Description(),
		t.Category(),
		t.Type(),
		t.Impact(),
		t.Priority(),
		t.EstimatedTime(),
		t.Points(),
		t.Status().String(),
		t.CompletedAt(),
		t.ExcludedAt(),
		excludeReason,
		t.Version(),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&newVersion)

	if err != nil {
		if database.IsNoRows(err) {
			return database.ErrOptimisticLocking
		}
		return err
	}

	t.SetVersion(newVersion)
	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var row taskRow
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.LocationID,
		&row.CycleWeek,
		&row.DefinitionID,
		&row.Title,
		&row.Description,
		&row.Category,
		&row.TaskType,
		&row.Impact,
		&row.Priority,
		&row.EstimatedTime,
		&row.Points,
		&row.Status,
		&row.CompletedAt,
		&row.ExcludedAt,
		&row.ExcludeReason,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)

	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}

	return r.rowToTask(row)
}

// FindByLocationAndWeek retrieves the tasks generated for one cycle, most
// urgent priority first.
func (r *PostgresTaskRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = $1 AND cycle_week = $2
		ORDER BY
			CASE priority
				WHEN 'critical' THEN 1
				WHEN 'high' THEN 2
				WHEN 'medium' THEN 3
				WHEN 'low' THEN 4
				ELSE 5
			END,
			created_at,
			id
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID, week.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// FindCompletedSince retrieves tasks completed at or after the given
// instant, newest first.
func (r *PostgresTaskRepository) FindCompletedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = $1 AND status = 'completed' AND completed_at >= $2
		ORDER BY completed_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// FindExcludedSince retrieves tasks excluded at or after the given instant,
// newest first.
func (r *PostgresTaskRepository) FindExcludedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = $1 AND status = 'excluded' AND excluded_at >= $2
		ORDER BY excluded_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

func (r *PostgresTaskRepository) scanTasks(rows database.Rows) ([]*task.Task, error) {
	var tasks []*task.Task

	for rows.Next() {
		var row taskRow
		err := rows.Scan(
			&row.ID,
			&row.LocationID,
			&row.CycleWeek,
			&row.DefinitionID,
			&row.Title,
			&row.Description,
			&row.Category,
			&row.TaskType,
			&row.Impact,
			&row.Priority,
			&row.EstimatedTime,
			&row.Points,
			&row.Status,
			&row.CompletedAt,
			&row.ExcludedAt,
			&row.ExcludeReason,
			&row.Version,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		t, err := r.rowToTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *PostgresTaskRepository) rowToTask(row taskRow) (*task.Task, error) {
	status, err := task.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", row.ID, err)
	}

	week, err := sharedDomain.ParseCycleWeek(row.CycleWeek)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", row.ID, err)
	}

	var excludeReason string
	if row.ExcludeReason != nil {
		excludeReason = *row.ExcludeReason
	}

	return task.Rehydrate(
		row.ID,
		row.LocationID,
		week,
		task.Definition{
			DefinitionID:  row.DefinitionID,
			Title:         row.Title,
			Description:   row.Description,
			Category:      row.Category,
			Type:          row.TaskType,
			Impact:        row.Impact,
			Priority:      row.Priority,
			EstimatedTime: row.EstimatedTime,
			Points:        row.Points,
		},
		status,
		row.CompletedAt,
		row.ExcludedAt,
		excludeReason,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}
