package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/task"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// SQLiteTaskRepository implements task.Repository using SQLite. UUIDs and
// timestamps are stored as TEXT; timestamps use RFC 3339 in UTC so string
// comparison matches chronological order.
type SQLiteTaskRepository struct {
	conn database.Connection
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(conn database.Connection) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{conn: conn}
}

// Save persists a task. SQLite has no single-statement conditional upsert,
// so Save tries a versioned update first and only inserts when the row does
// not exist yet. A version mismatch on an existing row is reported as
// database.ErrOptimisticLocking.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t *task.Task) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	update := `
		UPDATE tasks
		SET status = ?, completed_at = ?, excluded_at = ?, exclude_reason = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	result, err := exec.Exec(ctx, update,
		t.Status().String(),
		formatNullTime(t.CompletedAt()),
		formatNullTime(t.ExcludedAt()),
		nullString(t.ExcludeReason()),
		formatTime(time.Now()),
		t.ID().String(),
		t.Version(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		t.SetVersion(t.Version() + 1)
		return nil
	}

	var existing int
	err = exec.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, t.ID().String()).Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		return database.ErrOptimisticLocking
	}

	insert := `
		INSERT INTO tasks (
			id, location_id, cycle_week, definition_id, title, description,
			category, task_type, impact, priority, estimated_time, points, status,
			completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = exec.Exec(ctx, insert,
		t.ID().String(),
		t.LocationID().String(),
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
		formatNullTime(t.CompletedAt()),
		formatNullTime(t.ExcludedAt()),
		nullString(t.ExcludeReason()),
		t.Version(),
		formatTime(t.CreatedAt()),
		formatTime(t.UpdatedAt()),
	)
	return err
}

// FindByID retrieves a task by its ID.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks, err := r.scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, task.ErrTaskNotFound
	}
	return tasks[0], nil
}

// FindByLocationAndWeek retrieves the tasks generated for one cycle, most
// urgent priority first.
func (r *SQLiteTaskRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = ? AND cycle_week = ?
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
	rows, err := exec.Query(ctx, query, locationID.String(), week.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// FindCompletedSince retrieves tasks completed at or after the given
// instant, newest first.
func (r *SQLiteTaskRepository) FindCompletedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = ? AND status = 'completed' AND completed_at >= ?
		ORDER BY completed_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID.String(), formatTime(since))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// FindExcludedSince retrieves tasks excluded at or after the given instant,
// newest first.
func (r *SQLiteTaskRepository) FindExcludedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	query := `
		SELECT id, location_id, cycle_week, definition_id, title, description,
		       category, task_type, impact, priority, estimated_time, points, status,
		       completed_at, excluded_at, exclude_reason, version, created_at, updated_at
		FROM tasks
		WHERE location_id = ? AND status = 'excluded' AND excluded_at >= ?
		ORDER BY excluded_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID.String(), formatTime(since))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepository) scanTasks(rows database.Rows) ([]*task.Task, error) {
	var tasks []*task.Task

	for rows.Next() {
		var (
			id            string
			locationID    string
			cycleWeek     string
			definitionID  string
			title         string
			description   string
			category      string
			taskType      string
			impact        string
			priority      string
			estimatedTime string
			points        int
			status        string
			completedAt   sql.NullString
			excludedAt    sql.NullString
			excludeReason sql.NullString
			version       int
			createdAt     string
			updatedAt     string
		)

		err := rows.Scan(
			&id,
			&locationID,
			&cycleWeek,
			&definitionID,
			&title,
			&description,
			&category,
			&taskType,
			&impact,
			&priority,
			&estimatedTime,
			&points,
			&status,
			&completedAt,
			&excludedAt,
			&excludeReason,
			&version,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		taskID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		locID, err := uuid.Parse(locationID)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		parsedStatus, err := task.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		week, err := sharedDomain.ParseCycleWeek(cycleWeek)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}

		tasks = append(tasks, task.Rehydrate(
			taskID,
			locID,
			week,
			task.Definition{
				DefinitionID:  definitionID,
				Title:         title,
				Description:   description,
				Category:      category,
				Type:          taskType,
				Impact:        impact,
				Priority:      priority,
				EstimatedTime: estimatedTime,
				Points:        points,
			},
			parsedStatus,
			parseNullTime(completedAt),
			parseNullTime(excludedAt),
			excludeReason.String,
			version,
			parseTime(createdAt),
			parseTime(updatedAt),
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
