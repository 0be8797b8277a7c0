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

// SQLiteLedgerRepository implements domain.LedgerRepository using SQLite.
type SQLiteLedgerRepository struct {
	conn database.Connection
}

// NewSQLiteLedgerRepository creates a new SQLite ledger repository.
func NewSQLiteLedgerRepository(conn database.Connection) *SQLiteLedgerRepository {
	return &SQLiteLedgerRepository{conn: conn}
}

// Append stores one points award. The task_id unique constraint makes the
// ledger hold at most one entry per task; a second award is rejected with
// domain.ErrDuplicateTaskAward.
func (r *SQLiteLedgerRepository) Append(ctx context.Context, entry *domain.Entry) error {
	query := `
		INSERT INTO points_ledger (
			id, location_id, task_id, definition_id, category, cycle_week, points, awarded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		entry.ID().String(),
		entry.LocationID().String(),
		entry.TaskID().String(),
		entry.DefinitionID(),
		entry.Category(),
		entry.CycleWeek().String(),
		entry.Points(),
		formatTime(entry.AwardedAt()),
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
func (r *SQLiteLedgerRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Entry, error) {
	query := `
		SELECT id, location_id, task_id, definition_id, category, cycle_week, points, awarded_at
		FROM points_ledger
		WHERE location_id = ?
		ORDER BY awarded_at, id
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			id           string
			locID        string
			taskID       string
			definitionID string
			category     string
			cycleWeek    string
			points       int
			awardedAt    string
		)

		err := rows.Scan(&id, &locID, &taskID, &definitionID, &category, &cycleWeek, &points, &awardedAt)
		if err != nil {
			return nil, err
		}

		entry, err := rehydrateLedgerEntry(id, locID, taskID, definitionID, category, cycleWeek, points, awardedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func rehydrateLedgerEntry(id, locID, taskID, definitionID, category, cycleWeek string, points int, awardedAt string) (*domain.Entry, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("ledger entry id: %w", err)
	}
	locationID, err := uuid.Parse(locID)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %s location id: %w", id, err)
	}
	tID, err := uuid.Parse(taskID)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %s task id: %w", id, err)
	}
	week, err := sharedDomain.ParseCycleWeek(cycleWeek)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %s: %w", id, err)
	}
	awarded, err := parseTime(awardedAt)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %s awarded_at: %w", id, err)
	}

	return domain.RehydrateEntry(entryID, locationID, tID, definitionID, category, week, points, awarded), nil
}

// formatTime renders a timestamp as RFC 3339 UTC, the TEXT representation
// used across the SQLite schema.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
