package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// SQLiteUnlockRepository implements domain.UnlockRepository using SQLite.
type SQLiteUnlockRepository struct {
	conn database.Connection
}

// NewSQLiteUnlockRepository creates a new SQLite unlock repository.
func NewSQLiteUnlockRepository(conn database.Connection) *SQLiteUnlockRepository {
	return &SQLiteUnlockRepository{conn: conn}
}

// Save stores an unlock record. Unlocks are create-once per location and
// definition; a second save for the same pair is rejected with
// domain.ErrAlreadyUnlocked.
func (r *SQLiteUnlockRepository) Save(ctx context.Context, unlock *domain.Unlock) error {
	query := `
		INSERT INTO unlocks (
			id, location_id, kind, definition_id, title, description, value,
			achieved_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id, definition_id) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		unlock.ID().String(),
		unlock.LocationID().String(),
		string(unlock.Kind()),
		unlock.DefinitionID(),
		unlock.Title(),
		unlock.Description(),
		unlock.Value(),
		formatTime(unlock.AchievedAt()),
		formatTime(unlock.CreatedAt()),
		formatTime(unlock.UpdatedAt()),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyUnlocked
	}
	return nil
}

// FindByLocation retrieves all unlocks for a location, newest first.
func (r *SQLiteUnlockRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Unlock, error) {
	query := `
		SELECT id, location_id, kind, definition_id, title, description, value,
		       achieved_at, created_at, updated_at
		FROM unlocks
		WHERE location_id = ?
		ORDER BY achieved_at DESC, id
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var unlocks []*domain.Unlock
	for rows.Next() {
		var (
			id           string
			locID        string
			kind         string
			definitionID string
			title        string
			description  string
			value        int
			achievedAt   string
			createdAt    string
			updatedAt    string
		)

		err := rows.Scan(&id, &locID, &kind, &definitionID, &title, &description, &value, &achievedAt, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		unlock, err := rehydrateUnlock(id, locID, kind, definitionID, title, description, value, achievedAt, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return unlocks, nil
}

func rehydrateUnlock(id, locID, kind, definitionID, title, description string, value int, achievedAt, createdAt, updatedAt string) (*domain.Unlock, error) {
	unlockID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("unlock id: %w", err)
	}
	locationID, err := uuid.Parse(locID)
	if err != nil {
		return nil, fmt.Errorf("unlock %s location id: %w", id, err)
	}
	achieved, err := parseTime(achievedAt)
	if err != nil {
		return nil, fmt.Errorf("unlock %s achieved_at: %w", id, err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("unlock %s created_at: %w", id, err)
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("unlock %s updated_at: %w", id, err)
	}

	return domain.RehydrateUnlock(
		unlockID, locationID, domain.Kind(kind), definitionID, title, description, value,
		achieved, created, updated,
	), nil
}
