package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// PostgresUnlockRepository implements domain.UnlockRepository using
// PostgreSQL.
type PostgresUnlockRepository struct {
	conn database.Connection
}

// NewPostgresUnlockRepository creates a new PostgreSQL unlock repository.
func NewPostgresUnlockRepository(conn database.Connection) *PostgresUnlockRepository {
	return &PostgresUnlockRepository{conn: conn}
}

// Save stores an unlock record. Unlocks are create-once per location and
// definition; a second save for the same pair is rejected with
// domain.ErrAlreadyUnlocked.
func (r *PostgresUnlockRepository) Save(ctx context.Context, unlock *domain.Unlock) error {
	query := `
		INSERT INTO unlocks (
			id, location_id, kind, definition_id, title, description, value,
			achieved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (location_id, definition_id) DO NOTHING
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		unlock.ID(),
		unlock.LocationID(),
		string(unlock.Kind()),
		unlock.DefinitionID(),
		unlock.Title(),
		unlock.Description(),
		unlock.Value(),
		unlock.AchievedAt(),
		unlock.CreatedAt(),
		unlock.UpdatedAt(),
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
func (r *PostgresUnlockRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Unlock, error) {
	query := `
		SELECT id, location_id, kind, definition_id, title, description, value,
		       achieved_at, created_at, updated_at
		FROM unlocks
		WHERE location_id = $1
		ORDER BY achieved_at DESC, id
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var unlocks []*domain.Unlock
	for rows.Next() {
		var (
			id           uuid.UUID
			locID        uuid.UUID
			kind         string
			definitionID string
			title        string
			description  string
			value        int
			achievedAt   time.Time
			createdAt    time.Time
			updatedAt    time.Time
		)

		err := rows.Scan(&id, &locID, &kind, &definitionID, &title, &description, &value, &achievedAt, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		unlocks = append(unlocks, domain.RehydrateUnlock(
			id, locID, domain.Kind(kind), definitionID, title, description, value,
			achievedAt, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return unlocks, nil
}
