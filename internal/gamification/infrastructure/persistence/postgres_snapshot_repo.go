package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// PostgresSnapshotRepository implements domain.SnapshotRepository using
// PostgreSQL.
type PostgresSnapshotRepository struct {
	conn database.Connection
}

// NewPostgresSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewPostgresSnapshotRepository(conn database.Connection) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{conn: conn}
}

// Save upserts the snapshot for a location. Last write wins.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	query := `
		INSERT INTO profile_snapshots (
			location_id, business_name, primary_category, categories,
			has_phone, has_website, has_hours, has_description,
			photo_count, review_count, unreplied_reviews, average_rating,
			captured_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (location_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			primary_category = EXCLUDED.primary_category,
			categories = EXCLUDED.categories,
			has_phone = EXCLUDED.has_phone,
			has_website = EXCLUDED.has_website,
			has_hours = EXCLUDED.has_hours,
			has_description = EXCLUDED.has_description,
			photo_count = EXCLUDED.photo_count,
			review_count = EXCLUDED.review_count,
			unreplied_reviews = EXCLUDED.unreplied_reviews,
			average_rating = EXCLUDED.average_rating,
			captured_at = EXCLUDED.captured_at,
			updated_at = NOW()
	`

	// A nil slice would encode as NULL and the column is NOT NULL.
	categories := snapshot.Categories
	if categories == nil {
		categories = []string{}
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		snapshot.LocationID,
		snapshot.BusinessName,
		snapshot.PrimaryCategory,
		categories,
		snapshot.HasPhone,
		snapshot.HasWebsite,
		snapshot.HasHours,
		snapshot.HasDescription,
		snapshot.PhotoCount,
		snapshot.ReviewCount,
		snapshot.UnrepliedReviews,
		snapshot.AverageRating,
		snapshot.CapturedAt,
	)
	return err
}

// FindByLocation retrieves the stored snapshot for a location.
func (r *PostgresSnapshotRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*domain.Snapshot, error) {
	query := `
		SELECT location_id, business_name, primary_category, categories,
		       has_phone, has_website, has_hours, has_description,
		       photo_count, review_count, unreplied_reviews, average_rating,
		       captured_at
		FROM profile_snapshots
		WHERE location_id = $1
	`

	var snapshot domain.Snapshot

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, locationID).Scan(
		&snapshot.LocationID,
		&snapshot.BusinessName,
		&snapshot.PrimaryCategory,
		&snapshot.Categories,
		&snapshot.HasPhone,
		&snapshot.HasWebsite,
		&snapshot.HasHours,
		&snapshot.HasDescription,
		&snapshot.PhotoCount,
		&snapshot.ReviewCount,
		&snapshot.UnrepliedReviews,
		&snapshot.AverageRating,
		&snapshot.CapturedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	return &snapshot, nil
}
