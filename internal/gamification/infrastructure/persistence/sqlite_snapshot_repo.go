package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// SQLiteSnapshotRepository implements domain.SnapshotRepository using
// SQLite. Categories are stored as a JSON array in a TEXT column.
type SQLiteSnapshotRepository struct {
	conn database.Connection
}

// NewSQLiteSnapshotRepository creates a new SQLite snapshot repository.
func NewSQLiteSnapshotRepository(conn database.Connection) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{conn: conn}
}

// Save upserts the snapshot for a location. Last write wins.
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	query := `
		INSERT INTO profile_snapshots (
			location_id, business_name, primary_category, categories,
			has_phone, has_website, has_hours, has_description,
			photo_count, review_count, unreplied_reviews, average_rating,
			captured_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_id) DO UPDATE SET
			business_name = excluded.business_name,
			primary_category = excluded.primary_category,
			categories = excluded.categories,
			has_phone = excluded.has_phone,
			has_website = excluded.has_website,
			has_hours = excluded.has_hours,
			has_description = excluded.has_description,
			photo_count = excluded.photo_count,
			review_count = excluded.review_count,
			unreplied_reviews = excluded.unreplied_reviews,
			average_rating = excluded.average_rating,
			captured_at = excluded.captured_at,
			updated_at = excluded.updated_at
	`

	// A nil slice would serialize as JSON null rather than an empty array.
	categories := snapshot.Categories
	if categories == nil {
		categories = []string{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, query,
		snapshot.LocationID.String(),
		snapshot.BusinessName,
		snapshot.PrimaryCategory,
		string(categoriesJSON),
		boolToInt64(snapshot.HasPhone),
		boolToInt64(snapshot.HasWebsite),
		boolToInt64(snapshot.HasHours),
		boolToInt64(snapshot.HasDescription),
		snapshot.PhotoCount,
		snapshot.ReviewCount,
		snapshot.UnrepliedReviews,
		snapshot.AverageRating,
		formatTime(snapshot.CapturedAt),
		formatTime(time.Now()),
	)
	return err
}

// FindByLocation retrieves the stored snapshot for a location.
func (r *SQLiteSnapshotRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*domain.Snapshot, error) {
	query := `
		SELECT location_id, business_name, primary_category, categories,
		       has_phone, has_website, has_hours, has_description,
		       photo_count, review_count, unreplied_reviews, average_rating,
		       captured_at
		FROM profile_snapshots
		WHERE location_id = ?
	`

	var (
		locID          string
		businessName   string
		primary        string
		categoriesJSON string
		hasPhone       int64
		hasWebsite     int64
		hasHours       int64
		hasDescription int64
		photoCount     int
		reviewCount    int
		unreplied      int
		averageRating  float64
		capturedAt     string
	)

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, locationID.String()).Scan(
		&locID, &businessName, &primary, &categoriesJSON,
		&hasPhone, &hasWebsite, &hasHours, &hasDescription,
		&photoCount, &reviewCount, &unreplied, &averageRating,
		&capturedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	id, err := uuid.Parse(locID)
	if err != nil {
		return nil, fmt.Errorf("snapshot location id: %w", err)
	}
	var categories []string
	if err := json.Unmarshal([]byte(categoriesJSON), &categories); err != nil {
		return nil, fmt.Errorf("snapshot %s categories: %w", locID, err)
	}
	captured, err := parseTime(capturedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s captured_at: %w", locID, err)
	}

	return &domain.Snapshot{
		LocationID:       id,
		BusinessName:     businessName,
		PrimaryCategory:  primary,
		Categories:       categories,
		HasPhone:         hasPhone != 0,
		HasWebsite:       hasWebsite != 0,
		HasHours:         hasHours != 0,
		HasDescription:   hasDescription != 0,
		PhotoCount:       photoCount,
		ReviewCount:      reviewCount,
		UnrepliedReviews: unreplied,
		AverageRating:    averageRating,
		CapturedAt:       captured,
	}, nil
}
