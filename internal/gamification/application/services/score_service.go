package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
)

// ScoreService derives the three board sub-scores from the listing
// snapshot and the points ledger.
type ScoreService struct {
	ledger    domain.LedgerRepository
	snapshots domain.SnapshotRepository
	config    domain.ScoringConfig
}

// NewScoreService creates a score service. Zero fields in config fall
// back to the scoring defaults.
func NewScoreService(ledger domain.LedgerRepository, snapshots domain.SnapshotRepository, config domain.ScoringConfig) *ScoreService {
	return &ScoreService{
		ledger:    ledger,
		snapshots: snapshots,
		config:    config,
	}
}

// Scores computes the sub-scores for a location. A location that was
// never captured scores like an empty listing.
func (s *ScoreService) Scores(ctx context.Context, locationID uuid.UUID) (domain.Scores, error) {
	snapshot, err := s.snapshots.FindByLocation(ctx, locationID)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return domain.Scores{}, err
	}

	entries, err := s.ledger.FindByLocation(ctx, locationID)
	if err != nil {
		return domain.Scores{}, err
	}

	return domain.ComputeScores(snapshot, entries, s.config, time.Now()), nil
}
