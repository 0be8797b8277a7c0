package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

var scoreNow = time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

func scoreEntry(category string, awardedAt time.Time) *domain.Entry {
	return domain.RehydrateEntry(
		uuid.New(), uuid.New(), uuid.New(),
		"def-"+category, category,
		sharedDomain.CycleWeekOf(awardedAt), 10, awardedAt,
	)
}

func completeSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		LocationID:      uuid.New(),
		BusinessName:    "Blue Bottle Bakery",
		PrimaryCategory: "bakery",
		Categories:      []string{"bakery", "cafe"},
		HasPhone:        true,
		HasWebsite:      true,
		HasHours:        true,
		HasDescription:  true,
		PhotoCount:      12,
		ReviewCount:     40,
		AverageRating:   4.6,
		CapturedAt:      scoreNow,
	}
}

func TestComputeScores_CompleteProfile(t *testing.T) {
	s := domain.ComputeScores(completeSnapshot(), nil, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 100, s.Profile)
}

func TestComputeScores_EmptyProfile(t *testing.T) {
	s := domain.ComputeScores(&domain.Snapshot{}, nil, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 0, s.Profile)
}

func TestComputeScores_NilSnapshot(t *testing.T) {
	s := domain.ComputeScores(nil, nil, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 0, s.Profile)
	assert.Equal(t, 100, s.Engagement, "no reviews means nothing to respond to")
	assert.Equal(t, 0, s.Content)
}

func TestComputeScores_PartialProfile(t *testing.T) {
	// Missing phone (15), photo target (20) and category target (20)
	// leaves website, hours and description.
	snap := completeSnapshot()
	snap.HasPhone = false
	snap.PhotoCount = 2
	snap.Categories = []string{"bakery"}

	s := domain.ComputeScores(snap, nil, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 45, s.Profile)
}

func TestComputeScores_EngagementAgainstBacklog(t *testing.T) {
	snap := completeSnapshot()
	snap.UnrepliedReviews = 10

	entries := []*domain.Entry{
		scoreEntry("reviews", scoreNow.AddDate(0, 0, -1)),
		scoreEntry("reviews", scoreNow.AddDate(0, 0, -3)),
		scoreEntry("messaging", scoreNow.AddDate(0, 0, -5)),
		scoreEntry("reviews", scoreNow.AddDate(0, 0, -8)),
		scoreEntry("qa", scoreNow.AddDate(0, 0, -12)),
	}

	s := domain.ComputeScores(snap, entries, domain.DefaultScoringConfig(), scoreNow)

	// 5 engagement completions against a backlog of 10.
	assert.Equal(t, 50, s.Engagement)
}

func TestComputeScores_EngagementUsesBaseTargetWithoutBacklog(t *testing.T) {
	snap := completeSnapshot()
	snap.UnrepliedReviews = 0

	entries := []*domain.Entry{
		scoreEntry("reviews", scoreNow.AddDate(0, 0, -1)),
		scoreEntry("messaging", scoreNow.AddDate(0, 0, -2)),
	}

	s := domain.ComputeScores(snap, entries, domain.DefaultScoringConfig(), scoreNow)

	// 2 of the default target of 4.
	assert.Equal(t, 50, s.Engagement)
}

func TestComputeScores_EngagementBounded(t *testing.T) {
	snap := completeSnapshot()
	snap.UnrepliedReviews = 1

	var entries []*domain.Entry
	for i := 0; i < 20; i++ {
		entries = append(entries, scoreEntry("reviews", scoreNow.AddDate(0, 0, -i%10)))
	}

	s := domain.ComputeScores(snap, entries, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 100, s.Engagement)
}

func TestComputeScores_Content(t *testing.T) {
	entries := []*domain.Entry{
		scoreEntry("posts", scoreNow.AddDate(0, 0, -2)),
		scoreEntry("photos", scoreNow.AddDate(0, 0, -6)),
		scoreEntry("videos", scoreNow.AddDate(0, 0, -13)),
		scoreEntry("posts", scoreNow.AddDate(0, 0, -20)),
	}

	s := domain.ComputeScores(completeSnapshot(), entries, domain.DefaultScoringConfig(), scoreNow)

	// 4 of the default target of 8.
	assert.Equal(t, 50, s.Content)
}

func TestComputeScores_WindowExcludesOldCompletions(t *testing.T) {
	entries := []*domain.Entry{
		scoreEntry("posts", scoreNow.AddDate(0, 0, -2)),
		scoreEntry("posts", scoreNow.AddDate(0, 0, -45)),
		scoreEntry("posts", scoreNow.AddDate(0, 0, -90)),
	}

	s := domain.ComputeScores(completeSnapshot(), entries, domain.DefaultScoringConfig(), scoreNow)

	// Only the completion inside the 30 day window counts: 1 of 8.
	assert.Equal(t, 12, s.Content)
}

func TestComputeScores_UnknownCategoriesIgnored(t *testing.T) {
	entries := []*domain.Entry{
		scoreEntry("website", scoreNow.AddDate(0, 0, -1)),
		scoreEntry("attributes", scoreNow.AddDate(0, 0, -2)),
		scoreEntry("", scoreNow.AddDate(0, 0, -3)),
	}

	s := domain.ComputeScores(completeSnapshot(), entries, domain.DefaultScoringConfig(), scoreNow)

	assert.Equal(t, 0, s.Content)
	assert.Equal(t, 0, s.Engagement)
}

func TestComputeScores_ZeroConfigFallsBackToDefaults(t *testing.T) {
	s := domain.ComputeScores(completeSnapshot(), nil, domain.ScoringConfig{}, scoreNow)

	assert.Equal(t, 100, s.Profile)
}

func TestComputeScores_CustomWeights(t *testing.T) {
	cfg := domain.DefaultScoringConfig()
	cfg.Weights = domain.ProfileWeights{Phone: 1}

	snap := &domain.Snapshot{HasPhone: true, ReviewCount: 5}

	s := domain.ComputeScores(snap, nil, cfg, scoreNow)

	assert.Equal(t, 100, s.Profile)
}
