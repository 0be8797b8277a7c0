package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

func stateEntry(points int, awardedAt time.Time) *domain.Entry {
	return domain.RehydrateEntry(
		uuid.New(), uuid.New(), uuid.New(),
		"def", "reviews",
		sharedDomain.CycleWeekOf(awardedAt), points, awardedAt,
	)
}

func TestComputeGameState_Empty(t *testing.T) {
	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	state := domain.ComputeGameState(nil, domain.DefaultLevelStep, now)

	assert.Equal(t, 1, state.Level)
	assert.Equal(t, 0, state.TotalPoints)
	assert.Equal(t, 100, state.PointsForNextLevel)
	assert.Equal(t, 0, state.CurrentStreak)
	assert.Equal(t, 0, state.LongestStreak)
	assert.Equal(t, 0, state.TasksCompleted)
	assert.True(t, state.LastCompletionDate.IsZero())
}

func TestComputeGameState(t *testing.T) {
	// Saturday 2025-02-15 is in ISO week 2025-W07.
	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	entries := []*domain.Entry{
		stateEntry(50, time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)), // previous month
		stateEntry(40, time.Date(2025, 2, 8, 10, 0, 0, 0, time.UTC)),  // this month, week W06
		stateEntry(30, time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)), // this week
		stateEntry(30, time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)), // today
	}

	state := domain.ComputeGameState(entries, domain.DefaultLevelStep, now)

	assert.Equal(t, 150, state.TotalPoints)
	assert.Equal(t, 2, state.Level)
	assert.Equal(t, 25, state.ProgressToNextLevel)
	assert.Equal(t, 50, state.PointsInCurrentLevel)
	assert.Equal(t, 200, state.PointsForNextLevel)
	assert.Equal(t, 60, state.WeeklyPoints)
	assert.Equal(t, 100, state.MonthlyPoints)
	assert.Equal(t, 4, state.TasksCompleted)
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, 2, state.LongestStreak)
	assert.Equal(t, time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC), state.LastCompletionDate)
}

func TestComputeGameState_Deterministic(t *testing.T) {
	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	entries := []*domain.Entry{
		stateEntry(25, time.Date(2025, 2, 13, 9, 0, 0, 0, time.UTC)),
		stateEntry(25, time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)),
	}

	first := domain.ComputeGameState(entries, domain.DefaultLevelStep, now)
	second := domain.ComputeGameState(entries, domain.DefaultLevelStep, now)

	assert.Equal(t, first, second)
}
