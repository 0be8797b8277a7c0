package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/gamification/domain"
)

func centuryDefinition() domain.Definition {
	return domain.Definition{
		ID:          "points-100",
		Kind:        domain.KindMilestone,
		Title:       "Century",
		Description: "Earn 100 points",
		Condition:   domain.ConditionTotalPoints,
		Threshold:   100,
		Value:       100,
	}
}

func TestSQLiteUnlockRepository_SaveAndFind(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteUnlockRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	achievedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	unlock := domain.NewUnlock(locationID, centuryDefinition(), achievedAt)

	require.NoError(t, repo.Save(ctx, unlock))

	unlocks, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)

	loaded := unlocks[0]
	assert.Equal(t, unlock.ID(), loaded.ID())
	assert.Equal(t, locationID, loaded.LocationID())
	assert.Equal(t, domain.KindMilestone, loaded.Kind())
	assert.Equal(t, "points-100", loaded.DefinitionID())
	assert.Equal(t, "Century", loaded.Title())
	assert.Equal(t, "Earn 100 points", loaded.Description())
	assert.Equal(t, 100, loaded.Value())
	assert.Equal(t, achievedAt.Unix(), loaded.AchievedAt().Unix())
}

func TestSQLiteUnlockRepository_AlreadyUnlocked(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteUnlockRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	achievedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	first := domain.NewUnlock(locationID, centuryDefinition(), achievedAt)
	require.NoError(t, repo.Save(ctx, first))

	repeat := domain.NewUnlock(locationID, centuryDefinition(), achievedAt.Add(time.Hour))
	require.ErrorIs(t, repo.Save(ctx, repeat), domain.ErrAlreadyUnlocked)

	// Another location earning the same definition is a separate record.
	elsewhere := domain.NewUnlock(uuid.New(), centuryDefinition(), achievedAt)
	require.NoError(t, repo.Save(ctx, elsewhere))

	unlocks, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, first.ID(), unlocks[0].ID())
}

func TestSQLiteUnlockRepository_FindByLocationNewestFirst(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteUnlockRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	base := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	definitions := []domain.Definition{
		{ID: "first-task", Kind: domain.KindMilestone, Title: "First Steps", Condition: domain.ConditionTasksCompleted, Threshold: 1, Value: 1},
		{ID: "points-100", Kind: domain.KindMilestone, Title: "Century", Condition: domain.ConditionTotalPoints, Threshold: 100, Value: 100},
		{ID: "level-2", Kind: domain.KindAchievement, Title: "Moving Up", Condition: domain.ConditionLevel, Threshold: 2, Value: 2},
	}

	oldest := domain.NewUnlock(locationID, definitions[0], base.Add(-48*time.Hour))
	middle := domain.NewUnlock(locationID, definitions[1], base.Add(-24*time.Hour))
	newest := domain.NewUnlock(locationID, definitions[2], base)

	for _, unlock := range []*domain.Unlock{middle, oldest, newest} {
		require.NoError(t, repo.Save(ctx, unlock))
	}

	unlocks, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, unlocks, 3)
	assert.Equal(t, newest.ID(), unlocks[0].ID())
	assert.Equal(t, middle.ID(), unlocks[1].ID())
	assert.Equal(t, oldest.ID(), unlocks[2].ID())
}
