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

func TestInMemoryUnlockRepository_AlreadyUnlocked(t *testing.T) {
	repo := NewInMemoryUnlockRepository()
	ctx := context.Background()

	locationID := uuid.New()
	achievedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	first := domain.NewUnlock(locationID, centuryDefinition(), achievedAt)
	require.NoError(t, repo.Save(ctx, first))

	repeat := domain.NewUnlock(locationID, centuryDefinition(), achievedAt.Add(time.Hour))
	require.ErrorIs(t, repo.Save(ctx, repeat), domain.ErrAlreadyUnlocked)

	elsewhere := domain.NewUnlock(uuid.New(), centuryDefinition(), achievedAt)
	require.NoError(t, repo.Save(ctx, elsewhere))

	unlocks, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, first.ID(), unlocks[0].ID())
	assert.Equal(t, "Century", unlocks[0].Title())
}

func TestInMemoryUnlockRepository_FindByLocationNewestFirst(t *testing.T) {
	repo := NewInMemoryUnlockRepository()
	ctx := context.Background()

	locationID := uuid.New()
	base := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	oldest := domain.NewUnlock(locationID, domain.Definition{ID: "first-task", Kind: domain.KindMilestone, Title: "First Steps", Value: 1}, base.Add(-48*time.Hour))
	newest := domain.NewUnlock(locationID, domain.Definition{ID: "level-2", Kind: domain.KindAchievement, Title: "Moving Up", Value: 2}, base)
	middle := domain.NewUnlock(locationID, domain.Definition{ID: "points-100", Kind: domain.KindMilestone, Title: "Century", Value: 100}, base.Add(-24*time.Hour))

	for _, unlock := range []*domain.Unlock{oldest, newest, middle} {
		require.NoError(t, repo.Save(ctx, unlock))
	}

	unlocks, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, unlocks, 3)
	assert.Equal(t, newest.ID(), unlocks[0].ID())
	assert.Equal(t, middle.ID(), unlocks[1].ID())
	assert.Equal(t, oldest.ID(), unlocks[2].ID())
}
