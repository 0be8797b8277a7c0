package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/engagement/domain/task"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	"github.com/localift/engage/internal/shared/infrastructure/database/sqlite"
	"github.com/localift/engage/internal/shared/infrastructure/migrations"
)

// setupSQLiteDB opens a throwaway SQLite database with the schema applied.
func setupSQLiteDB(t *testing.T) database.Connection {
	t.Helper()

	cfg := database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "engage.db"),
	}

	conn, err := sqlite.NewConnection(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sqliteConn, ok := conn.(*sqlite.Connection)
	require.True(t, ok)
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqliteConn.DB()))

	return conn
}

func testDefinition(definitionID, priority string, points int) task.Definition {
	return task.Definition{
		DefinitionID:  definitionID,
		Title:         "Upload business photos",
		Description:   "Listings with photos get more clicks.",
		Category:      "photos",
		Type:          "content",
		Impact:        "medium",
		Priority:      priority,
		EstimatedTime: "15 min",
		Points:        points,
	}
}

func newTestTask(t *testing.T, locationID uuid.UUID, definitionID, priority string) *task.Task {
	t.Helper()

	tsk, err := task.NewTask(locationID, sharedDomain.CycleWeekOf(time.Now()), testDefinition(definitionID, priority, 20))
	require.NoError(t, err)
	return tsk
}

func TestSQLiteTaskRepository_SaveAndFindByID(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	tsk := newTestTask(t, locationID, "upload-photos", "medium")

	require.NoError(t, repo.Save(ctx, tsk))

	found, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, tsk.ID(), found.ID())
	assert.Equal(t, locationID, found.LocationID())
	assert.Equal(t, "upload-photos", found.DefinitionID())
	assert.Equal(t, "Upload business photos", found.Title())
	assert.Equal(t, "photos", found.Category())
	assert.Equal(t, "content", found.Type())
	assert.Equal(t, 20, found.Points())
	assert.Equal(t, task.StatusPending, found.Status())
	assert.Nil(t, found.CompletedAt())
	assert.Equal(t, tsk.CycleWeek().String(), found.CycleWeek().String())
}

func TestSQLiteTaskRepository_FindByID_NotFound(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)

	found, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, found)
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestSQLiteTaskRepository_SaveLifecycle(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	tsk := newTestTask(t, uuid.New(), "upload-photos", "medium")
	require.NoError(t, repo.Save(ctx, tsk))

	loaded, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Complete())
	require.NoError(t, repo.Save(ctx, loaded))

	completed, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, completed.Status())
	require.NotNil(t, completed.CompletedAt())
	assert.Equal(t, loaded.CompletedAt().Unix(), completed.CompletedAt().Unix())
	assert.Greater(t, completed.Version(), tsk.Version())
}

func TestSQLiteTaskRepository_StaleSaveConflict(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	tsk := newTestTask(t, uuid.New(), "upload-photos", "medium")
	require.NoError(t, repo.Save(ctx, tsk))

	first, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)

	require.NoError(t, first.Complete())
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Exclude("not relevant"))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, database.ErrOptimisticLocking)

	stored, err := repo.FindByID(ctx, tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, stored.Status(), "losing save must not overwrite the winner")
}

func TestSQLiteTaskRepository_FindByLocationAndWeek(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	week := sharedDomain.CycleWeekOf(time.Now())

	low, err := task.NewTask(locationID, week, testDefinition("record-video", "low", 30))
	require.NoError(t, err)
	critical, err := task.NewTask(locationID, week, testDefinition("add-phone", "critical", 20))
	require.NoError(t, err)
	medium, err := task.NewTask(locationID, week, testDefinition("weekly-post", "medium", 20))
	require.NoError(t, err)
	high, err := task.NewTask(locationID, week, testDefinition("business-hours", "high", 20))
	require.NoError(t, err)

	other, err := task.NewTask(uuid.New(), week, testDefinition("add-phone", "critical", 20))
	require.NoError(t, err)

	for _, tsk := range []*task.Task{low, critical, medium, high, other} {
		require.NoError(t, repo.Save(ctx, tsk))
	}

	tasks, err := repo.FindByLocationAndWeek(ctx, locationID, week)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	assert.Equal(t, "add-phone", tasks[0].DefinitionID())
	assert.Equal(t, "business-hours", tasks[1].DefinitionID())
	assert.Equal(t, "weekly-post", tasks[2].DefinitionID())
	assert.Equal(t, "record-video", tasks[3].DefinitionID())
}

func TestSQLiteTaskRepository_FindCompletedSince(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	twoMonthsAgo := time.Now().UTC().AddDate(0, -2, 0)

	stale := task.Rehydrate(
		uuid.New(),
		locationID,
		sharedDomain.CycleWeekOf(twoMonthsAgo),
		testDefinition("old-task", "medium", 10),
		task.StatusCompleted,
		&twoMonthsAgo,
		nil,
		"",
		0,
		twoMonthsAgo,
		twoMonthsAgo,
	)
	require.NoError(t, repo.Save(ctx, stale))

	fresh := newTestTask(t, locationID, "fresh-task", "medium")
	require.NoError(t, fresh.Complete())
	require.NoError(t, repo.Save(ctx, fresh))

	since := time.Now().UTC().AddDate(0, 0, -7)
	tasks, err := repo.FindCompletedSince(ctx, locationID, since)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "fresh-task", tasks[0].DefinitionID())
}

func TestSQLiteTaskRepository_FindExcludedSince(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteTaskRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	twoMonthsAgo := time.Now().UTC().AddDate(0, -2, 0)

	stale := task.Rehydrate(
		uuid.New(),
		locationID,
		sharedDomain.CycleWeekOf(twoMonthsAgo),
		testDefinition("old-task", "medium", 10),
		task.StatusExcluded,
		nil,
		&twoMonthsAgo,
		"seasonal",
		0,
		twoMonthsAgo,
		twoMonthsAgo,
	)
	require.NoError(t, repo.Save(ctx, stale))

	fresh := newTestTask(t, locationID, "fresh-task", "medium")
	require.NoError(t, fresh.Exclude("no storefront"))
	require.NoError(t, repo.Save(ctx, fresh))

	since := time.Now().UTC().AddDate(0, 0, -7)
	tasks, err := repo.FindExcludedSince(ctx, locationID, since)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "fresh-task", tasks[0].DefinitionID())
	assert.Equal(t, "no storefront", tasks[0].ExcludeReason())
}
