package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/catalog/builtin"
	"github.com/localift/engage/internal/engagement/application"
	"github.com/localift/engage/internal/engagement/application/commands"
	"github.com/localift/engage/internal/engagement/application/queries"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	"github.com/localift/engage/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalModeContainer verifies a local container wires up against an
// empty SQLite file without any external service.
func TestLocalModeContainer(t *testing.T) {
	container, _ := setupLocalContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.RedisClient)

	assert.NotNil(t, container.TaskRepo)
	assert.NotNil(t, container.CycleRepo)
	assert.NotNil(t, container.LedgerRepo)
	assert.NotNil(t, container.SnapshotRepo)
	assert.NotNil(t, container.UnlockRepo)
	assert.NotNil(t, container.OutboxRepo)

	assert.NotNil(t, container.RefreshHandler)
	assert.NotNil(t, container.CompleteHandler)
	assert.NotNil(t, container.ExcludeHandler)
	assert.NotNil(t, container.BoardHandler)
	assert.NotNil(t, container.Engagement)
	assert.NotNil(t, container.OutboxProcessor)
	assert.NotNil(t, container.StateWarmer)

	assert.True(t, container.RulesetRegistry.Has(builtin.Name))
}

// TestLocalModeRefreshWorkflow drives a first refresh through the facade.
// An uncaptured location resolves against a zero snapshot, which the
// builtin ruleset turns into ten proposals.
func TestLocalModeRefreshWorkflow(t *testing.T) {
	container, ctx := setupLocalContainer(t)
	locationID := uuid.New()

	outcome, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)
	require.True(t, outcome.Refreshed)
	require.NotNil(t, outcome.Board)

	assert.Len(t, outcome.Board.Tasks.Active, 10)
	assert.Empty(t, outcome.Board.CompletedTasks)
	assert.Equal(t, 0, outcome.Board.Stats.TotalPoints)
	assert.Equal(t, 1, outcome.Board.Stats.Level)
	assert.NotNil(t, outcome.Board.RefreshedAt)
	assert.NotNil(t, outcome.Board.NextRefresh)
}

// TestLocalModeCadenceGate verifies an immediate second refresh is denied
// but still answers with the current board.
func TestLocalModeCadenceGate(t *testing.T) {
	container, ctx := setupLocalContainer(t)
	locationID := uuid.New()

	first, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)
	require.True(t, first.Refreshed)

	second, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)
	assert.False(t, second.Refreshed)
	assert.Equal(t, application.CodeCadence, second.Code)
	require.NotNil(t, second.Board)
	assert.Len(t, second.Board.Tasks.Active, 10)
}

// TestLocalModeCompleteWorkflow completes a generated task and checks the
// award lands in the SQLite ledger.
func TestLocalModeCompleteWorkflow(t *testing.T) {
	container, ctx := setupLocalContainer(t)
	locationID := uuid.New()

	outcome, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)

	target := findTask(t, outcome.Board.Tasks.Active, "add-phone-number")

	result, err := container.Engagement.Complete(ctx, commands.CompleteTaskCommand{
		TaskID:     target.ID,
		LocationID: locationID,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, result.PointsAwarded)
	assert.Equal(t, 1, result.NewStreak)
	assert.False(t, result.LeveledUp)

	// The first completion unlocks the first-task milestone, once.
	require.Len(t, result.NewMilestones, 1)
	assert.Equal(t, "first-task", result.NewMilestones[0].DefinitionID)

	board, err := container.Engagement.Board(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, 20, board.Stats.TotalPoints)
	assert.Equal(t, 1, board.Stats.TasksCompleted)
	assert.Len(t, board.Tasks.Active, 9)
	assert.Len(t, board.CompletedTasks, 1)
	require.Len(t, board.Milestones.Recent, 1)
	assert.Equal(t, "first-task", board.Milestones.Recent[0].DefinitionID)
}

// TestLocalModeExcludeWorkflow excludes a task and checks it left the
// active list without touching the ledger.
func TestLocalModeExcludeWorkflow(t *testing.T) {
	container, ctx := setupLocalContainer(t)
	locationID := uuid.New()

	outcome, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)

	target := findTask(t, outcome.Board.Tasks.Active, "create-weekly-post")

	board, err := container.Engagement.Exclude(ctx, commands.ExcludeTaskCommand{
		TaskID: target.ID,
		Reason: "agency handles posting",
	})
	require.NoError(t, err)

	assert.Len(t, board.Tasks.Active, 9)
	require.Len(t, board.ExcludedTasks, 1)
	assert.Equal(t, "create-weekly-post", board.ExcludedTasks[0].DefinitionID)
	assert.Equal(t, "agency handles posting", board.ExcludedTasks[0].ExcludeReason)
	assert.Equal(t, 0, board.Stats.TotalPoints)
}

// TestLocalModeOutboxRelay verifies a refresh lands its events in the
// SQLite outbox and one processor pass drains them through the in-process
// publisher.
func TestLocalModeOutboxRelay(t *testing.T) {
	container, ctx := setupLocalContainer(t)
	locationID := uuid.New()

	_, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)

	// Ten generated tasks plus the refreshed cycle record.
	msgs, err := container.OutboxRepo.GetUnpublished(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 11)

	require.NoError(t, container.OutboxProcessor.ProcessOnce(ctx))

	msgs, err = container.OutboxRepo.GetUnpublished(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// TestMemoryContainerWorkflow runs the same lifecycle over the in-memory
// wiring.
func TestMemoryContainerWorkflow(t *testing.T) {
	logger := testLogger()
	container := NewMemoryContainer(&config.Config{
		AppEnv:        "test",
		ActiveRuleset: builtin.Name,
	}, logger)
	defer container.Close()

	ctx := context.Background()
	locationID := uuid.New()

	outcome, err := container.Engagement.Refresh(ctx, commands.RefreshTasksCommand{LocationID: locationID})
	require.NoError(t, err)
	require.True(t, outcome.Refreshed)
	require.Len(t, outcome.Board.Tasks.Active, 10)

	target := findTask(t, outcome.Board.Tasks.Active, "upload-business-photos")
	result, err := container.Engagement.Complete(ctx, commands.CompleteTaskCommand{
		TaskID:     target.ID,
		LocationID: locationID,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.PointsAwarded)
}

// findTask locates a board task by definition id.
func findTask(t *testing.T, tasks []queries.TaskDTO, definitionID string) queries.TaskDTO {
	t.Helper()
	for _, task := range tasks {
		if task.DefinitionID == definitionID {
			return task
		}
	}
	t.Fatalf("task %s not on the board", definitionID)
	return queries.TaskDTO{}
}

// setupLocalContainer creates a container backed by a throwaway SQLite
// file.
func setupLocalContainer(t *testing.T) (*Container, context.Context) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "engage.db")

	cfg := &config.Config{
		AppEnv:         "test",
		LocalMode:      true,
		DatabaseDriver: "sqlite",
		SQLitePath:     dbPath,
		ActiveRuleset:  builtin.Name,
	}

	container, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(container.Close)

	return container, context.Background()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}
