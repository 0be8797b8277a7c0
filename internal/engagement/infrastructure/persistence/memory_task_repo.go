package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/task"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// InMemoryTaskRepository is an in-memory implementation of task.Repository
// for tests and local development without a database. It enforces the same
// versioned-save contract as the SQL repositories, so concurrency tests
// exercise real conflict behavior.
type InMemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]memoryTask
}

// memoryTask is a detached copy of a task's persisted state. Aggregates are
// rehydrated fresh on every read so callers never share mutable state.
type memoryTask struct {
	id            uuid.UUID
	locationID    uuid.UUID
	cycleWeek     sharedDomain.CycleWeek
	definition    task.Definition
	status        task.Status
	completedAt   *time.Time
	excludedAt    *time.Time
	excludeReason string
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewInMemoryTaskRepository creates a new in-memory task repository.
func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{tasks: make(map[uuid.UUID]memoryTask)}
}

// Save stores the task. An existing row is only overwritten when the
// caller's version matches the stored one; otherwise Save returns
// database.ErrOptimisticLocking.
func (r *InMemoryTaskRepository) Save(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := snapshotTask(t)

	stored, exists := r.tasks[t.ID()]
	if exists {
		if stored.version != t.Version() {
			return database.ErrOptimisticLocking
		}
		row.version = stored.version + 1
		row.updatedAt = time.Now().UTC()
	}

	r.tasks[t.ID()] = row
	t.SetVersion(row.version)
	return nil
}

// FindByID retrieves a task by its ID.
func (r *InMemoryTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return row.rehydrate(), nil
}

// FindByLocationAndWeek retrieves the tasks generated for one cycle, most
// urgent priority first, matching the SQL repositories' ordering.
func (r *InMemoryTaskRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []memoryTask
	for _, row := range r.tasks {
		if row.locationID == locationID && row.cycleWeek.Equals(week) {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if a, b := priorityRank(rows[i].definition.Priority), priorityRank(rows[j].definition.Priority); a != b {
			return a < b
		}
		if !rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].createdAt.Before(rows[j].createdAt)
		}
		return rows[i].id.String() < rows[j].id.String()
	})

	return rehydrateAll(rows), nil
}

// FindCompletedSince retrieves tasks completed at or after the given
// instant, newest first.
func (r *InMemoryTaskRepository) FindCompletedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []memoryTask
	for _, row := range r.tasks {
		if row.locationID != locationID || row.status != task.StatusCompleted {
			continue
		}
		if row.completedAt == nil || row.completedAt.Before(since) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].completedAt.After(*rows[j].completedAt)
	})

	return rehydrateAll(rows), nil
}

// FindExcludedSince retrieves tasks excluded at or after the given instant,
// newest first.
func (r *InMemoryTaskRepository) FindExcludedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []memoryTask
	for _, row := range r.tasks {
		if row.locationID != locationID || row.status != task.StatusExcluded {
			continue
		}
		if row.excludedAt == nil || row.excludedAt.Before(since) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].excludedAt.After(*rows[j].excludedAt)
	})

	return rehydrateAll(rows), nil
}

func snapshotTask(t *task.Task) memoryTask {
	return memoryTask{
		id:         t.ID(),
		locationID: t.LocationID(),
		cycleWeek:  t.CycleWeek(),
		definition: task.Definition{
			DefinitionID:  t.DefinitionID(),
			Title:         t.Title(),
			Description:   t.Description(),
			Category:      t.Category(),
			Type:          t.Type(),
			Impact:        t.Impact(),
			Priority:      t.Priority(),
			EstimatedTime: t.EstimatedTime(),
			Points:        t.Points(),
		},
		status:        t.Status(),
		completedAt:   cloneTime(t.CompletedAt()),
		excludedAt:    cloneTime(t.ExcludedAt()),
		excludeReason: t.ExcludeReason(),
		version:       t.Version(),
		createdAt:     t.CreatedAt(),
		updatedAt:     t.UpdatedAt(),
	}
}

func (row memoryTask) rehydrate() *task.Task {
	return task.Rehydrate(
		row.id,
		row.locationID,
		row.cycleWeek,
		row.definition,
		row.status,
		cloneTime(row.completedAt),
		cloneTime(row.excludedAt),
		row.excludeReason,
		row.version,
		row.createdAt,
		row.updatedAt,
	)
}

func rehydrateAll(rows []memoryTask) []*task.Task {
	if len(rows) == 0 {
		return nil
	}
	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.rehydrate())
	}
	return tasks
}

func priorityRank(priority string) int {
	switch priority {
	case "critical":
		return 1
	case "high":
		return 2
	case "medium":
		return 3
	case "low":
		return 4
	default:
		return 5
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
