package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

// ErrTaskNotFound is returned when a task does not exist in the store.
var ErrTaskNotFound = errors.New("task not found")

// Repository defines the interface for task persistence. Save performs a
// versioned upsert and returns database.ErrOptimisticLocking when the
// stored version no longer matches the aggregate's.
type Repository interface {
	Save(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week domain.CycleWeek) ([]*Task, error)
	FindCompletedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*Task, error)
	FindExcludedSince(ctx context.Context, locationID uuid.UUID, since time.Time) ([]*Task, error)
}
