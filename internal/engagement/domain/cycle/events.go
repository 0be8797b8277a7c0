package cycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

const (
	AggregateType = "CycleRecord"

	RoutingKeyRefreshed = "engage.tasks.refreshed"
)

// TasksRefreshed is emitted when a location's weekly task batch has been
// generated.
type TasksRefreshed struct {
	domain.BaseEvent
	Week        string    `json:"week"`
	TaskCount   int       `json:"task_count"`
	NextRefresh time.Time `json:"next_refresh"`
}

// NewTasksRefreshed creates a TasksRefreshed event.
func NewTasksRefreshed(recordID uuid.UUID, week string, taskCount int, nextRefresh time.Time) TasksRefreshed {
	return TasksRefreshed{
		BaseEvent:   domain.NewBaseEvent(recordID, AggregateType, RoutingKeyRefreshed),
		Week:        week,
		TaskCount:   taskCount,
		NextRefresh: nextRefresh,
	}
}
