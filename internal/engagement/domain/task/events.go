package task

import (
	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyGenerated = "engage.task.generated"
	RoutingKeyStarted   = "engage.task.started"
	RoutingKeyCompleted = "engage.task.completed"
	RoutingKeyExcluded  = "engage.task.excluded"
)

// TaskGenerated is emitted when a refresh materializes a task from a
// catalog definition.
type TaskGenerated struct {
	domain.BaseEvent
	DefinitionID string `json:"definition_id"`
	Title        string `json:"title"`
	CycleWeek    string `json:"cycle_week"`
	Points       int    `json:"points"`
}

// NewTaskGenerated creates a TaskGenerated event.
func NewTaskGenerated(taskID uuid.UUID, definitionID, title, cycleWeek string, points int) TaskGenerated {
	return TaskGenerated{
		BaseEvent:    domain.NewBaseEvent(taskID, AggregateType, RoutingKeyGenerated),
		DefinitionID: definitionID,
		Title:        title,
		CycleWeek:    cycleWeek,
		Points:       points,
	}
}

// TaskStarted is emitted when a task moves to in_progress.
type TaskStarted struct {
	domain.BaseEvent
}

// NewTaskStarted creates a TaskStarted event.
func NewTaskStarted(taskID uuid.UUID) TaskStarted {
	return TaskStarted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyStarted),
	}
}

// TaskCompleted is emitted when a task is completed. Points and the
// definition id ride along so downstream consumers do not need a lookup.
type TaskCompleted struct {
	domain.BaseEvent
	DefinitionID string `json:"definition_id"`
	CycleWeek    string `json:"cycle_week"`
	Points       int    `json:"points"`
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID uuid.UUID, definitionID, cycleWeek string, points int) TaskCompleted {
	return TaskCompleted{
		BaseEvent:    domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted),
		DefinitionID: definitionID,
		CycleWeek:    cycleWeek,
		Points:       points,
	}
}

// TaskExcluded is emitted when a task is marked not applicable.
type TaskExcluded struct {
	domain.BaseEvent
	DefinitionID string `json:"definition_id"`
	Reason       string `json:"reason,omitempty"`
}

// NewTaskExcluded creates a TaskExcluded event.
func NewTaskExcluded(taskID uuid.UUID, definitionID, reason string) TaskExcluded {
	return TaskExcluded{
		BaseEvent:    domain.NewBaseEvent(taskID, AggregateType, RoutingKeyExcluded),
		DefinitionID: definitionID,
		Reason:       reason,
	}
}
