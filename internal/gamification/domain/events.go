package domain

import (
	"github.com/google/uuid"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

const (
	UnlockAggregateType = "Unlock"

	RoutingKeyMilestoneUnlocked   = "engage.milestone.unlocked"
	RoutingKeyAchievementUnlocked = "engage.achievement.unlocked"
)

// MilestoneUnlocked is emitted when a location earns a milestone.
type MilestoneUnlocked struct {
	sharedDomain.BaseEvent
	DefinitionID string `json:"definition_id"`
	Title        string `json:"title"`
	Value        int    `json:"value"`
}

// NewMilestoneUnlocked creates a MilestoneUnlocked event.
func NewMilestoneUnlocked(unlockID uuid.UUID, definitionID, title string, value int) MilestoneUnlocked {
	return MilestoneUnlocked{
		BaseEvent:    sharedDomain.NewBaseEvent(unlockID, UnlockAggregateType, RoutingKeyMilestoneUnlocked),
		DefinitionID: definitionID,
		Title:        title,
		Value:        value,
	}
}

// AchievementUnlocked is emitted when a location earns an achievement.
type AchievementUnlocked struct {
	sharedDomain.BaseEvent
	DefinitionID string `json:"definition_id"`
	Title        string `json:"title"`
	Value        int    `json:"value"`
}

// NewAchievementUnlocked creates an AchievementUnlocked event.
func NewAchievementUnlocked(unlockID uuid.UUID, definitionID, title string, value int) AchievementUnlocked {
	return AchievementUnlocked{
		BaseEvent:    sharedDomain.NewBaseEvent(unlockID, UnlockAggregateType, RoutingKeyAchievementUnlocked),
		DefinitionID: definitionID,
		Title:        title,
		Value:        value,
	}
}
