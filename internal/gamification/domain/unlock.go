package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

// ErrAlreadyUnlocked is returned when an unlock record already exists for
// the same location and definition.
var ErrAlreadyUnlocked = errors.New("unlock already exists")

// Kind distinguishes the two unlock families. Both share one state
// machine: locked until the predicate first holds, unlocked forever after.
type Kind string

const (
	KindMilestone   Kind = "milestone"
	KindAchievement Kind = "achievement"
)

// Condition names the game state dimension an unlock predicate tests.
type Condition int

const (
	ConditionTotalPoints Condition = iota
	ConditionCurrentStreak
	ConditionTasksCompleted
	ConditionLevel
)

// Definition describes one unlockable milestone or achievement.
type Definition struct {
	ID          string
	Kind        Kind
	Title       string
	Description string
	Condition   Condition
	Threshold   int
	// Value is the display value attached to the unlock, usually the
	// threshold that was crossed.
	Value int
}

// Met reports whether the definition's predicate holds for the state.
func (d Definition) Met(state GameState) bool {
	switch d.Condition {
	case ConditionTotalPoints:
		return state.TotalPoints >= d.Threshold
	case ConditionCurrentStreak:
		return state.CurrentStreak >= d.Threshold
	case ConditionTasksCompleted:
		return state.TasksCompleted >= d.Threshold
	case ConditionLevel:
		return state.Level >= d.Threshold
	default:
		return false
	}
}

// NewlyMet returns the definitions whose predicate holds for the state
// and that are not already unlocked. Definitions that were satisfied on
// an earlier call are filtered by the unlocked set, so an unlock is only
// ever reported once.
func NewlyMet(definitions []Definition, state GameState, unlocked map[string]bool) []Definition {
	var met []Definition
	for _, d := range definitions {
		if unlocked[d.ID] {
			continue
		}
		if d.Met(state) {
			met = append(met, d)
		}
	}
	return met
}

// DefaultDefinitions is the built-in unlock catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "first-task", Kind: KindMilestone, Title: "First Steps", Description: "Complete your first task", Condition: ConditionTasksCompleted, Threshold: 1, Value: 1},
		{ID: "points-100", Kind: KindMilestone, Title: "Century", Description: "Earn 100 points", Condition: ConditionTotalPoints, Threshold: 100, Value: 100},
		{ID: "points-500", Kind: KindMilestone, Title: "High Roller", Description: "Earn 500 points", Condition: ConditionTotalPoints, Threshold: 500, Value: 500},
		{ID: "points-1000", Kind: KindMilestone, Title: "Grandmaster", Description: "Earn 1000 points", Condition: ConditionTotalPoints, Threshold: 1000, Value: 1000},
		{ID: "streak-3", Kind: KindMilestone, Title: "On a Roll", Description: "Complete tasks three days in a row", Condition: ConditionCurrentStreak, Threshold: 3, Value: 3},
		{ID: "streak-7", Kind: KindMilestone, Title: "Full Week", Description: "Complete tasks seven days in a row", Condition: ConditionCurrentStreak, Threshold: 7, Value: 7},
		{ID: "tasks-10", Kind: KindMilestone, Title: "Ten Down", Description: "Complete ten tasks", Condition: ConditionTasksCompleted, Threshold: 10, Value: 10},
		{ID: "level-2", Kind: KindAchievement, Title: "Moving Up", Description: "Reach level 2", Condition: ConditionLevel, Threshold: 2, Value: 2},
		{ID: "level-5", Kind: KindAchievement, Title: "Established", Description: "Reach level 5", Condition: ConditionLevel, Threshold: 5, Value: 5},
		{ID: "level-10", Kind: KindAchievement, Title: "Local Legend", Description: "Reach level 10", Condition: ConditionLevel, Threshold: 10, Value: 10},
		{ID: "streak-30", Kind: KindAchievement, Title: "Iron Habit", Description: "Complete tasks thirty days in a row", Condition: ConditionCurrentStreak, Threshold: 30, Value: 30},
		{ID: "tasks-50", Kind: KindAchievement, Title: "Half Century", Description: "Complete fifty tasks", Condition: ConditionTasksCompleted, Threshold: 50, Value: 50},
	}
}

// Unlock is the create-once record of a milestone or achievement a
// location has earned. It never changes after creation.
type Unlock struct {
	sharedDomain.BaseAggregateRoot
	locationID   uuid.UUID
	kind         Kind
	definitionID string
	title        string
	description  string
	value        int
	achievedAt   time.Time
}

// NewUnlock creates the unlock record for a newly satisfied definition.
func NewUnlock(locationID uuid.UUID, def Definition, achievedAt time.Time) *Unlock {
	if achievedAt.IsZero() {
		achievedAt = time.Now()
	}

	u := &Unlock{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		locationID:        locationID,
		kind:              def.Kind,
		definitionID:      def.ID,
		title:             def.Title,
		description:       def.Description,
		value:             def.Value,
		achievedAt:        achievedAt.UTC(),
	}

	switch def.Kind {
	case KindAchievement:
		u.AddDomainEvent(NewAchievementUnlocked(u.ID(), u.definitionID, u.title, u.value))
	default:
		u.AddDomainEvent(NewMilestoneUnlocked(u.ID(), u.definitionID, u.title, u.value))
	}

	return u
}

// RehydrateUnlock reconstructs an unlock from persisted state.
func RehydrateUnlock(
	id uuid.UUID,
	locationID uuid.UUID,
	kind Kind,
	definitionID string,
	title string,
	description string,
	value int,
	achievedAt time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Unlock {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Unlock{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, 1),
		locationID:        locationID,
		kind:              kind,
		definitionID:      definitionID,
		title:             title,
		description:       description,
		value:             value,
		achievedAt:        achievedAt,
	}
}

func (u *Unlock) LocationID() uuid.UUID { return u.locationID }
func (u *Unlock) Kind() Kind            { return u.kind }
func (u *Unlock) DefinitionID() string  { return u.definitionID }
func (u *Unlock) Title() string         { return u.title }
func (u *Unlock) Description() string   { return u.description }
func (u *Unlock) Value() int            { return u.value }
func (u *Unlock) AchievedAt() time.Time { return u.achievedAt }
