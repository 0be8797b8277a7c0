// Package queries holds the engagement read side. The board query is a
// pure projection over the task store, the cycle record, the unlock
// records and the cached game state; it never takes locks and never
// blocks a writer.
package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/engagement/domain/task"
	gamification "github.com/localift/engage/internal/gamification/domain"
)

// recentMilestoneLimit caps the milestones shown on the board; older ones
// stay queryable through the unlock store.
const recentMilestoneLimit = 5

// StateReader serves the derived game state, cached read-through. The
// gamification state service satisfies it.
type StateReader interface {
	Load(ctx context.Context, locationID uuid.UUID) (gamification.GameState, error)
}

// ScoreReader computes the board sub-scores. The gamification score
// service satisfies it.
type ScoreReader interface {
	Scores(ctx context.Context, locationID uuid.UUID) (gamification.Scores, error)
}

// TaskDTO is a data transfer object for board tasks.
type TaskDTO struct {
	ID            uuid.UUID  `json:"id"`
	DefinitionID  string     `json:"definitionId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category"`
	Type          string     `json:"type"`
	Impact        string     `json:"impact,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	EstimatedTime string     `json:"estimatedTime,omitempty"`
	Points        int        `json:"points"`
	Status        string     `json:"status"`
	CycleWeek     string     `json:"cycleWeek"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	ExcludedAt    *time.Time `json:"excludedAt,omitempty"`
	ExcludeReason string     `json:"excludeReason,omitempty"`
}

// UnlockDTO is a data transfer object for earned milestones and
// achievements.
type UnlockDTO struct {
	DefinitionID string    `json:"definitionId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Value        int       `json:"value"`
	AchievedAt   time.Time `json:"achievedAt"`
}

// StatsDTO carries the derived game state of the location.
type StatsDTO struct {
	Level                int        `json:"level"`
	TotalPoints          int        `json:"totalPoints"`
	ProgressToNextLevel  int        `json:"progressToNextLevel"`
	PointsInCurrentLevel int        `json:"pointsInCurrentLevel"`
	PointsForNextLevel   int        `json:"pointsForNextLevel"`
	CurrentStreak        int        `json:"currentStreak"`
	LongestStreak        int        `json:"longestStreak"`
	WeeklyPoints         int        `json:"weeklyPoints"`
	MonthlyPoints        int        `json:"monthlyPoints"`
	TasksCompleted       int        `json:"tasksCompleted"`
	LastCompletionDate   *time.Time `json:"lastCompletionDate,omitempty"`
}

// ScoresDTO carries the three bounded sub-scores.
type ScoresDTO struct {
	Profile    int `json:"profile"`
	Engagement int `json:"engagement"`
	Content    int `json:"content"`
}

// PerformanceDTO summarizes the current cycle.
type PerformanceDTO struct {
	CompletionRate          int `json:"completionRate"`
	TasksGenerated          int `json:"tasksGenerated"`
	TasksCompletedThisCycle int `json:"tasksCompletedThisCycle"`
	PointsThisWeek          int `json:"pointsThisWeek"`
	PointsThisMonth         int `json:"pointsThisMonth"`
}

// TasksDTO groups the task lists of the board.
type TasksDTO struct {
	Active []TaskDTO `json:"active"`
}

// MilestonesDTO groups the milestone lists of the board.
type MilestonesDTO struct {
	Recent []UnlockDTO `json:"recent"`
}

// BoardDTO is the full engagement board for one location.
type BoardDTO struct {
	LocationID     uuid.UUID      `json:"locationId"`
	Stats          StatsDTO       `json:"stats"`
	Scores         ScoresDTO      `json:"scores"`
	Tasks          TasksDTO       `json:"tasks"`
	CompletedTasks []TaskDTO      `json:"completedTasks"`
	ExcludedTasks  []TaskDTO      `json:"excludedTasks"`
	Performance    PerformanceDTO `json:"performance"`
	Milestones     MilestonesDTO  `json:"milestones"`
	Achievements   []UnlockDTO    `json:"achievements"`
	Week           string         `json:"week"`
	RefreshedAt    *time.Time     `json:"refreshedAt,omitempty"`
	NextRefresh    *time.Time     `json:"nextRefresh,omitempty"`
}

// GetBoardQuery contains the parameters for reading a location's board.
type GetBoardQuery struct {
	LocationID uuid.UUID
}

// QueryName identifies the query in logs.
func (GetBoardQuery) QueryName() string { return "engage.board.get" }

// GetBoardHandler handles the GetBoardQuery.
type GetBoardHandler struct {
	taskRepo  task.Repository
	cycleRepo cycle.Repository
	unlocks   gamification.UnlockRepository
	states    StateReader
	scores    ScoreReader
	now       func() time.Time
}

// NewGetBoardHandler creates a new GetBoardHandler.
func NewGetBoardHandler(
	taskRepo task.Repository,
	cycleRepo cycle.Repository,
	unlocks gamification.UnlockRepository,
	states StateReader,
	scores ScoreReader,
) *GetBoardHandler {
	return &GetBoardHandler{
		taskRepo:  taskRepo,
		cycleRepo: cycleRepo,
		unlocks:   unlocks,
		states:    states,
		scores:    scores,
		now:       time.Now,
	}
}

// Handle executes the GetBoardQuery. A location that has never refreshed
// gets an empty board with zeroed cadence metadata, not an error.
func (h *GetBoardHandler) Handle(ctx context.Context, query GetBoardQuery) (*BoardDTO, error) {
	now := h.now().UTC()
	board := &BoardDTO{LocationID: query.LocationID}

	state, err := h.states.Load(ctx, query.LocationID)
	if err != nil {
		return nil, err
	}
	board.Stats = toStatsDTO(state)

	scores, err := h.scores.Scores(ctx, query.LocationID)
	if err != nil {
		return nil, err
	}
	board.Scores = ScoresDTO{
		Profile:    scores.Profile,
		Engagement: scores.Engagement,
		Content:    scores.Content,
	}

	// The board shows the latest cycle, however old it is.
	latest, err := h.cycleRepo.FindLatest(ctx, query.LocationID)
	if err != nil && !errors.Is(err, cycle.ErrRecordNotFound) {
		return nil, err
	}

	var cycleTasks []*task.Task
	if latest != nil {
		week := latest.Week()
		refreshedAt := latest.RefreshedAt()
		nextRefresh := latest.NextRefresh()
		board.Week = week.String()
		board.RefreshedAt = &refreshedAt
		board.NextRefresh = &nextRefresh

		cycleTasks, err = h.taskRepo.FindByLocationAndWeek(ctx, query.LocationID, week)
		if err != nil {
			return nil, err
		}
	}

	completedThisCycle := 0
	for _, t := range cycleTasks {
		switch t.Status() {
		case task.StatusPending, task.StatusInProgress:
			board.Tasks.Active = append(board.Tasks.Active, toTaskDTO(t))
		case task.StatusCompleted:
			completedThisCycle++
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	completed, err := h.taskRepo.FindCompletedSince(ctx, query.LocationID, monthStart)
	if err != nil {
		return nil, err
	}
	board.CompletedTasks = toTaskDTOs(completed)

	excluded, err := h.taskRepo.FindExcludedSince(ctx, query.LocationID, monthStart)
	if err != nil {
		return nil, err
	}
	board.ExcludedTasks = toTaskDTOs(excluded)

	board.Performance = PerformanceDTO{
		TasksGenerated:          len(cycleTasks),
		TasksCompletedThisCycle: completedThisCycle,
		PointsThisWeek:          state.WeeklyPoints,
		PointsThisMonth:         state.MonthlyPoints,
	}
	if len(cycleTasks) > 0 {
		board.Performance.CompletionRate = completedThisCycle * 100 / len(cycleTasks)
	}

	unlocks, err := h.unlocks.FindByLocation(ctx, query.LocationID)
	if err != nil {
		return nil, err
	}
	for _, u := range unlocks {
		view := UnlockDTO{
			DefinitionID: u.DefinitionID(),
			Title:        u.Title(),
			Description:  u.Description(),
			Value:        u.Value(),
			AchievedAt:   u.AchievedAt(),
		}
		switch u.Kind() {
		case gamification.KindAchievement:
			board.Achievements = append(board.Achievements, view)
		default:
			if len(board.Milestones.Recent) < recentMilestoneLimit {
				board.Milestones.Recent = append(board.Milestones.Recent, view)
			}
		}
	}

	return board, nil
}

func toStatsDTO(state gamification.GameState) StatsDTO {
	stats := StatsDTO{
		Level:                state.Level,
		TotalPoints:          state.TotalPoints,
		ProgressToNextLevel:  state.ProgressToNextLevel,
		PointsInCurrentLevel: state.PointsInCurrentLevel,
		PointsForNextLevel:   state.PointsForNextLevel,
		CurrentStreak:        state.CurrentStreak,
		LongestStreak:        state.LongestStreak,
		WeeklyPoints:         state.WeeklyPoints,
		MonthlyPoints:        state.MonthlyPoints,
		TasksCompleted:       state.TasksCompleted,
	}
	if !state.LastCompletionDate.IsZero() {
		last := state.LastCompletionDate
		stats.LastCompletionDate = &last
	}
	return stats
}

func toTaskDTO(t *task.Task) TaskDTO {
	return TaskDTO{
		ID:            t.ID(),
		DefinitionID:  t.DefinitionID(),
		Title:         t.Title(),
		Description:   t.Description(),
		Category:      t.Category(),
		Type:          t.Type(),
		Impact:        t.Impact(),
		Priority:      t.Priority(),
		EstimatedTime: t.EstimatedTime(),
		Points:        t.Points(),
		Status:        t.Status().String(),
		CycleWeek:     t.CycleWeek().String(),
		CompletedAt:   t.CompletedAt(),
		ExcludedAt:    t.ExcludedAt(),
		ExcludeReason: t.ExcludeReason(),
	}
}

func toTaskDTOs(tasks []*task.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDTO(t)
	}
	return dtos
}
