package domain

import (
	"time"

	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

// GameState is the derived gamification standing of a location. It is a
// pure fold over the ledger: replaying the same entries always yields the
// same state.
type GameState struct {
	Level                int
	TotalPoints          int
	ProgressToNextLevel  int
	PointsInCurrentLevel int
	PointsForNextLevel   int
	CurrentStreak        int
	LongestStreak        int
	WeeklyPoints         int
	MonthlyPoints        int
	TasksCompleted       int
	// LastCompletionDate is the newest award instant; zero when the
	// location has never completed a task.
	LastCompletionDate time.Time
}

// ComputeGameState folds the ledger into the location's standing. Weekly
// points follow the ISO week of now, monthly points the calendar month,
// both evaluated in UTC.
func ComputeGameState(entries []*Entry, levelStep int, now time.Time) GameState {
	week := sharedDomain.CycleWeekOf(now)
	year, month, _ := now.UTC().Date()

	total, weekly, monthly := 0, 0, 0
	var lastCompletion time.Time
	awards := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		total += e.Points()
		awards = append(awards, e.AwardedAt())
		if e.AwardedAt().After(lastCompletion) {
			lastCompletion = e.AwardedAt()
		}

		if sharedDomain.CycleWeekOf(e.AwardedAt()).Equals(week) {
			weekly += e.Points()
		}
		awardYear, awardMonth, _ := e.AwardedAt().UTC().Date()
		if awardYear == year && awardMonth == month {
			monthly += e.Points()
		}
	}

	progress := ComputeLevelProgress(levelStep, total)
	streaks := ComputeStreaks(awards, now)

	return GameState{
		Level:                progress.Level,
		TotalPoints:          progress.TotalPoints,
		ProgressToNextLevel:  progress.ProgressToNextLevel,
		PointsInCurrentLevel: progress.PointsInCurrentLevel,
		PointsForNextLevel:   progress.PointsForNextLevel,
		CurrentStreak:        streaks.Current,
		LongestStreak:        streaks.Longest,
		WeeklyPoints:         weekly,
		MonthlyPoints:        monthly,
		TasksCompleted:       len(entries),
		LastCompletionDate:   lastCompletion,
	}
}
