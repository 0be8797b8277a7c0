//go:build property
// +build property

// Property-based checks for the derived gamification engines: leveling is
// monotone and deterministic, progress stays inside its bounds, streaks
// never exceed the number of distinct days, scores stay inside 0-100.
package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

func TestLevelMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("more points never lowers the level", prop.ForAll(
		func(points, extra int) bool {
			before := domain.LevelFromPoints(domain.DefaultLevelStep, points)
			after := domain.LevelFromPoints(domain.DefaultLevelStep, points+extra)
			return after >= before
		},
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 100_000),
	))

	properties.TestingRun(t)
}

func TestLevelThresholdRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a threshold total lands exactly on its level", prop.ForAll(
		func(level int) bool {
			points := domain.LevelThreshold(domain.DefaultLevelStep, level)
			return domain.LevelFromPoints(domain.DefaultLevelStep, points) == level
		},
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}

func TestLevelProgressBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("progress stays within its level", prop.ForAll(
		func(step, points int) bool {
			p := domain.ComputeLevelProgress(step, points)
			if p.Level < 1 {
				return false
			}
			if p.ProgressToNextLevel < 0 || p.ProgressToNextLevel > 100 {
				return false
			}
			if p.PointsInCurrentLevel < 0 || p.PointsInCurrentLevel >= p.PointsForNextLevel {
				return false
			}
			return p.PointsForNextLevel > 0
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func TestLevelProgressDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("the same total always yields the same standing", prop.ForAll(
		func(points int) bool {
			first := domain.ComputeLevelProgress(domain.DefaultLevelStep, points)
			second := domain.ComputeLevelProgress(domain.DefaultLevelStep, points)
			return first == second
		},
		gen.IntRange(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func TestStreakBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	properties.Property("current never exceeds longest, longest never exceeds distinct days", prop.ForAll(
		func(dayOffsets []int) bool {
			awards := make([]time.Time, 0, len(dayOffsets))
			distinct := make(map[int]bool, len(dayOffsets))
			for _, offset := range dayOffsets {
				awards = append(awards, now.AddDate(0, 0, -offset))
				distinct[offset] = true
			}

			s := domain.ComputeStreaks(awards, now)
			if s.Current < 0 || s.Longest < 0 {
				return false
			}
			if s.Current > s.Longest {
				return false
			}
			return s.Longest <= len(distinct)
		},
		gen.SliceOf(gen.IntRange(0, 60)),
	))

	properties.TestingRun(t)
}

func TestScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	categories := []string{"reviews", "messaging", "qa", "posts", "photos", "videos", "website", "other"}

	properties.Property("all sub-scores stay in 0-100", prop.ForAll(
		func(photoCount, reviewCount, unreplied int, hasPhone bool, completions []int) bool {
			snap := &domain.Snapshot{
				LocationID:       uuid.New(),
				HasPhone:         hasPhone,
				PhotoCount:       photoCount,
				ReviewCount:      reviewCount,
				UnrepliedReviews: unreplied,
				CapturedAt:       now,
			}

			entries := make([]*domain.Entry, 0, len(completions))
			for i, c := range completions {
				awardedAt := now.AddDate(0, 0, -(i % 45))
				entries = append(entries, domain.RehydrateEntry(
					uuid.New(), snap.LocationID, uuid.New(),
					"def", categories[c%len(categories)],
					sharedDomain.CycleWeekOf(awardedAt), 10, awardedAt,
				))
			}

			s := domain.ComputeScores(snap, entries, domain.DefaultScoringConfig(), now)
			for _, v := range []int{s.Profile, s.Engagement, s.Content} {
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 200),
		gen.Bool(),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}

func TestGameStateTotalMatchesSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	properties.Property("total points equals the sum of the ledger", prop.ForAll(
		func(pointValues []int) bool {
			sum := 0
			entries := make([]*domain.Entry, 0, len(pointValues))
			for i, p := range pointValues {
				sum += p
				awardedAt := now.AddDate(0, 0, -(i % 30))
				entries = append(entries, domain.RehydrateEntry(
					uuid.New(), uuid.New(), uuid.New(),
					"def", "reviews",
					sharedDomain.CycleWeekOf(awardedAt), p, awardedAt,
				))
			}

			state := domain.ComputeGameState(entries, domain.DefaultLevelStep, now)
			return state.TotalPoints == sum && state.TasksCompleted == len(entries)
		},
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t)
}
