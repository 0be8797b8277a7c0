package domain

// DefaultLevelStep is the per-level cost multiplier: moving from level L
// to L+1 costs step*L points, so the cumulative threshold for level L is
// step*L*(L-1)/2.
const DefaultLevelStep = 100

// LevelThreshold returns the total points required to reach a level.
// Level 1 needs nothing.
func LevelThreshold(step, level int) int {
	if step <= 0 {
		step = DefaultLevelStep
	}
	if level <= 1 {
		return 0
	}
	return step * level * (level - 1) / 2
}

// LevelFromPoints returns the greatest level whose threshold the points
// total has reached. Never below 1.
func LevelFromPoints(step, points int) int {
	if step <= 0 {
		step = DefaultLevelStep
	}
	if points <= 0 {
		return 1
	}
	level := 1
	for LevelThreshold(step, level+1) <= points {
		level++
	}
	return level
}

// LevelProgress describes a points total's position within its level.
type LevelProgress struct {
	Level                int
	TotalPoints          int
	PointsInCurrentLevel int
	PointsForNextLevel   int
	ProgressToNextLevel  int // percent, 0-100
}

// ComputeLevelProgress derives the level standing for a points total.
// 150 points at the default step is level 2 with 25% progress.
func ComputeLevelProgress(step, totalPoints int) LevelProgress {
	if step <= 0 {
		step = DefaultLevelStep
	}
	if totalPoints < 0 {
		totalPoints = 0
	}

	level := LevelFromPoints(step, totalPoints)
	floor := LevelThreshold(step, level)
	span := LevelThreshold(step, level+1) - floor
	within := totalPoints - floor

	percent := within * 100 / span
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return LevelProgress{
		Level:                level,
		TotalPoints:          totalPoints,
		PointsInCurrentLevel: within,
		PointsForNextLevel:   span,
		ProgressToNextLevel:  percent,
	}
}
