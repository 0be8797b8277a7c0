package domain

import (
	"sort"
	"time"
)

// Streaks summarizes runs of consecutive daily completions.
type Streaks struct {
	Current int
	Longest int
}

// ComputeStreaks derives streaks from award instants. Days are calendar
// days in UTC and several awards on one day count once. The current
// streak is the run ending at the most recent award day; it survives only
// while that day is today or yesterday relative to now.
func ComputeStreaks(awards []time.Time, now time.Time) Streaks {
	if len(awards) == 0 {
		return Streaks{}
	}

	seen := make(map[time.Time]struct{}, len(awards))
	days := make([]time.Time, 0, len(awards))
	for _, a := range awards {
		day := dayOf(a)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := run
	if dayOf(now).Sub(days[len(days)-1]) > 24*time.Hour {
		current = 0
	}

	return Streaks{Current: current, Longest: longest}
}

// dayOf truncates an instant to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
