package domain

import (
	"fmt"
	"time"
)

// ValueObject represents an immutable domain concept defined by its attributes.
type ValueObject interface {
	Equals(other ValueObject) bool
}

// CycleWeek identifies one weekly task cycle using the ISO week of the
// refresh instant, e.g. "2025-W07". Tasks and cycle records are stamped
// with it at generation time and it never changes afterwards.
type CycleWeek struct {
	value string
}

// CycleWeekOf derives the cycle week for an instant, evaluated in UTC.
func CycleWeekOf(t time.Time) CycleWeek {
	year, week := t.UTC().ISOWeek()
	return CycleWeek{value: fmt.Sprintf("%04d-W%02d", year, week)}
}

// ParseCycleWeek validates and parses an ISO week identifier.
func ParseCycleWeek(value string) (CycleWeek, error) {
	var year, week int
	if _, err := fmt.Sscanf(value, "%d-W%d", &year, &week); err != nil {
		return CycleWeek{}, fmt.Errorf("invalid cycle week %q: %w", value, err)
	}
	if year < 1 || week < 1 || week > 53 {
		return CycleWeek{}, fmt.Errorf("invalid cycle week %q", value)
	}
	return CycleWeek{value: fmt.Sprintf("%04d-W%02d", year, week)}, nil
}

// String returns the ISO week identifier.
func (w CycleWeek) String() string {
	return w.value
}

// IsZero returns true if the cycle week is unset.
func (w CycleWeek) IsZero() bool {
	return w.value == ""
}

// Equals checks if two cycle weeks identify the same week.
func (w CycleWeek) Equals(other ValueObject) bool {
	if otherWeek, ok := other.(CycleWeek); ok {
		return w.value == otherWeek.value
	}
	return false
}
