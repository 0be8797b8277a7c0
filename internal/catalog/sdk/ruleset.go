// Package sdk defines the contract between the engagement engine and task
// catalog rulesets.
//
// A ruleset inspects a location's business profile and proposes the tasks the
// location should work on during the next cycle. The engine stays ignorant of
// how candidates are chosen; it only persists what a ruleset returns, after
// filtering out definitions the location excluded this month.
//
// Rulesets come in two flavors: builtin (compiled into the engine) and
// external (separate binaries loaded over go-plugin). Both satisfy the same
// Ruleset interface.
package sdk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ruleset produces candidate tasks for a location.
type Ruleset interface {
	// Name returns the unique name the ruleset is registered under.
	Name() string

	// Resolve inspects the location's profile and returns an ordered list of
	// candidate tasks plus the profile snapshot it observed.
	Resolve(ctx context.Context, input ResolveInput) (ResolveOutput, error)
}

// LocationRef identifies the location a ruleset resolves tasks for. Besides
// the location id, the fields are pass-through credentials for rulesets that
// talk to the Google Business Profile API; the engine never interprets them.
type LocationRef struct {
	// LocationID is the engine's identifier for the location.
	LocationID uuid.UUID

	// PlaceID is the Google place id, if known.
	PlaceID string

	// GMBAccountID is the Google Business Profile account id, if known.
	GMBAccountID string

	// AccessToken is an OAuth token for profile access, if the caller
	// supplied one.
	AccessToken string
}

// ProfileSnapshot captures the observable state of a business profile at a
// point in time. Rulesets read it to find gaps; the engine persists it to
// score the location.
type ProfileSnapshot struct {
	BusinessName    string
	PrimaryCategory string
	Categories      []string

	HasPhone       bool
	HasWebsite     bool
	HasHours       bool
	HasDescription bool

	PhotoCount       int
	ReviewCount      int
	UnrepliedReviews int
	AverageRating    float64

	// CapturedAt is when the profile was observed. A zero CapturedAt marks a
	// snapshot that has never been taken.
	CapturedAt time.Time
}

// IsZero reports whether the snapshot has never been captured.
func (s ProfileSnapshot) IsZero() bool {
	return s.CapturedAt.IsZero()
}

// ResolveInput is everything a ruleset may consider when proposing tasks.
type ResolveInput struct {
	// Location identifies the location and carries pass-through credentials.
	Location LocationRef

	// Snapshot is the last profile snapshot the engine persisted. Zero on the
	// first refresh of a location.
	Snapshot ProfileSnapshot

	// CompletedIDs lists the definition ids the location completed during the
	// current calendar month.
	CompletedIDs []string

	// ExcludedIDs lists the definition ids the location excluded during the
	// current calendar month. Rulesets should not propose them again; the
	// engine filters them out regardless.
	ExcludedIDs []string
}

// Candidate is a proposed task. The engine treats category, type, impact,
// priority and estimated time as opaque labels; only points carry meaning.
type Candidate struct {
	// DefinitionID identifies the task definition, stable across cycles.
	DefinitionID string

	// Title is the short instruction shown on the board.
	Title string

	// Description explains why the task matters and how to do it.
	Description string

	// Category groups the task for scoring (e.g. "reviews", "posts").
	Category string

	// Type is the ruleset's own classification of the work.
	Type string

	// Impact describes the expected effect on the profile.
	Impact string

	// Priority orders the task relative to its siblings.
	Priority string

	// EstimatedTime is a human-readable effort estimate.
	EstimatedTime string

	// Points is the award for completing the task. Never negative.
	Points int
}

// Validate checks that the candidate can be persisted as a task.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.DefinitionID) == "" {
		return fmt.Errorf("candidate is missing a definition id")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("candidate %s is missing a title", c.DefinitionID)
	}
	if c.Points < 0 {
		return fmt.Errorf("candidate %s has negative points (%d)", c.DefinitionID, c.Points)
	}
	return nil
}

// ResolveOutput is what a ruleset hands back to the engine.
type ResolveOutput struct {
	// Candidates is the proposed task list, most important first. The order
	// is preserved on the board.
	Candidates []Candidate

	// Snapshot is the profile as the ruleset observed it during resolution.
	// The engine persists it and scores the location against it. Rulesets
	// without an external vantage point echo the input snapshot.
	Snapshot ProfileSnapshot
}

// FilterExcluded returns the candidates whose definition id is not in
// excludedIDs, preserving order. The engine applies it to every ruleset
// output so that a definition excluded this month never reappears, even when
// a ruleset ignores the exclusion list it was given.
func FilterExcluded(candidates []Candidate, excludedIDs []string) []Candidate {
	if len(candidates) == 0 || len(excludedIDs) == 0 {
		return candidates
	}

	excluded := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := excluded[c.DefinitionID]; ok {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
