// Package listing defines the port to the side-effect collaborator that
// pushes completed task changes to the listing provider.
//
// The engine never calls the Google Business Profile API itself. When a task
// completes, it hands the task to an Applier and records what the
// collaborator reports back. An applier failure aborts the whole completion:
// no points may be awarded for a task whose real-world effect did not land.
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrListingUnavailable is returned when calls to the collaborator are being
// shed because its circuit breaker is open.
var ErrListingUnavailable = errors.New("listing collaborator unavailable")

// Request identifies the completed task whose side effect should be applied.
type Request struct {
	// LocationID is the location the task belongs to.
	LocationID uuid.UUID

	// TaskID is the completed task instance.
	TaskID uuid.UUID

	// DefinitionID names the task definition; it tells the collaborator
	// which change to push.
	DefinitionID string

	// Category is the task's category label.
	Category string
}

// Outcome is the collaborator's report for one side effect.
type Outcome struct {
	// Updated reports whether a change was pushed to the listing provider.
	// Tasks without a listing-side effect report false.
	Updated bool

	// Note describes what was pushed, empty when nothing was.
	Note string
}

// Applier applies a completed task's side effect at the listing provider.
type Applier interface {
	Apply(ctx context.Context, req Request) (Outcome, error)
}

// CollaboratorError wraps an applier failure. Completion handlers roll the
// whole transaction back when they see one.
type CollaboratorError struct {
	// DefinitionID is the task definition whose side effect failed.
	DefinitionID string

	// Err is the applier's error.
	Err error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("listing collaborator failed for %s: %v", e.DefinitionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError wraps an applier failure.
func NewCollaboratorError(definitionID string, err error) *CollaboratorError {
	return &CollaboratorError{DefinitionID: definitionID, Err: err}
}

// IsCollaboratorError checks whether err is a collaborator failure.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

// NoopApplier acknowledges every side effect without pushing anything.
// Local mode and tests run with it; completions report no listing update.
type NoopApplier struct{}

// Apply reports that nothing was pushed.
func (NoopApplier) Apply(context.Context, Request) (Outcome, error) {
	return Outcome{}, nil
}
