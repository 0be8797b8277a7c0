package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for common ruleset conditions.
var (
	// ErrRulesetNotFound is returned when a ruleset is not registered.
	ErrRulesetNotFound = errors.New("ruleset not found")

	// ErrRulesetAlreadyExists is returned when registering a duplicate name.
	ErrRulesetAlreadyExists = errors.New("ruleset already exists")
)

// LoadError describes a failure to load an external ruleset binary.
type LoadError struct {
	// Path is the binary that failed to load.
	Path string

	// Reason describes why loading failed.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load ruleset %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load ruleset %q: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error.
func NewLoadError(path, reason string, err error) *LoadError {
	return &LoadError{
		Path:   path,
		Reason: reason,
		Err:    err,
	}
}

// ResolveError wraps an error produced while resolving candidates, carrying
// the name of the ruleset that failed.
type ResolveError struct {
	// Ruleset is the name of the ruleset that failed.
	Ruleset string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("ruleset %s: resolve failed: %v", e.Ruleset, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// NewResolveError creates a new resolve error.
func NewResolveError(ruleset string, err error) *ResolveError {
	return &ResolveError{Ruleset: ruleset, Err: err}
}

// IsRulesetNotFound checks if the error is ErrRulesetNotFound.
func IsRulesetNotFound(err error) bool {
	return errors.Is(err, ErrRulesetNotFound)
}
