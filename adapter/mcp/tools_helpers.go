package mcp

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// resolveLocationID picks the location a tool call acts on: an explicit
// value wins, otherwise the configured default location.
func resolveLocationID(deps ToolDependencies, value string) (uuid.UUID, error) {
	if value != "" {
		id, err := uuid.Parse(value)
		if err != nil {
			return uuid.UUID{}, fmt.Errorf("invalid locationId: %w", err)
		}
		return id, nil
	}
	if deps.DefaultLocationID == uuid.Nil {
		return uuid.UUID{}, errors.New("no location configured; pass locationId or set ENGAGE_LOCATION_ID")
	}
	return deps.DefaultLocationID, nil
}
