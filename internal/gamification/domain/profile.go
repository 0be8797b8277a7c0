package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSnapshotNotFound is returned when a location has no stored snapshot.
var ErrSnapshotNotFound = errors.New("profile snapshot not found")

// Snapshot is the engine's last known view of a location's public listing.
// Rulesets observe the listing while resolving candidates and hand back a
// fresh snapshot; the engine persists it for scoring. Plain data, last
// write wins.
type Snapshot struct {
	LocationID       uuid.UUID
	BusinessName     string
	PrimaryCategory  string
	Categories       []string
	HasPhone         bool
	HasWebsite       bool
	HasHours         bool
	HasDescription   bool
	PhotoCount       int
	ReviewCount      int
	UnrepliedReviews int
	AverageRating    float64
	CapturedAt       time.Time
}
