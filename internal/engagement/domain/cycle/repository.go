package cycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

// ErrRecordNotFound is returned when no cycle record exists.
var ErrRecordNotFound = errors.New("cycle record not found")

// Repository defines the interface for cycle record persistence.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	FindLatest(ctx context.Context, locationID uuid.UUID) (*Record, error)
	FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week domain.CycleWeek) (*Record, error)
}
