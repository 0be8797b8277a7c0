package outbox

import (
	"context"
	"time"
)

// Repository is the storage half of the outbox. Save and SaveBatch run
// inside the caller's transaction when the context carries one; the rest
// are relay-side operations on their own connections.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically. When the
	// context carries a transaction the batch joins it instead of
	// opening its own.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns messages awaiting publication, oldest
	// first. Includes failed messages whose backoff has elapsed and
	// skips dead-lettered ones.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished stamps a message as delivered to the broker.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed bumps the retry counter and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead parks a message that exhausted its retries.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than the retention
	// period, returning how many were deleted.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
