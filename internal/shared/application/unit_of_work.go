package application

import "context"

// UnitOfWork groups repository writes into one atomic transaction. A task
// status change and the ledger append it causes must commit together or
// not at all.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// NoopUnitOfWork satisfies UnitOfWork without transactional backing.
// In-memory repositories apply writes immediately, so there is nothing
// to commit or roll back.
type NoopUnitOfWork struct{}

// NewNoopUnitOfWork creates a pass-through unit of work.
func NewNoopUnitOfWork() NoopUnitOfWork { return NoopUnitOfWork{} }

// Begin returns the context unchanged.
func (NoopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }

// Commit does nothing.
func (NoopUnitOfWork) Commit(context.Context) error { return nil }

// Rollback does nothing.
func (NoopUnitOfWork) Rollback(context.Context) error { return nil }

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn inside a transaction, committing on success and
// rolling back on error.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}
