package database

import "context"

// GenericUnitOfWork implements application.UnitOfWork over any Connection,
// so command handlers stay driver-agnostic.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work bound to a connection.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts a transaction and stores it in the context. When the context
// already carries one, the unit joins it marked not-owned so only the
// outermost unit decides the outcome.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	return WithTx(ctx, tx, true), nil
}

// Commit commits the context transaction. Units that joined an outer
// transaction return nil and leave the commit to its owner.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	tx, owned, err := ownedTx(ctx)
	if err != nil || !owned {
		return err
	}
	return tx.Commit(ctx)
}

// Rollback rolls back the context transaction. Units that joined an outer
// transaction return nil and leave the rollback to its owner.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	tx, owned, err := ownedTx(ctx)
	if err != nil || !owned {
		return err
	}
	return tx.Rollback(ctx)
}

func ownedTx(ctx context.Context) (Transaction, bool, error) {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return nil, false, ErrNoTransaction
	}
	return info.Tx, info.Owned, nil
}
