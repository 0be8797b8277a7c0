package database

import "context"

type txKey struct{}

// TxInfo holds the transaction stored in a context and whether the current
// unit of work owns it (nested units reuse the outer transaction and must
// not commit it).
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxInfoFromContext extracts full transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	return info, ok && info.Tx != nil
}

// TxFromContext extracts the transaction from the context, nil if absent.
func TxFromContext(ctx context.Context) Transaction {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return nil
}

// ExecutorFromContext returns the context transaction if present, otherwise
// the bare connection. Repositories call this so the same code participates
// in a surrounding unit of work or runs standalone.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
