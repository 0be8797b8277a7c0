package application

import "context"

// Query is a read-only request. QueryName identifies the query in logs.
type Query interface {
	QueryName() string
}

// QueryHandler handles one query type and returns its result.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
