package application

import "context"

// Command is a request that modifies system state. CommandName identifies
// the command in logs and conflict-retry diagnostics.
type Command interface {
	CommandName() string
}

// CommandHandler handles one command type.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}
