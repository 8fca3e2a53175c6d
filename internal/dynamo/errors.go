package dynamo

import "errors"

// Domain errors for engine commands and parameters.
var (
	// ErrInvalidParams indicates G, dt or eps outside their valid range.
	ErrInvalidParams = errors.New("dynamo: invalid parameters")

	// ErrInvalidBody indicates a body with non-positive mass or non-finite values.
	ErrInvalidBody = errors.New("dynamo: invalid body")

	// ErrInvalidStepCount indicates a step request below one.
	ErrInvalidStepCount = errors.New("dynamo: step count must be at least 1")

	// ErrUnknownCommand indicates a message that matches no command shape.
	ErrUnknownCommand = errors.New("dynamo: unknown command")

	// ErrUnknownMethod indicates an integration method name or value that is not supported.
	ErrUnknownMethod = errors.New("dynamo: unknown integration method")

	// ErrEngineStopped indicates the engine worker is no longer running.
	ErrEngineStopped = errors.New("dynamo: engine stopped")

	// ErrNotLoaded indicates a command that needs bodies arrived before any were loaded.
	ErrNotLoaded = errors.New("dynamo: no bodies loaded")
)

// CommandError wraps a rejected command with its name.
type CommandError struct {
	Command string
	Wrapped error
}

func (e *CommandError) Error() string {
	return e.Command + ": " + e.Wrapped.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Wrapped
}
