package broker

import (
	"errors"
	"fmt"
)

// ErrTimeout means a request's deadline elapsed before the engine answered.
// Only the timed-out request is affected.
var ErrTimeout = errors.New("analysis request timed out")

// ErrInvalidVisits rejects a non-positive visit budget before anything is
// written to the engine.
var ErrInvalidVisits = errors.New("visit budget must be positive")

// A TerminatedError means the engine process exited. It is broadcast to every
// pending request and returned immediately by every later call.
type TerminatedError struct {
	ExitCode int
}

func (e *TerminatedError) Error() string {
	return fmt.Sprintf("engine process terminated with exit code %d", e.ExitCode)
}

// An EngineError carries an explicit error the engine reported for one query.
// It affects only that request.
type EngineError struct {
	ID      string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error for query %s: %s", e.ID, e.Message)
}
