package chain

import (
	"errors"
	"fmt"
)

// Build and lifecycle errors. They are returned synchronously and never stop
// a running worker.
var (
	ErrNilComponent       = errors.New("component is nil")
	ErrConnectionExists   = errors.New("connection already exists")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrNoStartComponent   = errors.New("no start component set")
	ErrUnusedConnection   = errors.New("unused connection")
	ErrFeedbackMerge      = errors.New("can't merge feedback subchains")
	ErrAlreadyRunning     = errors.New("chain is already running")
	ErrNotRunning         = errors.New("chain is not running")
	ErrStopTimeout        = errors.New("worker did not stop in time and was abandoned")
)

// Op names the component operation that failed.
type Op string

const (
	OpPush     Op = "push"
	OpPull     Op = "pull"
	OpFeedback Op = "feedback"
)

// ComponentError is a runtime failure reported by a component during an
// iteration.
type ComponentError struct {
	Component string
	Op        Op
	Iteration int64
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component '%s' failed on %s in iteration %d: %v", e.Component, e.Op, e.Iteration, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// ExitInfo describes why a worker terminated.
type ExitInfo struct {
	Chain      string
	RunID      string
	Iterations int64

	HadError    bool
	Component   string
	Description string
	Err         error
}
