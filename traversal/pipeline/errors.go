package pipeline

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned by any mutation attempted after strategies have
// been applied and the pipeline locked.
var ErrFrozen = errors.New("pipeline is frozen")

// InvariantError reports a proposed edit that would break one of the
// pipeline's structural invariants. It is fatal for the current apply;
// callers discard the pipeline rather than recover.
type InvariantError struct {
	StepID string
	Reason string
}

func (e *InvariantError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("pipeline invariant violated: %s", e.Reason)
	}
	return fmt.Sprintf("pipeline invariant violated at step %s: %s", e.StepID, e.Reason)
}

func invariantf(stepID, format string, args ...interface{}) *InvariantError {
	return &InvariantError{StepID: stepID, Reason: fmt.Sprintf(format, args...)}
}
