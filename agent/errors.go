package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrApprovalPending is returned by Send while the thread waits for a decision.
	ErrApprovalPending = errors.New("agent: approval pending")

	// ErrThreadNotFound is returned when resuming a thread that does not exist.
	ErrThreadNotFound = errors.New("agent: thread not found")

	// ErrTurnIncomplete is returned by Send when the previous turn stopped on
	// a failure and must be retried first.
	ErrTurnIncomplete = errors.New("agent: previous turn incomplete")

	// ErrNothingToRetry is returned by Retry when the thread has no interrupted turn.
	ErrNothingToRetry = errors.New("agent: nothing to retry")

	// ErrMaxSteps indicates a turn exceeded the configured number of model queries.
	ErrMaxSteps = errors.New("agent: maximum steps reached")

	// ErrModelQuery matches every *ModelQueryError.
	ErrModelQuery = errors.New("agent: model query failed")

	// ErrNotApproved is returned when a gated call reaches execution without an approve decision.
	ErrNotApproved = errors.New("agent: gated tool call has not been approved")
)

// ModelQueryError reports a failed model query. The turn ends, and the
// conversation is saved so the query can be retried.
type ModelQueryError struct {
	ThreadID string
	Agent    string
	Step     int
	Err      error
}

func (e *ModelQueryError) Error() string {
	return fmt.Sprintf("agent: model query failed (thread %s, step %d): %v", e.ThreadID, e.Step, e.Err)
}

func (e *ModelQueryError) Unwrap() error { return e.Err }

func (e *ModelQueryError) Is(target error) bool { return target == ErrModelQuery }
