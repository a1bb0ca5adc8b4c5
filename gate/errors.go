package gate

import "errors"

var (
	// ErrInvalidDecision is returned for any decision other than approve or reject.
	ErrInvalidDecision = errors.New("gate: decision must be approve or reject")

	// ErrDecisionNotAllowed is returned when the tool's rule does not permit the decision.
	ErrDecisionNotAllowed = errors.New("gate: decision not allowed for this tool")

	// ErrUnknownCallID is returned when resolving a call id that was never submitted.
	ErrUnknownCallID = errors.New("gate: unknown call id")

	// ErrAlreadyResolved is returned when resolving a call id a second time.
	ErrAlreadyResolved = errors.New("gate: approval already resolved")

	// ErrOutstanding is returned when submitting while another approval is pending.
	ErrOutstanding = errors.New("gate: another approval is outstanding")

	// ErrDuplicateCall is returned when submitting a call id that was already seen.
	ErrDuplicateCall = errors.New("gate: call id already submitted")
)
