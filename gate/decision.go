package gate

import (
	"fmt"
	"strings"
)

// Decision is a human verdict on a gated tool call.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// Decisions lists every valid decision.
var Decisions = []Decision{Approve, Reject}

// ParseDecision converts user input into a Decision. Surrounding whitespace
// and letter case are ignored. Anything other than approve or reject is an
// error wrapping ErrInvalidDecision.
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDecision, s)
	}
	return d, nil
}

// Valid reports whether d is approve or reject.
func (d Decision) Valid() bool {
	return d == Approve || d == Reject
}

func (d Decision) String() string { return string(d) }
