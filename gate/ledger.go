package gate

import (
	"fmt"
	"slices"
	"time"
)

// Pending is an approval request awaiting a human decision.
type Pending struct {
	CallID      string         `json:"callId"`
	ToolName    string         `json:"toolName"`
	Arguments   map[string]any `json:"arguments"`
	Description string         `json:"description,omitempty"`
	Allowed     []Decision     `json:"allowedDecisions,omitempty"`
	RequestedAt time.Time      `json:"requestedAt"`
}

// Outcome is a resolved approval request.
type Outcome struct {
	Pending
	Decision   Decision  `json:"decision"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Approved reports whether the reviewer approved the call.
func (o Outcome) Approved() bool { return o.Decision == Approve }

// Ledger records approval requests and decisions for one conversation.
// The zero value is ready to use. A Ledger is not safe for concurrent use;
// it is owned by the conversation that holds it.
type Ledger struct {
	Pending  map[string]Pending `json:"pending,omitempty"`
	Resolved map[string]Outcome `json:"resolved,omitempty"`
	// Order lists call ids in the order they were submitted.
	Order []string `json:"order,omitempty"`
}

// Submit records an approval request. Only one request may be outstanding
// at a time, and a call id can be submitted only once.
func (l *Ledger) Submit(p Pending) (Pending, error) {
	if p.CallID == "" {
		return Pending{}, fmt.Errorf("gate: submit requires a call id")
	}
	if len(l.Pending) > 0 {
		return Pending{}, ErrOutstanding
	}
	if _, seen := l.Resolved[p.CallID]; seen {
		return Pending{}, fmt.Errorf("%w: %s", ErrDuplicateCall, p.CallID)
	}
	if p.RequestedAt.IsZero() {
		p.RequestedAt = time.Now().UTC()
	}
	if len(p.Allowed) == 0 {
		p.Allowed = slices.Clone(Decisions)
	}
	if l.Pending == nil {
		l.Pending = make(map[string]Pending)
	}
	l.Pending[p.CallID] = p
	l.Order = append(l.Order, p.CallID)
	return p, nil
}

// Resolve applies a decision to a pending request. The ledger is left
// unchanged when an error is returned.
func (l *Ledger) Resolve(callID string, d Decision) (Outcome, error) {
	if !d.Valid() {
		return Outcome{}, fmt.Errorf("%w: got %q", ErrInvalidDecision, d)
	}
	if _, done := l.Resolved[callID]; done {
		return Outcome{}, fmt.Errorf("%w: %s", ErrAlreadyResolved, callID)
	}
	p, ok := l.Pending[callID]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCallID, callID)
	}
	if !slices.Contains(p.Allowed, d) {
		return Outcome{}, fmt.Errorf("%w: %s for %s", ErrDecisionNotAllowed, d, p.ToolName)
	}

	out := Outcome{Pending: p, Decision: d, ResolvedAt: time.Now().UTC()}
	delete(l.Pending, callID)
	if l.Resolved == nil {
		l.Resolved = make(map[string]Outcome)
	}
	l.Resolved[callID] = out
	return out, nil
}

// Outstanding returns the pending request, if any.
func (l *Ledger) Outstanding() (Pending, bool) {
	for _, p := range l.Pending {
		return p, true
	}
	return Pending{}, false
}

// Decision returns the decision recorded for a call id.
func (l *Ledger) Decision(callID string) (Decision, bool) {
	out, ok := l.Resolved[callID]
	return out.Decision, ok
}

// Approved reports whether the call id was resolved with approve.
func (l *Ledger) Approved(callID string) bool {
	d, ok := l.Decision(callID)
	return ok && d == Approve
}

// Outcomes returns all resolved requests in the order they were submitted.
func (l *Ledger) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(l.Resolved))
	for _, id := range l.Order {
		if o, ok := l.Resolved[id]; ok {
			out = append(out, o)
		}
	}
	return out
}
