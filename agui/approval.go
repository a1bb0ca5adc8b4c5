package agui

import (
	"encoding/json"
	"errors"

	"github.com/spetersoncode/gatekeep/gate"
)

// ApprovalInput is an approval decision sent by the frontend for a
// suspended tool call.
type ApprovalInput struct {
	ToolCallID string `json:"toolCallId"`
	Decision   string `json:"decision"`
}

// ParseApprovalInput parses an approval decision from JSON.
func ParseApprovalInput(data []byte) (*ApprovalInput, error) {
	var input ApprovalInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	if input.ToolCallID == "" {
		return nil, errors.New("agui: toolCallId is required")
	}
	return &input, nil
}

// ToDecision returns the strict gate decision. Anything other than
// "approve" or "reject" is gate.ErrInvalidDecision.
func (a *ApprovalInput) ToDecision() (gate.Decision, error) {
	return gate.ParseDecision(a.Decision)
}
