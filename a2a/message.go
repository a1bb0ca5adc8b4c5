package a2a

import (
	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
)

// Data part types used for the approval handshake.
const (
	DataTypeApprovalRequest = "approval_request"
	DataTypeApproval        = "approval"
	DataTypeToolCall        = "tool_call"
	DataTypeToolResult      = "tool_result"
)

// FromMessages converts conversation messages to A2A messages.
func FromMessages(msgs []ai.Message) []Message {
	result := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, FromMessage(msg))
	}
	return result
}

// FromMessage converts a conversation message to an A2A message. Tool calls
// and results become data parts.
func FromMessage(msg ai.Message) Message {
	m := NewMessage(fromRole(msg.Role))
	if msg.ID != "" {
		m.MessageID = msg.ID
	}

	var parts []Part
	if msg.Content != "" {
		parts = append(parts, NewTextPart(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		parts = append(parts, NewDataPart(map[string]any{
			"type":      DataTypeToolCall,
			"id":        tc.ID,
			"name":      tc.Name,
			"arguments": tc.Arguments,
		}))
	}
	for _, tr := range msg.ToolResults {
		parts = append(parts, NewDataPart(map[string]any{
			"type":       DataTypeToolResult,
			"toolCallId": tr.ToolCallID,
			"content":    tr.Content,
			"isError":    tr.IsError,
		}))
	}

	m.Parts = parts
	return m
}

func fromRole(role ai.Role) MessageRole {
	if role == ai.RoleUser {
		return MessageRoleUser
	}
	return MessageRoleAgent
}

// ApprovalRequestPart describes a pending tool call for the client.
func ApprovalRequestPart(p gate.Pending) DataPart {
	allowed := make([]string, 0, len(p.Allowed))
	for _, d := range p.Allowed {
		allowed = append(allowed, string(d))
	}
	if len(allowed) == 0 {
		allowed = []string{string(gate.Approve), string(gate.Reject)}
	}
	return NewDataPart(map[string]any{
		"type":             DataTypeApprovalRequest,
		"toolCallId":       p.CallID,
		"toolName":         p.ToolName,
		"arguments":        p.Arguments,
		"description":      p.Description,
		"allowedDecisions": allowed,
	})
}

// ApprovalPart is the client's answer to an approval request.
func ApprovalPart(callID string, d gate.Decision) DataPart {
	return NewDataPart(map[string]any{
		"type":       DataTypeApproval,
		"toolCallId": callID,
		"decision":   string(d),
	})
}

// Approval is a decision carried in a message.
type Approval struct {
	ToolCallID string
	Decision   string
}

// ApprovalFromMessage extracts the first approval data part of msg.
func ApprovalFromMessage(msg Message) (Approval, bool) {
	for _, part := range msg.Parts {
		dp, ok := part.(DataPart)
		if !ok {
			continue
		}
		data, ok := dp.Data.(map[string]any)
		if !ok || data["type"] != DataTypeApproval {
			continue
		}
		callID, _ := data["toolCallId"].(string)
		decision, _ := data["decision"].(string)
		return Approval{ToolCallID: callID, Decision: decision}, true
	}
	return Approval{}, false
}
