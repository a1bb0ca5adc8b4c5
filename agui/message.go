package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/gatekeep"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// FromMessages converts a conversation history to AG-UI messages for a
// MESSAGES_SNAPSHOT. A tool message with several results becomes one AG-UI
// message per result.
func FromMessages(msgs []ai.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == ai.RoleTool {
			for _, tr := range msg.ToolResults {
				result = append(result, events.Message{
					ID:         events.GenerateMessageID(),
					Role:       RoleTool,
					Content:    ptr(tr.Content),
					ToolCallID: ptr(tr.ToolCallID),
				})
			}
			continue
		}
		result = append(result, FromMessage(msg))
	}
	return result
}

// FromMessage converts a single message to an AG-UI message.
func FromMessage(msg ai.Message) events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	m := events.Message{ID: id, Role: fromRole(msg.Role)}
	if msg.Content != "" {
		m.Content = ptr(msg.Content)
	}

	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			}
		}
	}
	return m
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	case ai.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}

func ptr(s string) *string { return &s }
