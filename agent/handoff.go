package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	ai "github.com/spetersoncode/gatekeep"
)

const handoffPrefix = "transfer_to_"

// HandoffToolName returns the tool name that transfers a turn to the named agent.
func HandoffToolName(name string) string {
	var b strings.Builder
	b.WriteString(handoffPrefix)
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var emptyParams = json.RawMessage(`{"type":"object","properties":{}}`)

func (a *Agent) handoffTools() []ai.Tool {
	tools := make([]ai.Tool, 0, len(a.cfg.Handoffs))
	for _, h := range a.cfg.Handoffs {
		desc := h.cfg.Description
		if desc == "" {
			desc = fmt.Sprintf("Hand the conversation to %s.", h.cfg.Name)
		}
		tools = append(tools, ai.Tool{
			Name:        HandoffToolName(h.cfg.Name),
			Description: desc,
			Parameters:  emptyParams,
		})
	}
	return tools
}

// handoffTarget returns the specialist a tool name transfers to.
func (a *Agent) handoffTarget(toolName string) (*Agent, bool) {
	if !strings.HasPrefix(toolName, handoffPrefix) {
		return nil, false
	}
	for _, h := range a.cfg.Handoffs {
		if HandoffToolName(h.cfg.Name) == toolName {
			return h, true
		}
	}
	return nil, false
}

// find looks up an agent by name in this agent's handoff tree.
// The empty name is the receiver.
func (a *Agent) find(name string) (*Agent, bool) {
	return a.findFrom(name, map[*Agent]bool{})
}

func (a *Agent) findFrom(name string, visited map[*Agent]bool) (*Agent, bool) {
	if name == "" || name == a.cfg.Name {
		return a, true
	}
	visited[a] = true
	for _, h := range a.cfg.Handoffs {
		if visited[h] {
			continue
		}
		if found, ok := h.findFrom(name, visited); ok {
			return found, true
		}
	}
	return nil, false
}

// validateHandoffs checks that every target is named and that handoff tool
// names are unique and do not shadow registered tools.
func (a *Agent) validateHandoffs() error {
	names := map[string]bool{}
	for _, h := range a.cfg.Handoffs {
		if h == nil {
			return fmt.Errorf("agent: nil handoff target")
		}
		if h.cfg.Name == "" {
			return fmt.Errorf("agent: handoff target requires a name")
		}
		toolName := HandoffToolName(h.cfg.Name)
		if names[toolName] {
			return fmt.Errorf("agent: duplicate handoff %s", toolName)
		}
		names[toolName] = true
		if _, clash := a.cfg.Tools.Get(toolName); clash {
			return fmt.Errorf("agent: handoff %s collides with a registered tool", toolName)
		}
	}
	return nil
}
