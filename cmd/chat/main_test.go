package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/tool"
)

// calcModel asks for calculate("2+2") on a user message and answers from
// the tool result otherwise. The first failAfterTool answers to a tool
// result fail instead.
type calcModel struct {
	failAfterTool int
	calls         int
}

func (m *calcModel) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	m.calls++
	last := messages[len(messages)-1]
	if last.Role != ai.RoleTool {
		return &ai.Response{ToolCalls: []ai.ToolCall{{
			ID:        "call_1",
			Name:      "calculate",
			Arguments: `{"expression":"2+2"}`,
		}}}, nil
	}
	if m.failAfterTool > 0 {
		m.failAfterTool--
		return nil, errors.New("connection reset")
	}
	r := last.ToolResults[0]
	if r.IsError {
		return &ai.Response{Content: "I could not run the calculation."}, nil
	}
	return &ai.Response{Content: "The result is " + r.Content + "."}, nil
}

func newTestAgent(t *testing.T, model ai.ChatProvider) *agent.Agent {
	t.Helper()
	a, err := agent.New(agent.Config{
		Model:  model,
		Tools:  tool.NewRegistry().Add(tool.Calculator()),
		Policy: gate.Gate("calculate"),
	})
	require.NoError(t, err)
	return a
}

func runSession(t *testing.T, a *agent.Agent, threadID, input string) string {
	t.Helper()
	var out bytes.Buffer
	s := &session{
		agent:    a,
		threadID: threadID,
		in:       bufio.NewReader(strings.NewReader(input)),
		out:      &out,
	}
	require.NoError(t, s.loop(context.Background()))
	return out.String()
}

func TestSession(t *testing.T) {
	t.Run("approve runs the tool", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{})
		out := runSession(t, a, "t1", "what is 2+2\napprove\nq\n")

		assert.Contains(t, out, "Approval needed")
		assert.Contains(t, out, "expression: 2+2")
		assert.Contains(t, out, "Assistant: The result is 4.")
	})

	t.Run("reject skips the tool", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{})
		out := runSession(t, a, "t1", "what is 2+2\nreject\nq\n")

		assert.Contains(t, out, "Assistant: I could not run the calculation.")
		assert.NotContains(t, out, "The result is")
	})

	t.Run("invalid decision prompts again", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{})
		out := runSession(t, a, "t1", "what is 2+2\nmaybe\nAPPROVE\nq\n")

		assert.Equal(t, 1, strings.Count(out, "Please answer approve or reject."))
		assert.Equal(t, 2, strings.Count(out, "approve or reject? "))
		assert.Contains(t, out, "The result is 4.")
	})

	t.Run("model failure after approval", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{failAfterTool: 1})
		out := runSession(t, a, "t1", "what is 2+2\napprove\n/retry\nq\n")

		assert.Contains(t, out, "Error:")
		assert.Contains(t, out, "connection reset")
		assert.Contains(t, out, "Type /retry to try the turn again.")
		assert.Contains(t, out, "Assistant: The result is 4.")

		conv, err := a.Conversation(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, agent.StateAwaitingInput, conv.State)
	})

	t.Run("retry with nothing to retry", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{})
		out := runSession(t, a, "t1", "/retry\nq\n")

		assert.Contains(t, out, "Error:")
		assert.NotContains(t, out, "Type /retry")
	})

	t.Run("pending approval from an earlier session", func(t *testing.T) {
		a := newTestAgent(t, &calcModel{})

		// Input ends at the approval prompt.
		out := runSession(t, a, "t1", "what is 2+2\n")
		assert.Contains(t, out, "Approval needed")

		out = runSession(t, a, "t1", "approve\nq\n")
		assert.True(t, strings.HasPrefix(out, "\nApproval needed"), out)
		assert.Contains(t, out, "Assistant: The result is 4.")
	})

	for _, cmd := range []string{"q", "quit", "exit"} {
		t.Run("quit with "+cmd, func(t *testing.T) {
			model := &calcModel{}
			a := newTestAgent(t, model)
			runSession(t, a, "t1", "\n"+cmd+"\nwhat is 2+2\n")
			assert.Zero(t, model.calls)
		})
	}

	t.Run("end of input", func(t *testing.T) {
		model := &calcModel{}
		a := newTestAgent(t, model)
		runSession(t, a, "t1", "")
		assert.Zero(t, model.calls)
	})
}
