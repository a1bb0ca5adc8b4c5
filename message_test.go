package gatekeep

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleConstants(t *testing.T) {
	assert.Equal(t, Role("user"), RoleUser)
	assert.Equal(t, Role("assistant"), RoleAssistant)
	assert.Equal(t, Role("system"), RoleSystem)
	assert.Equal(t, Role("tool"), RoleTool)
}

func TestGenerateMessageID(t *testing.T) {
	a := GenerateMessageID()
	b := GenerateMessageID()
	assert.True(t, strings.HasPrefix(a, "msg-"))
	assert.NotEqual(t, a, b)
}

func TestMessageConstructors(t *testing.T) {
	u := NewUserMessage("hi")
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "hi", u.Content)
	assert.NotEmpty(t, u.ID)

	a := NewAssistantMessage("", ToolCall{ID: "c1", Name: "calculate"})
	assert.Equal(t, RoleAssistant, a.Role)
	assert.True(t, a.HasToolCalls())
	assert.False(t, u.HasToolCalls())
}

func TestToolCallArgs(t *testing.T) {
	t.Run("decodes object", func(t *testing.T) {
		args, err := ToolCall{Name: "calculate", Arguments: `{"expression":"2+2"}`}.Args()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"expression": "2+2"}, args)
	})

	t.Run("empty arguments", func(t *testing.T) {
		args, err := ToolCall{Name: "now"}.Args()
		require.NoError(t, err)
		assert.Empty(t, args)
	})

	t.Run("null decodes to empty map", func(t *testing.T) {
		args, err := ToolCall{Name: "now", Arguments: "null"}.Args()
		require.NoError(t, err)
		assert.NotNil(t, args)
	})

	t.Run("rejects non-object", func(t *testing.T) {
		_, err := ToolCall{Name: "calculate", Arguments: `[1,2]`}.Args()
		assert.Error(t, err)
	})
}

func TestNewToolResultMessage(t *testing.T) {
	msg := NewToolResultMessage(ToolResult{ToolCallID: "c1", Content: "4"})
	assert.Equal(t, RoleTool, msg.Role)
	require.Len(t, msg.ToolResults, 1)
	assert.Equal(t, "c1", msg.ToolResults[0].ToolCallID)
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions(WithModel("m"), WithMaxTokens(10), WithTemperature(0.5), WithTools(Tool{Name: "x"}))
	assert.Equal(t, "m", o.Model)
	assert.Equal(t, 10, o.MaxTokens)
	require.NotNil(t, o.Temperature)
	assert.Equal(t, 0.5, *o.Temperature)
	assert.Len(t, o.Tools, 1)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("anthropic")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p)

	_, err = ParseProvider("vertex")
	assert.Error(t, err)
}
