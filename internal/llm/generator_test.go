package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/types"
)

func TestSplitConversation(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleSystem, Content: "You are a parser."},
		{Role: types.RoleUser, Content: "first request"},
		{Role: types.RoleAssistant, Content: `{"ok": true}`},
		{Role: types.RoleUser, Content: "revise it"},
	}

	system, history, last, err := splitConversation(messages)
	require.NoError(t, err)

	assert.Equal(t, "You are a parser.", system)
	assert.Equal(t, "revise it", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
}

func TestSplitConversation_NoSystemMessage(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: "just a question"},
	}

	system, history, last, err := splitConversation(messages)
	require.NoError(t, err)

	assert.Empty(t, system)
	assert.Empty(t, history)
	assert.Equal(t, "just a question", last)
}

func TestSplitConversation_Invalid(t *testing.T) {
	_, _, _, err := splitConversation(nil)
	assert.Error(t, err)

	// Must end with a user message
	_, _, _, err = splitConversation([]types.Message{
		{Role: types.RoleUser, Content: "q"},
		{Role: types.RoleAssistant, Content: "a"},
	})
	assert.Error(t, err)

	// A lone system message has no user turn
	_, _, _, err = splitConversation([]types.Message{
		{Role: types.RoleSystem, Content: "sys"},
	})
	assert.Error(t, err)
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanJSONBlock(tt.input))
		})
	}
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), nil, "")
	assert.Error(t, err)
}
