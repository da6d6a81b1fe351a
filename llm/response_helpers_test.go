package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstChoice(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		_, err := FirstChoice(nil)
		assert.Error(t, err)
	})

	t.Run("empty choices", func(t *testing.T) {
		_, err := FirstChoice(&ChatResponse{})
		assert.Error(t, err)
	})

	t.Run("returns first of several", func(t *testing.T) {
		resp := &ChatResponse{Choices: []ChatChoice{
			{Index: 0, Message: Message{Role: RoleAssistant, Content: "first"}},
			{Index: 1, Message: Message{Role: RoleAssistant, Content: "second"}},
		}}
		choice, err := FirstChoice(resp)
		require.NoError(t, err)
		assert.Equal(t, "first", choice.Message.Content)
	})
}

func TestFirstContent(t *testing.T) {
	resp := &ChatResponse{Choices: []ChatChoice{
		{Message: Message{Role: RoleAssistant, Content: `{"action":"goto","params":{}}`}},
	}}
	content, err := FirstContent(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"goto","params":{}}`, content)

	_, err = FirstContent(&ChatResponse{})
	assert.Error(t, err)
}
