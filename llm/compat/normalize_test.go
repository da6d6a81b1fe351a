package compat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/llm"
)

func fallbackGoto() action.Action {
	fb := action.New(action.Goto)
	fb.Params["url"] = "http://localhost:3000"
	return fb
}

func TestNormalize_AttachesParsedAction(t *testing.T) {
	resp := &llm.ChatResponse{
		Model:     "qwen2.5vl:3b",
		CreatedAt: time.Unix(1700000000, 0),
		Choices: []llm.ChatChoice{
			{Index: 0, FinishReason: "stop", Message: llm.Message{
				Role:    llm.RoleAssistant,
				Content: `{"action": "click", "params": {"text": "Start"}}`,
			}},
		},
		Usage: llm.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	norm := Normalize(resp, fallbackGoto())

	require.Len(t, norm.Choices, 1)
	assert.Equal(t, "click", norm.Choices[0].Action.Name)
	assert.Equal(t, map[string]any{"text": "Start"}, norm.Choices[0].Action.Params)
	// original text preserved verbatim
	assert.Equal(t, `{"action": "click", "params": {"text": "Start"}}`, norm.Choices[0].Message.Content)

	assert.Equal(t, NormalizedUsage{
		PromptTokens:     10,
		CompletionTokens: 5,
		TotalTokens:      15,
	}, norm.Usage)
}

func TestNormalize_FallbackOnUnparseableChoice(t *testing.T) {
	resp := &llm.ChatResponse{
		Choices: []llm.ChatChoice{
			{Index: 0, Message: llm.Message{Role: llm.RoleAssistant, Content: "no json here"}},
			{Index: 1, Message: llm.Message{Role: llm.RoleAssistant, Content: `{"action": "finish", "params": {}}`}},
		},
	}

	norm := Normalize(resp, fallbackGoto())

	// one bad choice never aborts the response
	require.Len(t, norm.Choices, 2)
	assert.Equal(t, fallbackGoto(), norm.Choices[0].Action)
	assert.Equal(t, "finish", norm.Choices[1].Action.Name)
}

func TestNormalize_MissingUsageDefaultsToZeroedRecord(t *testing.T) {
	norm := Normalize(&llm.ChatResponse{}, fallbackGoto())
	assert.Equal(t, NormalizedUsage{}, norm.Usage)

	norm = Normalize(nil, fallbackGoto())
	assert.Equal(t, NormalizedUsage{}, norm.Usage)
	assert.Empty(t, norm.Choices)
}

func TestNormalize_DoesNotMutateInputAndIsRepeatable(t *testing.T) {
	resp := &llm.ChatResponse{
		Model: "m",
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: `{"action": "goto", "params": {"url": "/"}}`}},
		},
		Usage: llm.ChatUsage{TotalTokens: 3},
	}
	before := *resp

	first := Normalize(resp, fallbackGoto())
	second := Normalize(resp, fallbackGoto())

	assert.Equal(t, before, *resp, "input response must not be mutated")
	assert.Equal(t, first, second, "normalization must be repeatable")
	assert.Equal(t, first.Choices[0].Action, second.Choices[0].Action)
}
