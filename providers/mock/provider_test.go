package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/llm"
)

func TestCompletion_ReturnsCannedGotoAction(t *testing.T) {
	p := NewProvider("http://localhost:3000", nil)

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "qwen2.5vl:3b",
		Messages: []llm.Message{llm.NewUserMessage("next?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "mock", resp.Provider)
	assert.Equal(t, "qwen2.5vl:3b", resp.Model)
	assert.Equal(t, llm.ChatUsage{}, resp.Usage, "no tokens consumed offline")

	content, err := llm.FirstContent(resp)
	require.NoError(t, err)

	act, failure := action.Parse(content)
	require.Nil(t, failure, "canned reply must survive the parse pipeline")
	assert.Equal(t, action.Goto, act.Name)
	assert.Equal(t, "http://localhost:3000", act.Params["url"])
}

func TestCompletion_CancelledContext(t *testing.T) {
	p := NewProvider("http://localhost:3000", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Completion(ctx, &llm.ChatRequest{Model: "qwen2.5vl:3b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealthCheck_AlwaysHealthy(t *testing.T) {
	p := NewProvider("http://localhost:3000", nil)

	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
