package compat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/testutil/mocks"
)

const targetURL = "http://localhost:3000"

const validGoto = `{"action": "goto", "params": {"url": "http://localhost:3000"}}`

func TestValidateAndRetry_ValidFirstTry(t *testing.T) {
	stub := mocks.NewModelStub()
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	text, act, err := v.ValidateAndRetry(context.Background(), validGoto)
	require.NoError(t, err)
	assert.Equal(t, validGoto, text)
	assert.Equal(t, "goto", act.Name)
	assert.Equal(t, 0, stub.CallCount(), "a valid reply must not trigger any probe")
}

func TestValidateAndRetry_RecoversOnFirstProbe(t *testing.T) {
	stub := mocks.NewModelStub(validGoto)
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	text, act, err := v.ValidateAndRetry(context.Background(), "no json here")
	require.NoError(t, err)
	assert.Equal(t, validGoto, text)
	assert.Equal(t, "goto", act.Name)
	require.Equal(t, 1, stub.CallCount())

	// first probe explains the parse failure next to a minimal example
	probe := stub.Calls()[0]
	require.Len(t, probe.Request.Messages, 1)
	content := probe.Request.Messages[0].Content
	assert.Contains(t, content, "Reply with ONLY JSON")
	assert.Contains(t, content, validGoto)
	assert.Contains(t, content, "Error: no-json")
	assert.Equal(t, float32(0.1), probe.Request.Temperature)
}

func TestValidateAndRetry_RecoversOnSecondProbe(t *testing.T) {
	stub := mocks.NewModelStub("still not json", validGoto)
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	_, act, err := v.ValidateAndRetry(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Equal(t, "goto", act.Name)
	require.Equal(t, 2, stub.CallCount(), "exactly 2 probes beyond the initial parse")

	// second probe demands the exact literal template
	final := stub.Calls()[1]
	assert.Equal(t, "Respond exactly: "+validGoto, final.Request.Messages[0].Content)
}

func TestValidateAndRetry_ExhaustsAfterTwoProbes(t *testing.T) {
	stub := mocks.NewModelStub("never json")
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	_, _, err := v.ValidateAndRetry(context.Background(), "also never json")
	require.Error(t, err)
	assert.Equal(t, 2, stub.CallCount(), "never more than 2 probes")

	var exhausted *ValidationExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "never json", exhausted.LastRaw)
	require.NotNil(t, exhausted.LastFailure)
	assert.Equal(t, action.ReasonNoJSON, exhausted.LastFailure.Reason)

	var failure *action.ParseFailure
	assert.True(t, errors.As(err, &failure), "exhaustion unwraps to the parse failure")
}

func TestValidateAndRetry_ProbeTransportErrorBurnsAttempt(t *testing.T) {
	stub := mocks.NewModelStub()
	stub.QueueError(errors.New("connection refused"))
	stub.QueueReply(validGoto)
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	_, act, err := v.ValidateAndRetry(context.Background(), "not json")
	require.NoError(t, err, "second probe still runs after a transport failure")
	assert.Equal(t, "goto", act.Name)
	assert.Equal(t, 2, stub.CallCount())
}

func TestValidateAndRetry_ProbeMessagesReplaceConversation(t *testing.T) {
	stub := mocks.NewModelStub("bad", "worse")
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	_, _, _ = v.ValidateAndRetry(context.Background(), "not json")

	for _, call := range stub.Calls() {
		assert.Len(t, call.Request.Messages, 1, "corrective probes are single-turn")
	}
}

func TestValidateAndRetry_BadJSONReasonReachesProbe(t *testing.T) {
	stub := mocks.NewModelStub(validGoto)
	v := NewValidator(stub, "qwen2.5vl:3b", targetURL, nil, nil)

	_, _, err := v.ValidateAndRetry(context.Background(), `{"action": goto}`)
	require.NoError(t, err)

	content := stub.Calls()[0].Request.Messages[0].Content
	assert.Contains(t, content, "Error: bad-json: ")
}
