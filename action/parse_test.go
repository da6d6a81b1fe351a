package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidObjects(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		wantAction string
		wantParams map[string]any
	}{
		{
			name:       "bare object",
			raw:        `{"action": "goto", "params": {"url": "http://localhost:3000"}}`,
			wantAction: "goto",
			wantParams: map[string]any{"url": "http://localhost:3000"},
		},
		{
			name:       "surrounding whitespace",
			raw:        "\n\t  {\"action\": \"finish\", \"params\": {\"reason\": \"done\"}}  \n",
			wantAction: "finish",
			wantParams: map[string]any{"reason": "done"},
		},
		{
			name:       "leading and trailing prose",
			raw:        `Sure, here is the next step: {"action": "click", "params": {"text": "Start"}} Let me know how it goes.`,
			wantAction: "click",
			wantParams: map[string]any{"text": "Start"},
		},
		{
			name:       "json tagged fence",
			raw:        "```json\n{\"action\": \"goto\", \"params\": {\"url\": \"http://localhost:3000\"}}\n```",
			wantAction: "goto",
			wantParams: map[string]any{"url": "http://localhost:3000"},
		},
		{
			name:       "untagged fence",
			raw:        "```\n{\"action\": \"keypress\", \"params\": {\"key\": \"Enter\"}}\n```",
			wantAction: "keypress",
			wantParams: map[string]any{"key": "Enter"},
		},
		{
			name:       "prose then fenced object",
			raw:        "Here you go:\n```json\n{\"action\": \"goto\", \"params\": {\"url\": \"http://localhost:3000\"}}\n```",
			wantAction: "goto",
			wantParams: map[string]any{"url": "http://localhost:3000"},
		},
		{
			name:       "braces inside string values survive the greedy match",
			raw:        `{"action": "type", "params": {"selector": "#in", "text": "hello {world}", "submit": true}}`,
			wantAction: "type",
			wantParams: map[string]any{"selector": "#in", "text": "hello {world}", "submit": true},
		},
		{
			name:       "empty params",
			raw:        `{"action": "screenshot", "params": {}}`,
			wantAction: "screenshot",
			wantParams: map[string]any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			act, failure := Parse(tc.raw)
			require.Nil(t, failure)
			require.NotNil(t, act)
			assert.Equal(t, tc.wantAction, act.Name)
			assert.Equal(t, tc.wantParams, act.Params)
		})
	}
}

func TestParse_FenceEquivalence(t *testing.T) {
	inner := `{"action": "select", "params": {"selector": "#n", "value": "4"}}`

	plain, failure := Parse(inner)
	require.Nil(t, failure)

	for _, fenced := range []string{
		"```json\n" + inner + "\n```",
		"```\n" + inner + "\n```",
	} {
		act, failure := Parse(fenced)
		require.Nil(t, failure)
		assert.Equal(t, plain, act)
	}
}

func TestParse_Failures(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		wantReason Reason
	}{
		{"no braces at all", "no json here", ReasonNoJSON},
		{"empty input", "", ReasonNoJSON},
		{"only opening brace", "start { and nothing", ReasonNoJSON},
		{"closing before opening", "} backwards {", ReasonNoJSON},
		{"unbalanced json", `{"action": "goto", "params": `, ReasonNoJSON},
		{"invalid json between braces", `{"action": goto}`, ReasonBadJSON},
		{"truncated object with closing brace", `{"action": "goto", "params"}`, ReasonBadJSON},
		{"missing action key", `{"params": {"url": "http://localhost:3000"}}`, ReasonNoAction},
		{"numeric action name", `{"action": 123, "params": {}}`, ReasonNoAction},
		{"null action name", `{"action": null, "params": {}}`, ReasonNoAction},
		{"empty action name", `{"action": "", "params": {}}`, ReasonNoAction},
		{"missing params key", `{"action": "goto"}`, ReasonNoParams},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			act, failure := Parse(tc.raw)
			require.Nil(t, act)
			require.NotNil(t, failure)
			assert.Equal(t, tc.wantReason, failure.Reason)
		})
	}
}

func TestParse_BadJSONCarriesDiagnostic(t *testing.T) {
	_, failure := Parse(`{"action": goto}`)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonBadJSON, failure.Reason)
	assert.NotEmpty(t, failure.Detail)
	assert.Contains(t, failure.Error(), "bad-json: ")
}

func TestParseFailure_Error(t *testing.T) {
	assert.Equal(t, "no-json", (&ParseFailure{Reason: ReasonNoJSON}).Error())
	assert.Equal(t, "bad-json: boom", (&ParseFailure{Reason: ReasonBadJSON, Detail: "boom"}).Error())
}

func TestAction_ParamHelpers(t *testing.T) {
	act, failure := Parse(`{"action": "wait_for", "params": {"selector": "#ok", "timeout_ms": 2500, "submit": true}}`)
	require.Nil(t, failure)

	assert.Equal(t, "#ok", act.StringParam("selector"))
	assert.Equal(t, "", act.StringParam("missing"))
	assert.True(t, act.BoolParam("submit"))
	assert.False(t, act.BoolParam("missing"))
	assert.Equal(t, 2500, int(act.MillisParam("timeout_ms", 0).Milliseconds()))
	assert.Equal(t, 10000, int(act.MillisParam("missing", 10000000000).Milliseconds()))
}
