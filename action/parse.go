package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reason tags why a model reply could not be turned into an Action.
type Reason string

const (
	ReasonNoJSON   Reason = "no-json"   // no {...} object found
	ReasonBadJSON  Reason = "bad-json"  // malformed JSON between the braces
	ReasonNoAction Reason = "no-action" // "action" key missing or not a non-empty string
	ReasonNoParams Reason = "no-params" // object decoded but "params" key missing
)

// ParseFailure describes a single failed parse attempt. It is used for
// control flow and corrective re-prompts, never persisted.
type ParseFailure struct {
	Reason Reason
	Detail string // decoder diagnostic for bad-json
}

func (f *ParseFailure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
	}
	return string(f.Reason)
}

// Parse extracts a structured Action from raw model output.
//
// Models wrap JSON in prose and markdown fences, so Parse strips a
// surrounding code fence if present and then takes the substring from the
// first '{' to the last '}'. The greedy match tolerates leading and
// trailing commentary and keeps nested braces inside string values intact
// without any brace balancing.
func Parse(raw string) (*Action, *ParseFailure) {
	content := strings.TrimSpace(raw)
	content = stripFence(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, &ParseFailure{Reason: ReasonNoJSON}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &obj); err != nil {
		return nil, &ParseFailure{Reason: ReasonBadJSON, Detail: err.Error()}
	}

	rawName, ok := obj["action"]
	if !ok {
		return nil, &ParseFailure{Reason: ReasonNoAction}
	}
	name, ok := rawName.(string)
	if !ok || name == "" {
		// A non-string or empty name is as unusable as a missing one, and
		// classifying it the same way lets a corrective re-prompt fix it.
		return nil, &ParseFailure{Reason: ReasonNoAction}
	}
	rawParams, ok := obj["params"]
	if !ok {
		return nil, &ParseFailure{Reason: ReasonNoParams}
	}

	params, _ := rawParams.(map[string]any)
	if params == nil {
		params = map[string]any{}
	}
	return &Action{Name: name, Params: params}, nil
}

// stripFence removes a surrounding triple-backtick code fence, with or
// without a language tag, keeping interior lines verbatim.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
