// Package action defines the wire contract between the language model and
// the browser executor: the model must reply with a single JSON object of
// the form {"action": "<name>", "params": {...}}.
//
// Parse is vocabulary-agnostic; it only requires the two keys. Validating
// the action name against the vocabulary below is the executor's job.
package action

import "time"

// Command vocabulary the model may emit.
const (
	Goto       = "goto"
	Click      = "click"
	Type       = "type"
	Keypress   = "keypress"
	Select     = "select"
	Scroll     = "scroll"
	WaitFor    = "wait_for"
	AssertText = "assert_text"
	Screenshot = "screenshot"
	Finish     = "finish"
)

// Action is one browser instruction decoded from model output.
// It is constructed per model turn, consumed immediately, never persisted.
type Action struct {
	Name   string         `json:"action"`
	Params map[string]any `json:"params"`
}

// New builds an action with an empty (non-nil) params map.
func New(name string) Action {
	return Action{Name: name, Params: map[string]any{}}
}

// StringParam returns the named param as a string, or "" when absent
// or not a string.
func (a *Action) StringParam(key string) string {
	v, _ := a.Params[key].(string)
	return v
}

// BoolParam returns the named param as a bool, false when absent.
func (a *Action) BoolParam(key string) bool {
	v, _ := a.Params[key].(bool)
	return v
}

// MillisParam reads a millisecond count param (JSON numbers decode to
// float64) and returns it as a duration, or def when absent or invalid.
func (a *Action) MillisParam(key string, def time.Duration) time.Duration {
	switch v := a.Params[key].(type) {
	case float64:
		return time.Duration(v) * time.Millisecond
	case int:
		return time.Duration(v) * time.Millisecond
	default:
		return def
	}
}
