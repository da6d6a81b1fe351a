package compat

import (
	"time"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/llm"
)

// NormalizedUsage is the fixed-shape token accounting record the agent
// schema expects. The cached/cache-creation/image fields stay zero for
// backends that never report them, but the keys must exist.
type NormalizedUsage struct {
	PromptTokens              int `json:"prompt_tokens"`
	CompletionTokens          int `json:"completion_tokens"`
	TotalTokens               int `json:"total_tokens"`
	PromptCachedTokens        int `json:"prompt_cached_tokens"`
	PromptCacheCreationTokens int `json:"prompt_cache_creation_tokens"`
	PromptImageTokens         int `json:"prompt_image_tokens"`
}

// NormalizeUsage rewrites upstream usage into the fixed shape, defaulting
// every field to zero when the source omits usage.
func NormalizeUsage(u llm.ChatUsage) NormalizedUsage {
	return NormalizedUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// NormalizedChoice decorates an upstream choice with the action decoded
// from its content. The original text is preserved verbatim.
type NormalizedChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      llm.Message   `json:"message"`
	Action       action.Action `json:"action"`
}

// NormalizedResponse is a fresh value built per call; the upstream
// response is never mutated and the result is owned by the caller.
type NormalizedResponse struct {
	ID      string             `json:"id,omitempty"`
	Model   string             `json:"model"`
	Created time.Time          `json:"created,omitempty"`
	Choices []NormalizedChoice `json:"choices"`
	Usage   NormalizedUsage    `json:"usage"`
}

// Normalize decorates every choice of resp with a parsed action, falling
// back to the supplied safe default when the content does not parse. One
// bad choice never aborts a multi-choice response. Normalize is a pure
// construction: running it twice over the same input yields equal values.
func Normalize(resp *llm.ChatResponse, fallback action.Action) *NormalizedResponse {
	out := &NormalizedResponse{
		Usage: NormalizeUsage(llm.ChatUsage{}),
	}
	if resp == nil {
		return out
	}

	out.ID = resp.ID
	out.Model = resp.Model
	out.Created = resp.CreatedAt
	out.Usage = NormalizeUsage(resp.Usage)
	out.Choices = make([]NormalizedChoice, 0, len(resp.Choices))

	for _, choice := range resp.Choices {
		nc := NormalizedChoice{
			Index:        choice.Index,
			FinishReason: choice.FinishReason,
			Message:      choice.Message,
			Action:       fallback,
		}
		if act, failure := action.Parse(choice.Message.Content); failure == nil {
			nc.Action = *act
		}
		out.Choices = append(out.Choices, nc)
	}
	return out
}
