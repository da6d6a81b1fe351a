package llm

import (
	"context"
	"time"
)

// ErrorCode aligns provider failures with HTTP status and retryability.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "LLM_INVALID_REQUEST" // malformed request
	ErrUnauthorized   ErrorCode = "LLM_UNAUTHORIZED"    // missing or invalid key
	ErrForbidden      ErrorCode = "LLM_FORBIDDEN"       // policy or permission refusal
	ErrRateLimited    ErrorCode = "LLM_RATE_LIMITED"    // upstream throttling
	ErrModelNotFound  ErrorCode = "LLM_MODEL_NOT_FOUND" // model not pulled on the local server
	ErrUpstreamError  ErrorCode = "LLM_UPSTREAM_ERROR"  // upstream 5xx or network failure
)

// Error is the typed failure returned by providers. Transport failures are
// never retried by the validation layer; Retryable is advisory for callers
// that wrap providers in their own retry policy.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of an ordered conversation. Order is significant;
// the system message, if any, comes first.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ChatRequest is one chat-completion call. MaxTokens and Temperature follow
// the OpenAI zero-means-unset convention: a zero value is omitted from the
// wire encoding and callers that sit in front of this type substitute their
// configured default for it. A literal temperature of 0 therefore cannot be
// requested through this struct.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// HealthStatus reports a provider health probe result.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is a chat-completion backend.
type Provider interface {
	Name() string
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
