// Package mocks provides scripted stand-ins for the model endpoint and the
// browser driver used across the test suites.
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/agentsmoke/llm"
)

// ModelCall records one Completion invocation.
type ModelCall struct {
	Request *llm.ChatRequest
}

// ModelStub is a scripted llm.Provider replacement. Replies are consumed
// in order; when the script runs out the last entry repeats. An entry may
// be an error instead of a content string.
type ModelStub struct {
	mu      sync.Mutex
	replies []reply
	calls   []ModelCall
	usage   llm.ChatUsage
}

type reply struct {
	content string
	err     error
}

// NewModelStub creates a stub with the given scripted contents.
func NewModelStub(contents ...string) *ModelStub {
	s := &ModelStub{}
	for _, c := range contents {
		s.replies = append(s.replies, reply{content: c})
	}
	return s
}

// QueueReply appends a content reply to the script.
func (s *ModelStub) QueueReply(content string) *ModelStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply{content: content})
	return s
}

// QueueError appends an error to the script.
func (s *ModelStub) QueueError(err error) *ModelStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply{err: err})
	return s
}

// WithUsage sets the usage block returned on every response.
func (s *ModelStub) WithUsage(u llm.ChatUsage) *ModelStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = u
	return s
}

func (s *ModelStub) Name() string { return "stub" }

func (s *ModelStub) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, ModelCall{Request: req})

	idx := len(s.calls) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	if idx < 0 {
		return &llm.ChatResponse{Model: req.Model}, nil
	}

	r := s.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.ChatResponse{
		Model: req.Model,
		Choices: []llm.ChatChoice{
			{Index: 0, FinishReason: "stop", Message: llm.Message{Role: llm.RoleAssistant, Content: r.content}},
		},
		Usage: s.usage,
	}, nil
}

func (s *ModelStub) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

// Calls returns a copy of the recorded calls.
func (s *ModelStub) Calls() []ModelCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ModelCall{}, s.calls...)
}

// CallCount returns how many Completion calls were made.
func (s *ModelStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastCall returns the most recent call, or nil when none were made.
func (s *ModelStub) LastCall() *ModelCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	call := s.calls[len(s.calls)-1]
	return &call
}
