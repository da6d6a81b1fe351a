// Package mock provides an offline stand-in for a live model endpoint.
package mock

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/llm"
)

// Provider answers every completion with the same canned next-action reply:
// a goto pointing at the app under test. The run loop then spends its whole
// action budget revisiting the app and passes only if the success text is
// already visible, which exercises the full harness with no model server
// running.
type Provider struct {
	targetURL string
	logger    *zap.Logger
	calls     atomic.Int64
}

// NewProvider creates a mock provider whose canned action navigates to
// targetURL.
func NewProvider(targetURL string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		targetURL: targetURL,
		logger:    logger.With(zap.String("component", "mock_provider")),
	}
}

func (p *Provider) Name() string { return "mock" }

// Completion returns the canned reply without any network traffic. Usage
// counters stay zero since no tokens were consumed.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	act := action.New(action.Goto)
	act.Params["url"] = p.targetURL
	payload, err := json.Marshal(act)
	if err != nil {
		return nil, err
	}

	callID := p.calls.Add(1)
	p.logger.Debug("canned completion",
		zap.Int64("call_id", callID),
		zap.String("model", req.Model),
		zap.ByteString("reply", payload))

	return &llm.ChatResponse{
		ID:       uuid.NewString(),
		Provider: p.Name(),
		Model:    req.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.NewAssistantMessage(string(payload)),
		}},
		CreatedAt: time.Now(),
	}, nil
}

// HealthCheck always reports healthy; there is nothing to reach.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}
