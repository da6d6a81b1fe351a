package compat

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/internal/metrics"
	"github.com/BaSui01/agentsmoke/llm"
	"go.uber.org/zap"
)

// Config configures the compatibility client.
type Config struct {
	Model       string
	TargetURL   string  // app under test; seeds corrective examples and the fallback action
	Temperature float32 // default sampling temperature for Invoke calls
	MaxTokens   int
}

// Client funnels both calling conventions used by agent integrations into
// one model-call pipeline. The direct Invoke form applies the strict
// validate-or-retry policy; the nested chat.completions.create form applies
// the lenient normalize-with-fallback policy.
type Client struct {
	caller    Caller
	cfg       Config
	validator *Validator
	collector *metrics.Collector
	logger    *zap.Logger
	calls     atomic.Int64
}

// NewClient creates a compatibility client over the given model caller.
func NewClient(caller Caller, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "compat_client"))
	return &Client{
		caller:    caller,
		cfg:       cfg,
		validator: NewValidator(caller, cfg.Model, cfg.TargetURL, collector, logger),
		collector: collector,
		logger:    logger,
	}
}

// CallCount returns the number of model calls issued through this client.
// It is used for log correlation only.
func (c *Client) CallCount() int64 { return c.calls.Load() }

// request is the canonical internal form both entry points translate into.
type request struct {
	messages    []llm.Message
	temperature float32
	maxTokens   int
}

// CallOption adjusts a single Invoke call.
type CallOption func(*request)

// WithTemperature overrides the sampling temperature for one call. Zero
// follows the llm.ChatRequest unset convention and yields the provider
// default, not greedy sampling.
func WithTemperature(t float32) CallOption {
	return func(r *request) { r.temperature = t }
}

// WithMaxTokens overrides the completion budget for one call.
func WithMaxTokens(n int) CallOption {
	return func(r *request) { r.maxTokens = n }
}

// InvokeResult pairs the validated text with its decoded action and the
// normalized usage record.
type InvokeResult struct {
	Text   string
	Action *action.Action
	Usage  NormalizedUsage
}

// Invoke sends the message list and returns the validated next action.
//
// Malformed model output goes through the Validator's bounded retry; when
// even that is exhausted the call degrades to the raw content with an
// "error" placeholder action rather than failing the whole turn, leaving
// the abort decision to the caller. Transport errors propagate immediately.
func (c *Client) Invoke(ctx context.Context, messages []llm.Message, opts ...CallOption) (*InvokeResult, error) {
	req := request{
		messages:    messages,
		temperature: c.cfg.Temperature,
		maxTokens:   c.cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(&req)
	}

	callID := c.calls.Add(1)
	c.logCall(callID, "invoke", req.messages)

	resp, err := c.complete(ctx, req, "invoke")
	if err != nil {
		return nil, err
	}

	content, err := llm.FirstContent(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("model reply", zap.Int64("call_id", callID), zap.String("content", truncate(content, 500)))

	result := &InvokeResult{Usage: NormalizeUsage(resp.Usage)}

	validated, act, err := c.validator.ValidateAndRetry(ctx, content)
	if err != nil {
		var exhausted *ValidationExhaustedError
		if !errors.As(err, &exhausted) {
			return nil, err
		}
		c.logger.Error("validation exhausted, falling back to raw content",
			zap.Int64("call_id", callID), zap.Error(err))
		placeholder := action.New("error")
		result.Text = content
		result.Action = &placeholder
		return result, nil
	}

	result.Text = validated
	result.Action = act
	return result, nil
}

// InvokeText sends a bare prompt as a single user message.
func (c *Client) InvokeText(ctx context.Context, prompt string, opts ...CallOption) (*InvokeResult, error) {
	return c.Invoke(ctx, []llm.Message{llm.NewUserMessage(prompt)}, opts...)
}

// Chat exposes the nested chat.completions.create calling convention.
func (c *Client) Chat() *ChatService { return &ChatService{client: c} }

type ChatService struct {
	client *Client
}

func (s *ChatService) Completions() *CompletionsService {
	return &CompletionsService{client: s.client}
}

type CompletionsService struct {
	client *Client
}

// Create mirrors a generic chat-completion client call and returns the
// normalized, action-decorated response. Unparseable choices get the
// configured fallback action; this path never fails on malformed content.
//
// Per the llm.ChatRequest convention, a zero Temperature or MaxTokens means
// unset and the client's configured default is substituted.
func (s *CompletionsService) Create(ctx context.Context, req *llm.ChatRequest) (*NormalizedResponse, error) {
	c := s.client

	internal := request{
		messages:    req.Messages,
		temperature: req.Temperature,
		maxTokens:   req.MaxTokens,
	}
	if internal.temperature == 0 {
		internal.temperature = c.cfg.Temperature
	}
	if internal.maxTokens == 0 {
		internal.maxTokens = c.cfg.MaxTokens
	}

	callID := c.calls.Add(1)
	c.logCall(callID, "chat.completions.create", internal.messages)

	resp, err := c.complete(ctx, internal, "create")
	if err != nil {
		return nil, err
	}

	return Normalize(resp, c.fallbackAction()), nil
}

// complete is the single underlying model call both entry points share.
func (c *Client) complete(ctx context.Context, req request, entrypoint string) (*llm.ChatResponse, error) {
	c.collector.RecordModelCall(entrypoint)
	resp, err := c.caller.Completion(ctx, &llm.ChatRequest{
		Model:       c.cfg.Model,
		Messages:    req.messages,
		Temperature: req.temperature,
		MaxTokens:   req.maxTokens,
	})
	if err != nil {
		c.logger.Error("model request failed", zap.String("entrypoint", entrypoint), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// fallbackAction is the safe default used by the lenient path: navigate
// back to the app under test.
func (c *Client) fallbackAction() action.Action {
	fallback := action.New(action.Goto)
	fallback.Params["url"] = c.cfg.TargetURL
	return fallback
}

func (c *Client) logCall(callID int64, entrypoint string, messages []llm.Message) {
	c.logger.Info("model call",
		zap.Int64("call_id", callID),
		zap.String("entrypoint", entrypoint),
		zap.Int("messages", len(messages)))
	for i, msg := range messages {
		c.logger.Debug("outgoing message",
			zap.Int64("call_id", callID),
			zap.Int("index", i),
			zap.String("role", string(msg.Role)),
			zap.String("content", truncate(msg.Content, 200)))
	}
}
