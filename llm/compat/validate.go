package compat

import (
	"context"
	"fmt"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/internal/metrics"
	"github.com/BaSui01/agentsmoke/llm"
	"go.uber.org/zap"
)

// retryTemperature keeps corrective probes near-deterministic.
const retryTemperature = 0.1

// maxRetries bounds the corrective probes beyond the initial parse.
const maxRetries = 2

// Caller issues a single chat-completion round trip.
type Caller interface {
	Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// ValidationExhaustedError is the terminal failure after the initial parse
// and both corrective probes failed. It carries the last parse failure and
// the last raw model text for diagnosis.
type ValidationExhaustedError struct {
	LastFailure *action.ParseFailure
	LastRaw     string
	Attempts    int
}

func (e *ValidationExhaustedError) Error() string {
	return fmt.Sprintf("model did not return a valid action after %d attempts: %s (last response: %q)",
		e.Attempts, e.LastFailure.Error(), e.LastRaw)
}

func (e *ValidationExhaustedError) Unwrap() error { return e.LastFailure }

// Validator implements the strict validate-or-retry policy: parse the raw
// reply; on failure issue up to two single-turn corrective probes with
// narrowing specificity. The first probe explains the parse error next to
// a minimal example, the second demands the exact literal template.
// Corrective messages replace the conversation for the probe call, so
// retries never grow the context.
type Validator struct {
	caller    Caller
	model     string
	targetURL string
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewValidator creates a validator. targetURL seeds the minimal example
// action used in corrective prompts.
func NewValidator(caller Caller, model, targetURL string, collector *metrics.Collector, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		caller:    caller,
		model:     model,
		targetURL: targetURL,
		collector: collector,
		logger:    logger.With(zap.String("component", "validator")),
	}
}

// exampleJSON is the minimal well-formed action used in both probes.
func (v *Validator) exampleJSON() string {
	return fmt.Sprintf(`{"action": "goto", "params": {"url": "%s"}}`, v.targetURL)
}

// ValidateAndRetry parses raw and, when it fails, runs the bounded
// corrective state machine. On success it returns the text the action was
// decoded from (the original raw or a probe reply) alongside the action.
func (v *Validator) ValidateAndRetry(ctx context.Context, raw string) (string, *action.Action, error) {
	act, failure := v.parse(raw, 0)
	if failure == nil {
		return raw, act, nil
	}

	lastRaw := raw
	lastFailure := failure

	instructions := []string{
		fmt.Sprintf("Reply with ONLY JSON: %s\n\nError: %s", v.exampleJSON(), failure.Error()),
		fmt.Sprintf("Respond exactly: %s", v.exampleJSON()),
	}

	for attempt, instruction := range instructions {
		v.collector.RecordValidationRetry()
		v.logger.Info("retrying with corrective prompt",
			zap.Int("attempt", attempt+1),
			zap.String("reason", lastFailure.Error()))

		resp, err := v.caller.Completion(ctx, &llm.ChatRequest{
			Model:       v.model,
			Messages:    []llm.Message{llm.NewUserMessage(instruction)},
			Temperature: retryTemperature,
		})
		if err != nil {
			// A failed probe burns the attempt and escalates; transport
			// outages are not retried beyond the fixed budget.
			v.logger.Error("corrective probe failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		content, err := llm.FirstContent(resp)
		if err != nil {
			v.logger.Error("corrective probe returned no choices", zap.Int("attempt", attempt+1))
			continue
		}

		lastRaw = content
		act, failure := v.parse(content, attempt+1)
		if failure == nil {
			v.logger.Info("corrective retry produced a valid action",
				zap.Int("attempt", attempt+1),
				zap.String("action", act.Name))
			return content, act, nil
		}
		lastFailure = failure
	}

	return "", nil, &ValidationExhaustedError{
		LastFailure: lastFailure,
		LastRaw:     lastRaw,
		Attempts:    maxRetries + 1,
	}
}

func (v *Validator) parse(raw string, attempt int) (*action.Action, *action.ParseFailure) {
	act, failure := action.Parse(raw)
	if failure != nil {
		v.collector.RecordParseFailure(string(failure.Reason))
		v.logger.Warn("invalid model reply",
			zap.Int("attempt", attempt),
			zap.String("reason", failure.Error()),
			zap.String("raw", truncate(raw, 500)))
	}
	return act, failure
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
