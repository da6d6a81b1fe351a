// Package agent drives a browser smoke run: a model plans one action per
// turn from the current page state and an executor applies it, until the
// model declares the goal reached or the action budget runs out.
package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentsmoke/action"
	"github.com/BaSui01/agentsmoke/agent/browser"
	"github.com/BaSui01/agentsmoke/internal/metrics"
	"github.com/BaSui01/agentsmoke/llm"
	"github.com/BaSui01/agentsmoke/llm/compat"
)

// pageExcerptLimit bounds how much page HTML goes into a model turn.
const pageExcerptLimit = 4000

// Planner plans the next browser action from the conversation so far.
// *compat.Client satisfies it.
type Planner interface {
	Invoke(ctx context.Context, messages []llm.Message, opts ...compat.CallOption) (*compat.InvokeResult, error)
}

// RunnerConfig configures one smoke run.
type RunnerConfig struct {
	AppURL      string             `json:"app_url" yaml:"app_url"`
	SuccessText string             `json:"success_text" yaml:"success_text"`
	ArtifactDir string             `json:"artifact_dir" yaml:"artifact_dir"`
	MaxActions  int                `json:"max_actions" yaml:"max_actions"`
	ActionDelay time.Duration      `json:"action_delay" yaml:"action_delay"`
	Timeout     time.Duration      `json:"timeout" yaml:"timeout"`
	Wait        browser.WaitConfig `json:"wait" yaml:"wait"`
}

// DefaultRunnerConfig returns the stock run limits.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		AppURL:      "http://localhost:3000",
		SuccessText: "All Tricks Complete",
		ArtifactDir: "artifacts",
		MaxActions:  30,
		ActionDelay: 500 * time.Millisecond,
		Timeout:     5 * time.Minute,
		Wait:        browser.DefaultWaitConfig(),
	}
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	def := DefaultRunnerConfig()
	if c.AppURL == "" {
		c.AppURL = def.AppURL
	}
	if c.SuccessText == "" {
		c.SuccessText = def.SuccessText
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = def.ArtifactDir
	}
	if c.MaxActions <= 0 {
		c.MaxActions = def.MaxActions
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// ActionRecord records one executed model action.
type ActionRecord struct {
	Action    *action.Action `json:"action"`
	Raw       string         `json:"raw,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunResult is the outcome of one smoke run.
type RunResult struct {
	RunID          string         `json:"run_id"`
	Passed         bool           `json:"passed"`
	Reason         string         `json:"reason,omitempty"`
	Actions        []ActionRecord `json:"actions"`
	FinalURL       string         `json:"final_url,omitempty"`
	ScreenshotPath string         `json:"screenshot_path,omitempty"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Duration       time.Duration  `json:"duration"`
}

// Runner owns the vision-action loop over a planner and a browser driver.
type Runner struct {
	planner   Planner
	driver    browser.Driver
	exec      *browser.Executor
	cfg       RunnerConfig
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewRunner creates a runner. collector and logger may be nil.
func NewRunner(planner Planner, driver browser.Driver, cfg RunnerConfig, collector *metrics.Collector, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Runner{
		planner:   planner,
		driver:    driver,
		exec:      browser.NewExecutor(driver, cfg.AppURL, cfg.ArtifactDir, cfg.Wait, logger),
		cfg:       cfg,
		collector: collector,
		logger:    logger.With(zap.String("component", "runner")),
	}
}

// Run executes one smoke run. The returned result is populated even when
// err is non-nil; the browser is always stopped before returning.
func (r *Runner) Run(ctx context.Context) (result *RunResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	result = &RunResult{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Actions:   make([]ActionRecord, 0, r.cfg.MaxActions),
	}
	logger := r.logger.With(zap.String("run_id", result.RunID))
	logger.Info("starting smoke run",
		zap.String("app_url", r.cfg.AppURL),
		zap.String("success_text", r.cfg.SuccessText),
		zap.Int("max_actions", r.cfg.MaxActions))

	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		r.collector.ObserveRunDuration(result.Duration)
		logger.Info("smoke run finished",
			zap.Bool("passed", result.Passed),
			zap.String("reason", result.Reason),
			zap.Int("actions", len(result.Actions)),
			zap.Duration("duration", result.Duration))
	}()

	if err := r.driver.Start(ctx); err != nil {
		result.Reason = "browser start failed"
		return result, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if stopErr := r.driver.Stop(); stopErr != nil {
			logger.Warn("browser stop failed", zap.Error(stopErr))
		}
	}()
	defer r.captureFinalState(ctx, result, logger)

	if err := r.driver.Navigate(ctx, r.cfg.AppURL); err != nil {
		result.Reason = "navigation failed"
		return result, fmt.Errorf("navigate to %s: %w", r.cfg.AppURL, err)
	}

	system := llm.NewSystemMessage(goalPrompt(r.cfg.AppURL, r.cfg.SuccessText, r.cfg.MaxActions))

	for turn := 0; turn < r.cfg.MaxActions; turn++ {
		select {
		case <-ctx.Done():
			result.Reason = "run timed out"
			return result, ctx.Err()
		default:
		}

		observation, obsErr := r.observe(ctx, result)
		if obsErr != nil {
			logger.Warn("page observation failed", zap.Error(obsErr))
		}

		planned, err := r.planner.Invoke(ctx, []llm.Message{system, llm.NewUserMessage(observation)})
		if err != nil {
			result.Reason = "model call failed"
			return result, fmt.Errorf("plan turn %d: %w", turn, err)
		}

		record := ActionRecord{Action: planned.Action, Raw: planned.Text, Timestamp: time.Now()}

		if planned.Action == nil || planned.Action.Name == "error" {
			record.Error = "model did not produce a usable action"
			result.Actions = append(result.Actions, record)
			logger.Warn("unusable model turn", zap.Int("turn", turn))
			continue
		}

		execRes, execErr := r.exec.Execute(ctx, planned.Action)
		r.collector.RecordAction(planned.Action.Name, execErr == nil)
		if execErr != nil {
			record.Error = execErr.Error()
			logger.Warn("action failed",
				zap.Int("turn", turn),
				zap.String("action", planned.Action.Name),
				zap.Error(execErr))
		} else {
			record.Success = true
			logger.Info("action executed",
				zap.Int("turn", turn),
				zap.String("action", planned.Action.Name))
		}
		result.Actions = append(result.Actions, record)

		if execRes != nil && execRes.Finished {
			result.Passed = r.successVisible(ctx)
			if result.Passed {
				result.Reason = execRes.Reason
			} else {
				result.Reason = fmt.Sprintf("model declared %q but success text not on page", execRes.Reason)
			}
			return result, nil
		}

		if r.cfg.ActionDelay > 0 {
			select {
			case <-ctx.Done():
				result.Reason = "run timed out"
				return result, ctx.Err()
			case <-time.After(r.cfg.ActionDelay):
			}
		}
	}

	// Action budget exhausted without a finish; the page may still have
	// reached the goal.
	if r.successVisible(ctx) {
		result.Passed = true
		result.Reason = "success text visible after action budget"
	} else {
		result.Reason = fmt.Sprintf("action budget of %d exhausted", r.cfg.MaxActions)
	}
	return result, nil
}

// observe builds the per-turn user message from the current page state and
// the previous action outcome.
func (r *Runner) observe(ctx context.Context, result *RunResult) (string, error) {
	var b strings.Builder

	current, err := r.driver.CurrentURL(ctx)
	if err == nil && current != "" {
		fmt.Fprintf(&b, "Current URL: %s\n", current)
	}

	content, contentErr := r.driver.PageContent(ctx)
	if contentErr == nil {
		if len(content) > pageExcerptLimit {
			content = content[:pageExcerptLimit]
		}
		fmt.Fprintf(&b, "Page content:\n%s\n", content)
	}

	if n := len(result.Actions); n > 0 {
		last := result.Actions[n-1]
		if last.Error != "" {
			fmt.Fprintf(&b, "Previous action %q failed: %s\n", actionName(last.Action), last.Error)
		} else {
			fmt.Fprintf(&b, "Previous action %q succeeded.\n", actionName(last.Action))
		}
	}

	b.WriteString("What is the next action?")
	return b.String(), contentErr
}

func actionName(act *action.Action) string {
	if act == nil {
		return "unknown"
	}
	return act.Name
}

// successVisible reports whether the success text is on the current page.
func (r *Runner) successVisible(ctx context.Context) bool {
	content, err := r.driver.PageContent(ctx)
	if err != nil {
		r.logger.Warn("success check failed", zap.Error(err))
		return false
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(r.cfg.SuccessText))
}

// captureFinalState records the final URL and a full-page screenshot,
// best-effort, before the browser is stopped.
func (r *Runner) captureFinalState(ctx context.Context, result *RunResult, logger *zap.Logger) {
	if url, err := r.driver.CurrentURL(ctx); err == nil {
		result.FinalURL = url
	}

	path := filepath.Join(r.cfg.ArtifactDir, fmt.Sprintf("final-%d.png", time.Now().Unix()))
	if err := r.driver.Screenshot(ctx, path, true); err != nil {
		logger.Warn("final screenshot failed", zap.Error(err))
		return
	}
	result.ScreenshotPath = path
	logger.Info("final screenshot saved", zap.String("path", path))
}
