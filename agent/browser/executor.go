package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BaSui01/agentsmoke/action"
	"go.uber.org/zap"
)

// Executor maps validated model actions onto driver calls.
type Executor struct {
	driver      Driver
	baseURL     string // resolves path-only goto targets
	artifactDir string
	wait        WaitConfig
	logger      *zap.Logger
}

// NewExecutor creates an executor over the given driver.
func NewExecutor(driver Driver, baseURL, artifactDir string, wait WaitConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		driver:      driver,
		baseURL:     strings.TrimRight(baseURL, "/"),
		artifactDir: artifactDir,
		wait:        wait.withDefaults(),
		logger:      logger.With(zap.String("component", "executor")),
	}
}

// ExecResult reports the outcome of one executed action.
type ExecResult struct {
	Finished bool   // the model declared the task done
	Reason   string // finish reason, when Finished
}

// Execute performs one browser operation. Unknown action names and missing
// required params are errors; the caller decides whether they abort the
// run.
func (e *Executor) Execute(ctx context.Context, act *action.Action) (*ExecResult, error) {
	e.logger.Debug("executing action", zap.String("action", act.Name))

	switch act.Name {
	case action.Goto:
		target := act.StringParam("url")
		if target == "" {
			return nil, fmt.Errorf("goto requires a url param")
		}
		if strings.HasPrefix(target, "/") {
			target = e.baseURL + target
		}
		return nil, e.driver.Navigate(ctx, target)

	case action.Click:
		if selector := act.StringParam("selector"); selector != "" {
			return nil, ClickSelector(ctx, e.driver, selector)
		}
		if text := act.StringParam("text"); text != "" {
			return nil, ClickText(ctx, e.driver, text)
		}
		return nil, fmt.Errorf("click requires a text or selector param")

	case action.Type:
		selector := act.StringParam("selector")
		if selector == "" {
			return nil, fmt.Errorf("type requires a selector param")
		}
		return nil, TypeIntoSelector(ctx, e.driver, selector, act.StringParam("text"), act.BoolParam("submit"))

	case action.Keypress:
		key := act.StringParam("key")
		if key == "" {
			return nil, fmt.Errorf("keypress requires a key param")
		}
		return nil, e.driver.SendKey(ctx, key)

	case action.Select:
		selector := act.StringParam("selector")
		if selector == "" {
			return nil, fmt.Errorf("select requires a selector param")
		}
		return nil, SelectOption(ctx, e.driver, selector, act.StringParam("value"))

	case action.Scroll:
		to := act.StringParam("to")
		selector := act.StringParam("selector")
		if to == "" && selector == "" {
			return nil, fmt.Errorf("scroll requires a to or selector param")
		}
		return nil, ScrollTo(ctx, e.driver, to, selector)

	case action.WaitFor:
		cfg := e.wait
		cfg.Timeout = act.MillisParam("timeout_ms", cfg.Timeout)
		if selector := act.StringParam("selector"); selector != "" {
			return nil, WaitForSelector(ctx, e.driver, selector, cfg)
		}
		if text := act.StringParam("text"); text != "" {
			return nil, WaitForText(ctx, e.driver, text, cfg)
		}
		return nil, fmt.Errorf("wait_for requires a text or selector param")

	case action.AssertText:
		text := act.StringParam("text")
		if text == "" {
			return nil, fmt.Errorf("assert_text requires a text param")
		}
		content, err := e.driver.PageContent(ctx)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(strings.ToLower(content), strings.ToLower(text)) {
			return nil, fmt.Errorf("assertion failed: page does not contain %q", text)
		}
		return nil, nil

	case action.Screenshot:
		label := act.StringParam("label")
		if label == "" {
			label = fmt.Sprintf("step-%d", time.Now().Unix())
		}
		path := filepath.Join(e.artifactDir, label+".png")
		return nil, e.driver.Screenshot(ctx, path, true)

	case action.Finish:
		return &ExecResult{Finished: true, Reason: act.StringParam("reason")}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", act.Name)
	}
}
