package agent

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentsmoke/agent/browser"
)

const (
	startButtonSelector  = "[aria-label='Start Single Player']"
	createLineupSelector = "[data-testid='create-lineup']"
	setupPathPrefix      = "/single-player"
	newLineupPath        = "/single-player/new"
)

// ScriptedConfig configures the deterministic single-player setup flow.
type ScriptedConfig struct {
	AppURL      string `json:"app_url" yaml:"app_url"`
	ArtifactDir string `json:"artifact_dir" yaml:"artifact_dir"`
	// PlayerCount fixes the lineup size; 0 picks a random count in [2,10].
	PlayerCount int                `json:"player_count" yaml:"player_count"`
	Wait        browser.WaitConfig `json:"wait" yaml:"wait"`
}

// ScriptedResult is the outcome of the scripted flow.
type ScriptedResult struct {
	FinalURL       string `json:"final_url"`
	PlayerCount    int    `json:"player_count"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

// RunScripted opens the app, enters the single-player flow, picks a player
// count and triggers the Create Lineup action. No model is involved; the
// flow is a fixed checklist against known selectors, which makes it the
// cheap first gate before the model-driven run.
func RunScripted(ctx context.Context, d browser.Driver, cfg ScriptedConfig, logger *zap.Logger) (*ScriptedResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "scripted"))
	if cfg.AppURL == "" {
		cfg.AppURL = "http://localhost:3000"
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = filepath.Join("artifacts", "ai-tests")
	}

	if err := d.Start(ctx); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := d.Stop(); err != nil {
			logger.Warn("browser stop failed", zap.Error(err))
		}
	}()

	result, err := runScriptedFlow(ctx, d, cfg, logger)
	if err != nil {
		failurePath := filepath.Join(cfg.ArtifactDir, "start-single-player-error.png")
		if shotErr := d.Screenshot(ctx, failurePath, true); shotErr != nil {
			logger.Error("failure screenshot not captured", zap.Error(shotErr))
		} else {
			logger.Error("failure screenshot saved", zap.String("path", failurePath))
		}
		return nil, err
	}
	return result, nil
}

func runScriptedFlow(ctx context.Context, d browser.Driver, cfg ScriptedConfig, logger *zap.Logger) (*ScriptedResult, error) {
	logger.Info("navigating", zap.String("url", cfg.AppURL))
	if err := d.Navigate(ctx, cfg.AppURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", cfg.AppURL, err)
	}

	logger.Info("waiting for start button")
	if err := browser.WaitForSelector(ctx, d, startButtonSelector, cfg.Wait); err != nil {
		return nil, err
	}
	logger.Info("clicking start button")
	if err := browser.ClickSelector(ctx, d, startButtonSelector); err != nil {
		return nil, err
	}

	reached, err := browser.WaitForPath(ctx, d, setupPathPrefix, cfg.Wait)
	if err != nil {
		return nil, err
	}

	successURL := reached
	if parsed, parseErr := url.Parse(reached); parseErr == nil && !strings.HasPrefix(parsed.Path, newLineupPath) {
		target := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, newLineupPath)
		logger.Info("opening a fresh lineup", zap.String("url", target))
		if err := d.Navigate(ctx, target); err != nil {
			return nil, fmt.Errorf("navigate to %s: %w", target, err)
		}
		if successURL, err = browser.WaitForPath(ctx, d, newLineupPath, cfg.Wait); err != nil {
			return nil, err
		}
	}
	logger.Info("reached single-player setup", zap.String("url", successURL))

	count := cfg.PlayerCount
	if count < 2 || count > 10 {
		count = rand.Intn(9) + 2
	}
	countSelector := fmt.Sprintf("[data-testid='player-count-%d']", count)
	logger.Info("selecting player count", zap.Int("players", count))
	if err := browser.WaitForSelector(ctx, d, countSelector, cfg.Wait); err != nil {
		return nil, err
	}
	if err := browser.ClickSelector(ctx, d, countSelector); err != nil {
		return nil, err
	}

	logger.Info("clicking create lineup")
	if err := browser.WaitForSelector(ctx, d, createLineupSelector, cfg.Wait); err != nil {
		return nil, err
	}
	if err := browser.ClickSelector(ctx, d, createLineupSelector); err != nil {
		return nil, err
	}

	finalURL, err := d.CurrentURL(ctx)
	if err != nil || finalURL == "" {
		finalURL = successURL
	}

	result := &ScriptedResult{FinalURL: finalURL, PlayerCount: count}

	shotPath := filepath.Join(cfg.ArtifactDir, "start-single-player.png")
	if err := d.Screenshot(ctx, shotPath, true); err != nil {
		logger.Warn("success screenshot not captured", zap.Error(err))
	} else {
		result.ScreenshotPath = shotPath
		logger.Info("success screenshot saved", zap.String("path", shotPath))
	}

	return result, nil
}
