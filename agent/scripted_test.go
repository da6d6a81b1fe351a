package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentsmoke/testutil/mocks"
)

// startClickChangesURL wires the fake so clicking the start button lands
// the page on target, the way the real app routes.
func startClickChangesURL(d *mocks.FakeDriver, target string) {
	d.EvalFunc = func(expr string) (any, error) {
		if strings.Contains(expr, "el.click()") && strings.Contains(expr, "Start Single Player") {
			d.PushURL(target)
		}
		return true, nil
	}
}

func scriptedConfig() ScriptedConfig {
	return ScriptedConfig{
		AppURL:      testAppURL,
		ArtifactDir: "artifacts/ai-tests",
		Wait:        quickWait(),
	}
}

func TestRunScripted_HappyPath(t *testing.T) {
	driver := mocks.NewFakeDriver()
	startClickChangesURL(driver, testAppURL+"/single-player/new")

	cfg := scriptedConfig()
	cfg.PlayerCount = 4

	result, err := RunScripted(context.Background(), driver, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, testAppURL+"/single-player/new", result.FinalURL)
	assert.Equal(t, 4, result.PlayerCount)
	assert.Equal(t, "artifacts/ai-tests/start-single-player.png", result.ScreenshotPath)
	assert.True(t, driver.Stopped)

	joined := strings.Join(driver.EvalExprs, "\n")
	assert.Contains(t, joined, "player-count-4")
	assert.Contains(t, joined, "create-lineup")
}

func TestRunScripted_RedirectsToFreshLineup(t *testing.T) {
	driver := mocks.NewFakeDriver()
	startClickChangesURL(driver, testAppURL+"/single-player")

	result, err := RunScripted(context.Background(), driver, scriptedConfig(), nil)
	require.NoError(t, err)

	assert.Contains(t, driver.NavigatedURLs, testAppURL+"/single-player/new")
	assert.Equal(t, testAppURL+"/single-player/new", result.FinalURL)
}

func TestRunScripted_RandomPlayerCountInRange(t *testing.T) {
	driver := mocks.NewFakeDriver()
	startClickChangesURL(driver, testAppURL+"/single-player/new")

	result, err := RunScripted(context.Background(), driver, scriptedConfig(), nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.PlayerCount, 2)
	assert.LessOrEqual(t, result.PlayerCount, 10)
	assert.Contains(t, strings.Join(driver.EvalExprs, "\n"),
		fmt.Sprintf("player-count-%d", result.PlayerCount))
}

func TestRunScripted_TimeoutCapturesFailureScreenshot(t *testing.T) {
	// Start button never becomes ready.
	driver := mocks.NewFakeDriver().QueueEval(false)

	_, err := RunScripted(context.Background(), driver, scriptedConfig(), nil)
	require.Error(t, err)

	require.Len(t, driver.Screenshots, 1)
	assert.Equal(t, "artifacts/ai-tests/start-single-player-error.png", driver.Screenshots[0])
	assert.True(t, driver.Stopped, "browser must be released on failure")
}

func TestRunScripted_StartFailureSkipsFlow(t *testing.T) {
	driver := mocks.NewFakeDriver()
	driver.StartErr = assert.AnError

	_, err := RunScripted(context.Background(), driver, scriptedConfig(), nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, driver.NavigatedURLs)
}
