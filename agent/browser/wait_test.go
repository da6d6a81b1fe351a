package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentsmoke/testutil/mocks"
)

func fastWait() WaitConfig {
	return WaitConfig{Interval: time.Millisecond, Timeout: 50 * time.Millisecond}
}

func TestWaitForSelector_ReadyAfterPolls(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(false).QueueEval(false).QueueEval(true)

	err := WaitForSelector(context.Background(), d, "[data-testid='create-lineup']", fastWait())
	require.NoError(t, err)
	assert.Len(t, d.EvalExprs, 3)
	assert.Contains(t, d.EvalExprs[0], `document.querySelector("[data-testid='create-lineup']")`)
}

func TestWaitForSelector_Timeout(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(false)

	err := WaitForSelector(context.Background(), d, "#never", fastWait())
	require.Error(t, err)

	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Contains(t, timeout.Error(), "#never")
}

func TestWaitForSelector_CancellationUnwinds(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForSelector(ctx, d, "#whatever", WaitConfig{Interval: time.Millisecond, Timeout: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForSelector_EvaluateErrorPropagates(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEvalErr(errors.New("page crashed"))

	err := WaitForSelector(context.Background(), d, "#x", fastWait())
	assert.ErrorContains(t, err, "page crashed")
}

func TestWaitForPath(t *testing.T) {
	t.Run("matches prefix", func(t *testing.T) {
		d := mocks.NewFakeDriver().
			PushURL("http://localhost:3000/").
			PushURL("http://localhost:3000/single-player/new")

		url, err := WaitForPath(context.Background(), d, "/single-player", fastWait())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/single-player/new", url)
	})

	t.Run("times out when path never appears", func(t *testing.T) {
		d := mocks.NewFakeDriver().PushURL("http://localhost:3000/")

		_, err := WaitForPath(context.Background(), d, "/single-player", fastWait())
		var timeout *TimeoutError
		require.True(t, errors.As(err, &timeout))
	})

	t.Run("empty url keeps polling", func(t *testing.T) {
		d := mocks.NewFakeDriver().
			PushURL("").
			PushURL("http://localhost:3000/game")

		url, err := WaitForPath(context.Background(), d, "/game", fastWait())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/game", url)
	})
}

func TestWaitForText_CaseInsensitive(t *testing.T) {
	d := mocks.NewFakeDriver().SetContent("<h1>All Tricks COMPLETE</h1>")

	err := WaitForText(context.Background(), d, "complete", fastWait())
	assert.NoError(t, err)
}

func TestClickSelector_EmbedsEscapedSelector(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(true)

	err := ClickSelector(context.Background(), d, `[aria-label='Start Single Player']`)
	require.NoError(t, err)
	require.Len(t, d.EvalExprs, 1)
	assert.Contains(t, d.EvalExprs[0], `"[aria-label='Start Single Player']"`)
	assert.Contains(t, d.EvalExprs[0], "el.click()")
}

func TestTypeIntoSelector_SubmitSendsEnter(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(true)

	err := TypeIntoSelector(context.Background(), d, "#bid", "3", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enter"}, d.Keys)
}

func TestTypeIntoSelector_NoSubmitNoKey(t *testing.T) {
	d := mocks.NewFakeDriver().QueueEval(true)

	err := TypeIntoSelector(context.Background(), d, "#bid", "3", false)
	require.NoError(t, err)
	assert.Empty(t, d.Keys)
}

func TestScrollTo(t *testing.T) {
	t.Run("top", func(t *testing.T) {
		d := mocks.NewFakeDriver().QueueEval(true)
		require.NoError(t, ScrollTo(context.Background(), d, "top", ""))
		assert.Contains(t, d.EvalExprs[0], "window.scrollTo(0, 0)")
	})

	t.Run("bottom", func(t *testing.T) {
		d := mocks.NewFakeDriver().QueueEval(true)
		require.NoError(t, ScrollTo(context.Background(), d, "bottom", ""))
		assert.Contains(t, d.EvalExprs[0], "scrollHeight")
	})

	t.Run("selector", func(t *testing.T) {
		d := mocks.NewFakeDriver().QueueEval(true)
		require.NoError(t, ScrollTo(context.Background(), d, "", "#card-7"))
		assert.Contains(t, d.EvalExprs[0], "scrollIntoView")
	})

	t.Run("neither is an error", func(t *testing.T) {
		d := mocks.NewFakeDriver()
		assert.Error(t, ScrollTo(context.Background(), d, "", ""))
	})
}
