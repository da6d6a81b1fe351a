package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromeDPDriver_OpCtxAppliesConfiguredTimeout(t *testing.T) {
	d := NewChromeDPDriver(Config{Timeout: 30 * time.Second}, nil)
	d.ctx = context.Background()

	opCtx, cancel := d.opCtx()
	defer cancel()

	deadline, ok := opCtx.Deadline()
	require.True(t, ok, "configured timeout should bound the operation context")
	assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, 2*time.Second)
}

func TestChromeDPDriver_OpCtxWithoutTimeout(t *testing.T) {
	d := NewChromeDPDriver(Config{}, nil)
	d.ctx = context.Background()

	opCtx, cancel := d.opCtx()
	defer cancel()

	_, ok := opCtx.Deadline()
	assert.False(t, ok, "zero timeout should leave the session context unbounded")
}

func TestChromeDPDriver_MethodsRequireStart(t *testing.T) {
	d := NewChromeDPDriver(DefaultConfig(), nil)
	ctx := context.Background()

	assert.Error(t, d.Navigate(ctx, "http://localhost:3000"))
	_, err := d.CurrentURL(ctx)
	assert.Error(t, err)
	_, err = d.PageContent(ctx)
	assert.Error(t, err)
	assert.Error(t, d.Evaluate(ctx, "1 + 1", nil))
	assert.Error(t, d.SendKey(ctx, "Enter"))
	assert.NoError(t, d.Stop())
}
