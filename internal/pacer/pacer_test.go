package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedDelayWaits(t *testing.T) {
	p := NewFixedDelay(30 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFixedDelayHonoursCancellation(t *testing.T) {
	p := NewFixedDelay(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestRateLimitedSpacesCalls(t *testing.T) {
	p := NewRateLimited(40 * time.Millisecond)
	ctx := context.Background()

	// 第一次直接放行（桶内有一个令牌）
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "second call should be delayed")
}

func TestNewSelectsStrategy(t *testing.T) {
	assert.IsType(t, &FixedDelay{}, New("fixed", time.Second))
	assert.IsType(t, &FixedDelay{}, New("", time.Second))
	assert.IsType(t, &RateLimited{}, New("rate", time.Second))
	assert.IsType(t, None{}, New("rate", 0))
	assert.IsType(t, None{}, New("none", time.Second))
}
