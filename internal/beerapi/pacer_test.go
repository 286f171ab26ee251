package beerapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoplog/brewharvest/internal/metrics"
)

// fakeClock advances only when Sleep is called, so pacing assertions do
// not depend on wall-clock time.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func TestPacerFirstWaitDoesNotSleep(t *testing.T) {
	metrics.Init()
	clk := newFakeClock()
	pacer := NewPacer(clk, time.Second)

	require.NoError(t, pacer.Wait(context.Background()))
	require.Empty(t, clk.slept)
}

func TestPacerWaitsOutRemainderOfInterval(t *testing.T) {
	metrics.Init()
	clk := newFakeClock()
	pacer := NewPacer(clk, time.Second)

	pacer.Mark()
	clk.now = clk.now.Add(300 * time.Millisecond)

	require.NoError(t, pacer.Wait(context.Background()))
	require.Equal(t, []time.Duration{700 * time.Millisecond}, clk.slept)
}

func TestPacerSkipsSleepAfterLongGap(t *testing.T) {
	metrics.Init()
	clk := newFakeClock()
	pacer := NewPacer(clk, time.Second)

	pacer.Mark()
	clk.now = clk.now.Add(2 * time.Second)

	require.NoError(t, pacer.Wait(context.Background()))
	require.Empty(t, clk.slept)
}

func TestPacerZeroIntervalNeverWaits(t *testing.T) {
	metrics.Init()
	clk := newFakeClock()
	pacer := NewPacer(clk, 0)

	pacer.Mark()
	require.NoError(t, pacer.Wait(context.Background()))
	require.Empty(t, clk.slept)
}

func TestPacerWaitHonorsCanceledContext(t *testing.T) {
	metrics.Init()
	clk := newFakeClock()
	pacer := NewPacer(clk, time.Second)
	pacer.Mark()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, pacer.Wait(ctx), context.Canceled)
}
