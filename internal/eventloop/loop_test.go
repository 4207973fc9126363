package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()

	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestDoRunsTasksInPostOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, loop.Post(func() { order = append(order, i) }))
	}

	var snapshot []int
	require.NoError(t, loop.Do(context.Background(), func() {
		snapshot = append(snapshot, order...)
	}))
	require.Equal(t, []int{0, 1, 2, 3, 4}, snapshot)
}

func TestPostAndDoFailAfterShutdown(t *testing.T) {
	loop, cancel := startLoop(t)
	cancel()
	<-loop.Done()

	require.False(t, loop.Post(func() {}))
	require.ErrorIs(t, loop.Do(context.Background(), func() {}), ErrClosed)
}

func TestRepeaterTicksUntilStopped(t *testing.T) {
	loop, _ := startLoop(t)
	clock := clockwork.NewFakeClock()

	var ticks atomic.Int32
	var repeater *Repeater
	require.NoError(t, loop.Do(context.Background(), func() {
		repeater = loop.Repeat(clock, 500*time.Millisecond, func() { ticks.Add(1) })
	}))

	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Do(context.Background(), repeater.Stop))
	require.True(t, repeater.Stopped())

	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, loop.Do(context.Background(), func() {}))
	require.Equal(t, int32(1), ticks.Load())
}

func TestRepeaterStopIsIdempotentAndNilSafe(t *testing.T) {
	loop, _ := startLoop(t)
	clock := clockwork.NewFakeClock()

	repeater := loop.Repeat(clock, time.Second, func() {})
	repeater.Stop()
	repeater.Stop()

	var missing *Repeater
	missing.Stop()
	require.True(t, missing.Stopped())
}

func TestTimerFiresOnceAndStopPreventsFiring(t *testing.T) {
	loop, _ := startLoop(t)
	clock := clockwork.NewFakeClock()

	var fired atomic.Int32
	loop.After(clock, time.Second, func() { fired.Add(1) })
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	var cancelled atomic.Int32
	timer := loop.After(clock, time.Second, func() { cancelled.Add(1) })
	clock.BlockUntil(1)
	timer.Stop()
	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, loop.Do(context.Background(), func() {}))
	require.Equal(t, int32(0), cancelled.Load())
}
