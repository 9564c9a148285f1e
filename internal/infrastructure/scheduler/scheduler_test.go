package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop(DefaultLoopConfig())
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Stop)
	return loop
}

func TestLoop_RunsClosuresInOrder(t *testing.T) {
	loop := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, loop.Do(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_SurvivesPanics(t *testing.T) {
	loop := startLoop(t)

	loop.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_StopRejectsWork(t *testing.T) {
	loop := NewLoop(LoopConfig{})
	loop.Stop()
	loop.Stop()

	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Do(context.Background(), func() {}), ErrLoopStopped)
	assert.ErrorIs(t, loop.Run(context.Background()), ErrLoopStopped)
}

func TestLoop_RunReturnsOnContextCancel(t *testing.T) {
	loop := NewLoop(LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
	<-loop.Done()
}

func TestTimers_AfterFiresOnceAndCancelDrops(t *testing.T) {
	loop := startLoop(t)
	timers := NewTimers(loop)

	var fired atomic.Int32
	timers.After(5*time.Millisecond, func() { fired.Add(1) })
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	var cancelled atomic.Int32
	task := timers.After(20*time.Millisecond, func() { cancelled.Add(1) })
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, cancelled.Load())
}

func TestTimers_EveryUntilCancelled(t *testing.T) {
	loop := startLoop(t)
	timers := NewTimers(loop)

	var ticks atomic.Int32
	task := timers.Every(2*time.Millisecond, func() { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	require.NoError(t, loop.Do(context.Background(), func() { assert.True(t, task.Cancel()) }))
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestManual_AdvanceFiresInDueOrder(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var got []string
	m.After(3*time.Second, func() { got = append(got, "after3") })
	tick := m.Every(time.Second, func() { got = append(got, "tick") })
	m.After(time.Second, func() { got = append(got, "after1") })

	m.Advance(3 * time.Second)

	assert.Equal(t, []string{"tick", "after1", "tick", "after3", "tick"}, got)
	assert.Equal(t, start.Add(3*time.Second), m.Now())
	assert.Equal(t, 1, m.Pending())

	assert.True(t, tick.Cancel())
	assert.False(t, tick.Cancel())
	assert.Zero(t, m.Pending())
}

func TestManual_CallbackMayScheduleAndCancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var got []string
	var victim interface{ Cancel() bool }
	m.After(time.Second, func() {
		got = append(got, "first")
		victim.Cancel()
		m.After(time.Second, func() { got = append(got, "chained") })
	})
	victim = m.After(1500*time.Millisecond, func() { got = append(got, "victim") })

	m.Advance(5 * time.Second)
	assert.Equal(t, []string{"first", "chained"}, got)
}

func TestManual_PostRunsInline(t *testing.T) {
	m := NewManual(time.Now())
	ran := false
	assert.True(t, m.Post(func() { ran = true }))
	assert.True(t, ran)
	assert.False(t, m.Post(nil))
}
