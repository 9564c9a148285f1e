package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/application/eventhandler"
	"github.com/skillplay/skillplay-life/internal/domain/challenge"
	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/game"
	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/domain/navigation"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/settings"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/catalog"
	"github.com/skillplay/skillplay-life/internal/infrastructure/device"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/memory"
	"github.com/skillplay/skillplay-life/internal/infrastructure/scheduler"
)

type fixture struct {
	client     *Client
	clock      *scheduler.Manual
	kv         *memory.Store
	catalog    *content.Static
	milestones []eventhandler.Milestone
}

// newFixture builds a client and launches it into the native flow.
func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := newIdleFixture(t, mutate)
	res, err := f.client.Launch(context.Background())
	require.NoError(t, err)
	require.True(t, res.Screen.IsNative())
	return f
}

// newIdleFixture builds a client still on the loading screen.
func newIdleFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		clock:   scheduler.NewManual(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
		kv:      memory.NewStore(),
		catalog: catalog.Builtin(),
	}
	deps := Deps{
		Catalog:    f.catalog,
		KV:         f.kv,
		Dispatcher: f.clock,
		Scheduler:  f.clock,
		Clock:      f.clock,
		Signals:    device.Static{BatteryPercent: 100},
		Selector:   challenge.DailySelector{},
		TimeUnit:   time.Second,
		Hooks: Hooks{
			OnMilestone: func(m eventhandler.Milestone) { f.milestones = append(f.milestones, m) },
		},
	}
	if mutate != nil {
		mutate(&deps)
	}

	c, err := New(context.Background(), deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	f.client = c
	return f
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLaunch_NativeThenOnboarding(t *testing.T) {
	f := newIdleFixture(t, nil)
	ctx := context.Background()

	res, err := f.client.Launch(ctx)
	require.NoError(t, err)
	assert.Equal(t, gate.RouteNative, res.Decision.Route)
	assert.Equal(t, gate.ReasonBatteryFull, res.Decision.Reason)
	assert.Equal(t, navigation.ScreenOnboarding, res.Screen)

	screen, err := f.client.CompleteOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, navigation.ScreenMain, screen)

	again, err := f.client.Launch(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Decision, again.Decision, "gate runs once")
	assert.Equal(t, navigation.ScreenMain, again.Screen)

	s, err := f.client.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, s.HasCompletedOnboarding)
	assert.Equal(t, "native", s.Status)
}

func TestSetPreferences(t *testing.T) {
	f := newIdleFixture(t, nil)
	ctx := context.Background()

	s, err := f.client.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, s.AnimationsEnabled, "first launch enables toggles")
	assert.True(t, s.NotificationsEnabled)

	off := false
	s, err = f.client.SetPreferences(ctx, Preferences{Animations: &off})
	require.NoError(t, err)
	assert.False(t, s.AnimationsEnabled)
	assert.True(t, s.NotificationsEnabled)

	raw, err := f.kv.Get(ctx, settings.KeyAnimationsEnabled)
	require.NoError(t, err)
	assert.Equal(t, "false", string(raw))
}

func TestLaunch_RemoteBlocksNativeActions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	f := newIdleFixture(t, func(d *Deps) {
		d.Signals = device.Static{BatteryPercent: 40}
		d.RemoteURL = srv.URL
	})
	ctx := context.Background()

	res, err := f.client.Launch(ctx)
	require.NoError(t, err)
	assert.Equal(t, gate.RouteRemote, res.Decision.Route)
	assert.Equal(t, navigation.ScreenRemote, res.Screen)

	_, err = f.client.CompleteOnboarding(ctx)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)

	_, err = f.client.ReadTip(ctx, f.catalog.LifestyleTips()[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)

	_, err = f.client.OpenGame(ctx, content.GameTapChallenge, nil)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)

	_, err = f.client.Achievements(ctx)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)

	assert.ErrorIs(t, f.client.ResetProgress(ctx), shared.ErrNotNativeFlow)
}

func TestContentActions_RejectedBeforeLaunch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	f := newIdleFixture(t, func(d *Deps) {
		d.Signals = device.Static{BatteryPercent: 40}
		d.RemoteURL = srv.URL
	})
	ctx := context.Background()

	_, err := f.client.ReadTip(ctx, f.catalog.LifestyleTips()[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)
	_, err = f.client.CompleteLearningCard(ctx, f.catalog.LearningCards()[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)
	_, _, err = f.client.UpdateChallenge(ctx, 1)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)
	_, err = f.client.OpenGame(ctx, content.GameTapChallenge, nil)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)
	_, err = f.client.Achievements(ctx)
	assert.ErrorIs(t, err, shared.ErrNotNativeFlow)

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.Zero(t, p.TotalPoints)
	assert.Zero(t, p.ReadTipIDs.Len())
	assert.Zero(t, hits.Load(), "actions send no request")

	res, err := f.client.Launch(ctx)
	require.NoError(t, err)
	assert.Equal(t, gate.RouteRemote, res.Decision.Route)
}

func TestLaunch_ConcurrentCallersShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	loop := scheduler.NewLoop(scheduler.DefaultLoopConfig())
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Stop)

	ctx := context.Background()
	c, err := New(ctx, Deps{
		Catalog:    catalog.Builtin(),
		KV:         memory.NewStore(),
		Dispatcher: loop,
		Scheduler:  scheduler.NewTimers(loop),
		Signals:    device.Static{BatteryPercent: 40},
		RemoteURL:  srv.URL,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	const callers = 4
	var wg sync.WaitGroup
	results := make([]LaunchResult, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Launch(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, gate.RouteNative, results[i].Decision.Route)
		assert.Equal(t, gate.ReasonNotFound, results[i].Decision.Reason)
		assert.Equal(t, navigation.ScreenOnboarding, results[i].Screen)
	}
}

// holdingDispatcher counts posts and, once hold is set, parks each post until
// hold is closed.
type holdingDispatcher struct {
	shared.Dispatcher
	posts atomic.Int32
	hold  chan struct{}
}

func (d *holdingDispatcher) Post(fn func()) bool {
	d.posts.Add(1)
	if d.hold != nil {
		<-d.hold
	}
	return d.Dispatcher.Post(fn)
}

func TestClose_SecondCallDuringTeardownIsNoop(t *testing.T) {
	disp := &holdingDispatcher{}
	f := newFixture(t, func(d *Deps) {
		disp.Dispatcher = d.Dispatcher
		d.Dispatcher = disp
	})
	ctx := context.Background()

	before := disp.posts.Load()
	disp.hold = make(chan struct{})

	first := make(chan error, 1)
	go func() { first <- f.client.Close(ctx) }()
	require.Eventually(t, func() bool { return disp.posts.Load() == before+1 },
		time.Second, time.Millisecond, "first Close posts its teardown")

	second := make(chan error, 1)
	go func() { second <- f.client.Close(ctx) }()
	select {
	case err := <-second:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second Close waited on teardown")
	}

	close(disp.hold)
	require.NoError(t, <-first)
	assert.Equal(t, before+1, disp.posts.Load(), "teardown ran once")
}

func TestContentActions_AwardOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	card := f.catalog.LearningCards()[0]

	a, err := f.client.CompleteLearningCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, a.Awarded)
	assert.Equal(t, progress.PointsLearningCard, a.Points)
	assert.Equal(t, card.Title, a.Title)

	a, err = f.client.CompleteLearningCard(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, a.Awarded)
	assert.Zero(t, a.Points)
	assert.Equal(t, progress.PointsLearningCard, a.TotalPoints)

	_, err = f.client.ReadTip(ctx, "no-such-tip")
	assert.True(t, shared.IsNotFound(err))

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.True(t, p.CompletedLearningCardIDs.Has(card.ID))
	assert.Empty(t, p.FailedKeys)
}

func TestChallenge_CompletesOnceAndCelebrates(t *testing.T) {
	var celebrations []bool
	f := newFixture(t, func(d *Deps) {
		d.Hooks.OnChallengeCelebrate = func(active bool) { celebrations = append(celebrations, active) }
	})
	ctx := context.Background()

	v, err := f.client.Challenge(ctx)
	require.NoError(t, err)
	require.Positive(t, v.TargetValue)

	v, completed, err := f.client.UpdateChallenge(ctx, v.TargetValue+10)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, v.TargetValue, v.CurrentProgress)
	assert.True(t, v.Celebrating)

	_, completed, err = f.client.IncrementChallenge(ctx, 1)
	require.NoError(t, err)
	assert.False(t, completed)

	f.clock.Advance(ChallengeCelebrationUnits * time.Second)
	v, err = f.client.Challenge(ctx)
	require.NoError(t, err)
	assert.False(t, v.Celebrating)
	assert.Equal(t, []bool{true, false}, celebrations)

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, progress.PointsChallenge, p.TotalPoints)
}

func TestAchievements_UnlockOnEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	v, err := f.client.Achievements(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Newly)
	assert.Zero(t, v.Unlocked)
	assert.Len(t, v.All, len(f.catalog.Achievements()))

	ch, err := f.client.Challenge(ctx)
	require.NoError(t, err)
	_, _, err = f.client.UpdateChallenge(ctx, ch.TargetValue)
	require.NoError(t, err)

	v, err = f.client.Achievements(ctx)
	require.NoError(t, err)
	require.Len(t, v.Newly, 1)
	assert.Equal(t, content.AchievementFirstSteps, v.Newly[0].ID)
	assert.Equal(t, 1, v.Unlocked)

	// 50 for the challenge plus 100 for the unlock crosses the first milestone.
	require.Len(t, f.milestones, 1)
	assert.Equal(t, 100, f.milestones[0].Threshold)

	v, err = f.client.Achievements(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Newly)
}

func TestGame_RoundRecordAndHighScore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	g, err := f.client.OpenGame(ctx, content.GameReactionTime, nil)
	require.NoError(t, err)

	scored, err := g.Tap(ctx)
	require.NoError(t, err)
	assert.False(t, scored, "tap before start")

	require.NoError(t, g.Start(ctx))
	for range 7 {
		_, err := g.Tap(ctx)
		require.NoError(t, err)
	}
	f.clock.Advance(game.RoundTicks * time.Second)

	select {
	case s := <-g.Finished():
		assert.Equal(t, 7, s.Score)
		assert.Equal(t, game.OutcomeExpired, s.Outcome)
		assert.Equal(t, 7, s.HighScore)
	default:
		t.Fatal("round did not finish")
	}

	require.NoError(t, g.Record(ctx))
	assert.ErrorIs(t, g.Record(ctx), shared.ErrScoreRecorded)
	require.NoError(t, g.Close(ctx))

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, p.TotalPoints)
	assert.Equal(t, 1, p.CurrentStreak)

	again, err := f.client.OpenGame(ctx, content.GameReactionTime, nil)
	require.NoError(t, err)
	s, err := again.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, s.HighScore, "seeded from recorded scores")
}

func TestGame_StopEndsEarly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	g, err := f.client.OpenGame(ctx, content.GameTapChallenge, nil)
	require.NoError(t, err)
	require.NoError(t, g.Start(ctx))
	f.clock.Advance(5 * time.Second)
	require.NoError(t, g.Stop(ctx))

	s := <-g.Finished()
	assert.Equal(t, game.OutcomeStopped, s.Outcome)
	assert.Equal(t, game.RoundTicks-5, s.TimeRemaining)
	assert.Zero(t, f.clock.Pending())

	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.Start(ctx))
}

func TestOpenGame_UnknownType(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.client.OpenGame(context.Background(), content.GameType("chess"), nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestResetProgress(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.client.ReadTip(ctx, f.catalog.LifestyleTips()[0].ID)
	require.NoError(t, err)
	require.NoError(t, f.client.ResetProgress(ctx))

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.Zero(t, p.TotalPoints)
	assert.Zero(t, p.ReadTipIDs.Len())
}

func TestClose_RejectsFurtherActions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	g, err := f.client.OpenGame(ctx, content.GameTapChallenge, nil)
	require.NoError(t, err)
	require.NoError(t, g.Start(ctx))

	require.NoError(t, f.client.Close(ctx))
	assert.Zero(t, f.clock.Pending(), "running tick cancelled")
	require.NoError(t, f.client.Close(ctx))

	_, err = f.client.Progress(ctx)
	assert.ErrorIs(t, err, shared.ErrClosed)
}

func TestClient_StorageFailuresSurface(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.kv.FailWrites(progress.KeyReadTipIDs, assert.AnError)
	_, err := f.client.ReadTip(ctx, f.catalog.LifestyleTips()[0].ID)
	assert.ErrorIs(t, err, shared.ErrProgressPersist)

	p, err := f.client.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{progress.KeyReadTipIDs}, p.FailedKeys)
	assert.Equal(t, progress.PointsTip, p.TotalPoints, "mutation kept")
}
