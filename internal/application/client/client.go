// Package client composes the session engine: content, storage, progress,
// gate, navigation, achievements, the daily challenge and mini-games. Every
// state machine lives on one dispatcher; the exported methods post work to it
// and wait for the result, so they are safe to call from any goroutine.
package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/skillplay/skillplay-life/internal/application/eventhandler"
	"github.com/skillplay/skillplay-life/internal/domain/achievement"
	"github.com/skillplay/skillplay-life/internal/domain/challenge"
	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/domain/navigation"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/settings"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/messaging"
	"github.com/skillplay/skillplay-life/internal/infrastructure/metrics"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// ErrClosed is returned by every action after Close.
var ErrClosed = shared.NewDomainError("client", "do", shared.ErrClosed, "client is closed")

// Celebration lengths in time units.
const (
	AchievementCelebrationUnits = 2
	ChallengeCelebrationUnits   = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Deps are the client's collaborators. Open builds them from configuration;
// tests pass a memory store and a scheduler.Manual.
type Deps struct {
	Catalog    content.Repository
	KV         shared.KeyValueStore
	Dispatcher shared.Dispatcher
	Scheduler  shared.Scheduler
	Clock      shared.Clock
	Signals    gate.SignalSource
	HTTPClient gate.HTTPDoer
	Logger     *logger.Logger

	// Selector picks the daily challenge. Nil means random.
	Selector challenge.Selector

	RemoteURL             string
	TransportFailureRoute gate.Route

	// TimeUnit is one game tick; celebrations are multiples of it.
	TimeUnit time.Duration

	Hooks Hooks
}

// Hooks let a presentation layer react to asynchronous changes. All hooks run
// on the dispatcher and must not call back into the client synchronously.
type Hooks struct {
	OnScreenChange       func(from, to navigation.Screen)
	OnAchievement        func(achievement.Celebration)
	OnChallengeCelebrate func(active bool)
	OnMilestone          func(eventhandler.Milestone)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the session engine facade.
type Client struct {
	catalog    content.Repository
	kv         shared.KeyValueStore
	dispatcher shared.Dispatcher
	scheduler  shared.Scheduler
	clock      shared.Clock
	logger     *logger.Logger
	timeUnit   time.Duration

	bus       *messaging.InMemoryEventBus
	collector *metrics.Collector
	failures  *eventhandler.OnStorageFailedHandler

	progress     *progress.Store
	settings     *settings.Store
	gate         *gate.Gate
	navigator    *navigation.Navigator
	achievements *achievement.Engine
	tracker      *challenge.Tracker

	// Loop-confined.
	games         map[*Game]struct{}
	launchWaiters []chan launchOutcome

	// closing is set by the first Close; closed once teardown has run and
	// actions are refused.
	closeMu sync.Mutex
	closing bool
	closed  bool
	onClose []func(context.Context) error
}

// New wires the client and loads persisted state. It blocks until loading has
// run on the dispatcher.
func New(ctx context.Context, deps Deps) (*Client, error) {
	if deps.Catalog == nil || deps.KV == nil || deps.Dispatcher == nil || deps.Scheduler == nil {
		return nil, shared.NewDomainError("client", "New", shared.ErrInvalidInput,
			"catalog, store, dispatcher and scheduler are required")
	}
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.TimeUnit <= 0 {
		deps.TimeUnit = time.Second
	}
	if deps.TransportFailureRoute == "" {
		deps.TransportFailureRoute = gate.RouteRemote
	}

	c := &Client{
		catalog:    deps.Catalog,
		kv:         deps.KV,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		clock:      deps.Clock,
		logger:     deps.Logger.With(logger.Component("client")),
		timeUnit:   deps.TimeUnit,
		games:      make(map[*Game]struct{}),
	}

	c.bus = messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		Logger:        deps.Logger,
		EnableMetrics: true,
	})
	c.collector = metrics.NewCollector(c.bus.Metrics())
	if err := c.collector.Attach(c.bus); err != nil {
		return nil, err
	}

	c.failures = eventhandler.NewOnStorageFailedHandler(deps.Logger)
	if err := c.failures.Register(c.bus); err != nil {
		return nil, err
	}
	milestones := eventhandler.DefaultPointsAwardedConfig()
	milestones.OnMilestone = deps.Hooks.OnMilestone
	if err := eventhandler.NewOnPointsAwardedHandler(milestones, deps.Logger).Register(c.bus); err != nil {
		return nil, err
	}

	c.progress = progress.NewStore(progress.StoreConfig{
		KV:        deps.KV,
		Clock:     deps.Clock,
		Publisher: c.bus,
		Logger:    deps.Logger,
	})
	c.settings = settings.NewStore(deps.KV, deps.Logger)
	c.gate = gate.New(gate.Config{
		RemoteURL:             deps.RemoteURL,
		Signals:               deps.Signals,
		Client:                deps.HTTPClient,
		TransportFailureRoute: deps.TransportFailureRoute,
		Publisher:             c.bus,
		Logger:                deps.Logger,
	})
	c.navigator = navigation.New(navigation.Config{
		Flag:      c.settings,
		Publisher: c.bus,
		Logger:    deps.Logger,
		OnChange:  deps.Hooks.OnScreenChange,
	})
	c.achievements = achievement.NewEngine(achievement.EngineConfig{
		Catalog:             deps.Catalog,
		Store:               c.progress,
		Scheduler:           deps.Scheduler,
		Publisher:           c.bus,
		Logger:              deps.Logger,
		CelebrationDuration: AchievementCelebrationUnits * deps.TimeUnit,
		OnCelebration:       deps.Hooks.OnAchievement,
	})

	err := c.do(ctx, func() error {
		c.progress.Load(ctx)
		if err := c.settings.Load(ctx); err != nil {
			c.logger.Warn("settings not fully saved", logger.Err(err))
		}

		tracker, err := challenge.NewTracker(challenge.TrackerConfig{
			Catalog:             deps.Catalog,
			Selector:            deps.Selector,
			Store:               c.progress,
			Scheduler:           deps.Scheduler,
			Clock:               deps.Clock,
			Publisher:           c.bus,
			Logger:              deps.Logger,
			CelebrationDuration: ChallengeCelebrationUnits * deps.TimeUnit,
			OnCelebration:       deps.Hooks.OnChallengeCelebrate,
		})
		if err != nil {
			return err
		}
		c.tracker = tracker
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("client ready", logger.TotalPoints(c.progress.TotalPoints()))
	return c, nil
}

// Catalog returns the read-only content repository.
func (c *Client) Catalog() content.Repository { return c.catalog }

// Metrics returns the Prometheus collector fed by the event bus.
func (c *Client) Metrics() *metrics.Collector { return c.collector }

// EventBus exposes the bus for additional subscribers.
func (c *Client) EventBus() shared.EventSubscriber { return c.bus }

// Close tears down timers and games, then releases resources registered by
// Open in reverse order. Only the first call does the work.
func (c *Client) Close(ctx context.Context) error {
	c.closeMu.Lock()
	if c.closing {
		c.closeMu.Unlock()
		return nil
	}
	c.closing = true
	c.closeMu.Unlock()

	var errs []error
	err := c.do(ctx, func() error {
		for g := range c.games {
			g.session.Close()
		}
		clear(c.games)
		if c.tracker != nil {
			c.tracker.Close()
		}
		c.achievements.Close()
		c.notifyLaunchWaiters(launchOutcome{err: ErrClosed})
		return nil
	})
	if err != nil && !errors.Is(err, shared.ErrClosed) {
		errs = append(errs, err)
	}

	c.closeMu.Lock()
	c.closed = true
	hooks := c.onClose
	c.onClose = nil
	c.closeMu.Unlock()

	if err := c.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// addCloser registers cleanup run by Close after the session is torn down.
func (c *Client) addCloser(fn func(context.Context) error) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// do runs fn on the dispatcher and waits for it.
func (c *Client) do(ctx context.Context, fn func() error) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return ErrClosed
	}

	done := make(chan error, 1)
	if !c.dispatcher.Post(func() { done <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
