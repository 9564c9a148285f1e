package achievement

import (
	"context"
	"errors"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// DefaultCelebrationDuration is how long an unlock celebration stays visible.
const DefaultCelebrationDuration = 2 * time.Second

// Celebration is delivered when an unlock celebration starts (Active) and when
// it ends, either by expiry or because a newer one replaced it.
type Celebration struct {
	Achievement content.Achievement
	Active      bool
}

// Engine evaluates rules and unlocks achievements. Loop-confined.
type Engine struct {
	catalog   content.Repository
	store     *progress.Store
	scheduler shared.Scheduler
	publisher shared.EventPublisher
	logger    *logger.Logger

	rules    map[content.AchievementID]Rule
	facts    Facts
	duration time.Duration
	notify   func(Celebration)

	current *content.Achievement
	task    shared.Task
	closed  bool
}

// EngineConfig contains the Engine's collaborators.
type EngineConfig struct {
	Catalog   content.Repository
	Store     *progress.Store
	Scheduler shared.Scheduler
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// Rules overrides DefaultRules when non-nil.
	Rules map[content.AchievementID]Rule

	// CelebrationDuration defaults to DefaultCelebrationDuration.
	CelebrationDuration time.Duration

	// OnCelebration is called on celebration start and end. Optional.
	OnCelebration func(Celebration)
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.CelebrationDuration <= 0 {
		cfg.CelebrationDuration = DefaultCelebrationDuration
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.OnCelebration == nil {
		cfg.OnCelebration = func(Celebration) {}
	}

	return &Engine{
		catalog:   cfg.Catalog,
		store:     cfg.Store,
		scheduler: cfg.Scheduler,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With(logger.Component("achievement")),
		rules:     cfg.Rules,
		facts:     FactsFrom(cfg.Catalog),
		duration:  cfg.CelebrationDuration,
		notify:    cfg.OnCelebration,
	}
}

// Evaluate returns the first catalog achievement, in catalog order, whose rule
// holds for state and which state has not unlocked yet.
func (e *Engine) Evaluate(state progress.State) (content.Achievement, bool) {
	for _, a := range e.catalog.Achievements() {
		if state.UnlockedAchievementIDs.Has(string(a.ID)) {
			continue
		}
		rule, ok := e.rules[a.ID]
		if !ok {
			continue
		}
		if rule(state, e.facts) {
			return a, true
		}
	}
	return content.Achievement{}, false
}

// Unlock records a first-time unlock (+100 points) and starts a celebration.
// Unlocking an already unlocked achievement is a no-op that returns false.
// A persistence error is returned alongside true: the unlock itself stands.
func (e *Engine) Unlock(ctx context.Context, a content.Achievement) (bool, error) {
	if e.closed {
		return false, shared.ErrEngineClosed
	}
	if _, ok := e.catalog.Achievement(a.ID); !ok {
		return false, shared.ErrAchievementNotFound
	}

	added, err := e.store.UnlockAchievement(ctx, a.ID)
	if !added {
		return false, err
	}

	e.logger.Info("achievement unlocked",
		logger.AchievementID(string(a.ID)),
		logger.String("rarity", string(a.Rarity)),
		logger.TotalPoints(e.store.TotalPoints()),
	)
	if pubErr := e.publisher.Publish(shared.NewAchievementUnlockedEvent(string(a.ID), a.Title, string(a.Rarity))); pubErr != nil {
		e.logger.Warn("failed to publish unlock", logger.Err(pubErr))
	}

	e.celebrate(a)
	return true, err
}

// Refresh evaluates and unlocks repeatedly until nothing new qualifies and
// returns the newly unlocked achievements in unlock order.
func (e *Engine) Refresh(ctx context.Context) ([]content.Achievement, error) {
	if e.closed {
		return nil, shared.ErrEngineClosed
	}

	var (
		unlocked []content.Achievement
		errs     []error
	)
	// Each pass unlocks one achievement, so the catalog size bounds the loop.
	for range e.catalog.Achievements() {
		a, ok := e.Evaluate(e.store.Snapshot())
		if !ok {
			break
		}
		added, err := e.Unlock(ctx, a)
		if err != nil {
			errs = append(errs, err)
		}
		if !added {
			break
		}
		unlocked = append(unlocked, a)
	}
	return unlocked, errors.Join(errs...)
}

// Celebrating returns the achievement currently being celebrated, if any.
func (e *Engine) Celebrating() (content.Achievement, bool) {
	if e.current == nil {
		return content.Achievement{}, false
	}
	return *e.current, true
}

// Close cancels any pending celebration. Further unlocks are rejected.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.endCelebration()
}

func (e *Engine) celebrate(a content.Achievement) {
	e.endCelebration()

	e.current = &a
	e.notify(Celebration{Achievement: a, Active: true})

	var task shared.Task
	task = e.scheduler.After(e.duration, func() {
		if e.task != task {
			return
		}
		e.task = nil
		e.finish()
	})
	e.task = task
}

func (e *Engine) endCelebration() {
	if e.task != nil {
		e.task.Cancel()
		e.task = nil
	}
	e.finish()
}

func (e *Engine) finish() {
	if e.current == nil {
		return
	}
	ended := *e.current
	e.current = nil
	e.notify(Celebration{Achievement: ended, Active: false})
}
