package challenge

import (
	"context"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// DefaultCelebrationDuration is how long the completion celebration lasts.
const DefaultCelebrationDuration = 3 * time.Second

// Tracker holds one DailyChallenge for its lifetime. Loop-confined.
type Tracker struct {
	store     *progress.Store
	scheduler shared.Scheduler
	publisher shared.EventPublisher
	logger    *logger.Logger
	duration  time.Duration
	notify    func(active bool)

	challenge   DailyChallenge
	task        shared.Task
	celebrating bool
	closed      bool
}

// TrackerConfig contains the Tracker's collaborators.
type TrackerConfig struct {
	Catalog   content.Repository
	Selector  Selector
	Store     *progress.Store
	Scheduler shared.Scheduler
	Clock     shared.Clock
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// CelebrationDuration defaults to DefaultCelebrationDuration.
	CelebrationDuration time.Duration

	// OnCelebration is called when the celebration starts and ends. Optional.
	OnCelebration func(active bool)
}

// NewTracker selects today's challenge and returns a tracker for it. If the
// selected instance is already in the completed set (a stable daily ID after a
// restart), it starts at its target without a new award.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.Selector == nil {
		cfg.Selector = NewRandomSelector(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = shared.SystemClock
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.CelebrationDuration <= 0 {
		cfg.CelebrationDuration = DefaultCelebrationDuration
	}
	if cfg.OnCelebration == nil {
		cfg.OnCelebration = func(bool) {}
	}

	ch, err := cfg.Selector.Select(cfg.Catalog.ChallengeTemplates(), cfg.Clock.Now())
	if err != nil {
		return nil, err
	}
	if cfg.Store.HasCompletedChallenge(ch.ID) {
		ch.CurrentProgress = ch.TargetValue
	}

	t := &Tracker{
		store:     cfg.Store,
		scheduler: cfg.Scheduler,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With(logger.Component("challenge"), logger.ChallengeID(ch.ID)),
		duration:  cfg.CelebrationDuration,
		notify:    cfg.OnCelebration,
		challenge: ch,
	}
	t.logger.Debug("challenge selected",
		logger.String("template_id", ch.TemplateID),
		logger.Int("target", ch.TargetValue),
	)
	return t, nil
}

// Challenge returns the active challenge.
func (t *Tracker) Challenge() DailyChallenge { return t.challenge }

// Celebrating reports whether the completion celebration is showing.
func (t *Tracker) Celebrating() bool { return t.celebrating }

// UpdateProgress sets progress clamped to [0, target]. It reports whether this
// call completed the challenge. On that transition the challenge is recorded
// in the progress store (+50 on first completion) and a celebration starts.
func (t *Tracker) UpdateProgress(ctx context.Context, value int) (bool, error) {
	if t.closed {
		return false, shared.ErrTrackerClosed
	}

	wasCompleted := t.challenge.IsCompleted()
	t.challenge.CurrentProgress = clamp(value, 0, t.challenge.TargetValue)

	if wasCompleted || !t.challenge.IsCompleted() {
		return false, nil
	}

	t.logger.Info("challenge completed", logger.String("title", t.challenge.Title))
	t.celebrate()

	_, err := t.store.CompleteChallenge(ctx, t.challenge.ID)
	if pubErr := t.publisher.Publish(shared.NewChallengeCompletedEvent(
		t.challenge.ID, t.challenge.TemplateID, t.challenge.TargetValue)); pubErr != nil {
		t.logger.Warn("failed to publish completion", logger.Err(pubErr))
	}
	return true, err
}

// Increment adds delta to the current progress.
func (t *Tracker) Increment(ctx context.Context, delta int) (bool, error) {
	return t.UpdateProgress(ctx, t.challenge.CurrentProgress+delta)
}

// Close cancels a pending celebration. Further updates are rejected.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.stopCelebration()
}

func (t *Tracker) celebrate() {
	t.stopCelebration()

	t.celebrating = true
	t.notify(true)

	var task shared.Task
	task = t.scheduler.After(t.duration, func() {
		if t.task != task {
			return
		}
		t.task = nil
		t.celebrating = false
		t.notify(false)
	})
	t.task = task
}

func (t *Tracker) stopCelebration() {
	if t.task != nil {
		t.task.Cancel()
		t.task = nil
	}
	if t.celebrating {
		t.celebrating = false
		t.notify(false)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
