package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillplay/skillplay-life/internal/domain/challenge"
	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/domain/navigation"
	"github.com/skillplay/skillplay-life/internal/domain/progress"
	"github.com/skillplay/skillplay-life/internal/domain/settings"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP & NAVIGATION
// ══════════════════════════════════════════════════════════════════════════════

// LaunchResult is the outcome of the startup gate.
type LaunchResult struct {
	Decision gate.Decision
	Screen   navigation.Screen
}

// Launch runs the gate once and moves the navigator off the loading screen.
// Callers that arrive while the probe is in flight wait for its decision;
// later calls return the first decision without probing again.
func (c *Client) Launch(ctx context.Context) (LaunchResult, error) {
	var (
		result LaunchResult
		wait   chan launchOutcome
	)
	err := c.do(ctx, func() error {
		if d, ok := c.navigator.Decision(); ok {
			result = LaunchResult{Decision: d, Screen: c.navigator.Screen()}
			return nil
		}
		wait = make(chan launchOutcome, 1)
		c.launchWaiters = append(c.launchWaiters, wait)
		if len(c.launchWaiters) == 1 {
			// The probe outlives a caller that gives up waiting.
			probeCtx := context.WithoutCancel(ctx)
			c.gate.DecideAsync(probeCtx, c.dispatcher, func(d gate.Decision) {
				c.finishLaunch(probeCtx, d)
			})
		}
		return nil
	})
	if err != nil || wait == nil {
		return result, err
	}

	select {
	case out := <-wait:
		return out.result, out.err
	case <-ctx.Done():
		return LaunchResult{}, ctx.Err()
	}
}

type launchOutcome struct {
	result LaunchResult
	err    error
}

// finishLaunch applies the gate decision and wakes every waiting Launch.
// Runs on the dispatcher.
func (c *Client) finishLaunch(ctx context.Context, d gate.Decision) {
	var out launchOutcome
	if out.err = c.navigator.ApplyDecision(d); out.err == nil {
		if err := c.settings.SetStatus(ctx, string(d.Route)); err != nil {
			c.logger.Warn("failed to record launch route", logger.Err(err))
		}
	}
	if applied, ok := c.navigator.Decision(); ok {
		out.result = LaunchResult{Decision: applied, Screen: c.navigator.Screen()}
	}
	c.notifyLaunchWaiters(out)
}

func (c *Client) notifyLaunchWaiters(out launchOutcome) {
	for _, w := range c.launchWaiters {
		w <- out
	}
	c.launchWaiters = nil
}

// Screen returns the current screen.
func (c *Client) Screen(ctx context.Context) (navigation.Screen, error) {
	var s navigation.Screen
	err := c.do(ctx, func() error {
		s = c.navigator.Screen()
		return nil
	})
	return s, err
}

// CompleteOnboarding moves onboarding → main and persists the flag.
func (c *Client) CompleteOnboarding(ctx context.Context) (navigation.Screen, error) {
	return c.routeAction(ctx, c.navigator.CompleteOnboarding)
}

// ResetOnboarding moves main → onboarding and clears the flag.
func (c *Client) ResetOnboarding(ctx context.Context) (navigation.Screen, error) {
	return c.routeAction(ctx, c.navigator.ResetOnboarding)
}

func (c *Client) routeAction(ctx context.Context, action func(context.Context) error) (navigation.Screen, error) {
	var s navigation.Screen
	err := c.do(ctx, func() error {
		err := action(ctx)
		s = c.navigator.Screen()
		return err
	})
	return s, err
}

// Settings returns the persisted app flags.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	var s settings.Settings
	err := c.do(ctx, func() error {
		s = c.settings.Current()
		return nil
	})
	return s, err
}

// Preferences changes the UI toggles. Nil fields are left as they are.
type Preferences struct {
	Animations    *bool
	Notifications *bool
}

// SetPreferences persists the given toggles and returns the resulting flags.
func (c *Client) SetPreferences(ctx context.Context, p Preferences) (settings.Settings, error) {
	var s settings.Settings
	err := c.do(ctx, func() error {
		var errs []error
		if p.Animations != nil {
			errs = append(errs, c.settings.SetAnimationsEnabled(ctx, *p.Animations))
		}
		if p.Notifications != nil {
			errs = append(errs, c.settings.SetNotificationsEnabled(ctx, *p.Notifications))
		}
		s = c.settings.Current()
		return errors.Join(errs...)
	})
	return s, err
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Award describes the effect of an award-bearing action.
type Award struct {
	ItemID      string
	Title       string
	Awarded     bool
	Points      int
	TotalPoints int
}

// CompleteLearningCard marks a catalog learning card completed.
func (c *Client) CompleteLearningCard(ctx context.Context, id string) (Award, error) {
	card, ok := c.catalog.LearningCard(id)
	if !ok {
		return Award{}, notFound("CompleteLearningCard", "learning card", id)
	}
	return c.award(ctx, card.ID, card.Title, progress.PointsLearningCard, c.progress.CompleteLearningCard)
}

// ReadTip marks a catalog lifestyle tip read.
func (c *Client) ReadTip(ctx context.Context, id string) (Award, error) {
	tip, ok := c.catalog.LifestyleTip(id)
	if !ok {
		return Award{}, notFound("ReadTip", "lifestyle tip", id)
	}
	return c.award(ctx, tip.ID, tip.Title, progress.PointsTip, c.progress.ReadTip)
}

func (c *Client) award(
	ctx context.Context,
	id, title string,
	points int,
	insert func(context.Context, string) (bool, error),
) (Award, error) {
	a := Award{ItemID: id, Title: title}
	err := c.do(ctx, func() error {
		if err := c.requireNative("award"); err != nil {
			return err
		}
		added, err := insert(ctx, id)
		a.Awarded = added
		if added {
			a.Points = points
		}
		a.TotalPoints = c.progress.TotalPoints()
		return err
	})
	return a, err
}

// requireNative rejects content actions unless the gate has granted the
// native flow. Until Launch decides, the navigator is on loading.
func (c *Client) requireNative(op string) error {
	if screen := c.navigator.Screen(); !screen.IsNative() {
		c.logger.Debug("action rejected outside the native flow",
			logger.Operation(op), logger.Screen(string(screen)))
		return shared.ErrNotNativeFlow
	}
	return nil
}

func notFound(op, kind, id string) error {
	return shared.NewDomainError("client", op, shared.ErrNotFound, fmt.Sprintf("%s %q not in catalog", kind, id))
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY CHALLENGE
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeView is the active challenge plus whether it is being celebrated.
type ChallengeView struct {
	challenge.DailyChallenge
	Celebrating bool
}

// Challenge returns the active challenge.
func (c *Client) Challenge(ctx context.Context) (ChallengeView, error) {
	var v ChallengeView
	err := c.do(ctx, func() error {
		v = c.challengeView()
		return nil
	})
	return v, err
}

// UpdateChallenge sets progress to value, clamped to [0, target]. completed
// is true only for the call that completed the challenge.
func (c *Client) UpdateChallenge(ctx context.Context, value int) (ChallengeView, bool, error) {
	return c.challengeAction(ctx, func() (bool, error) { return c.tracker.UpdateProgress(ctx, value) })
}

// IncrementChallenge adds delta to the progress.
func (c *Client) IncrementChallenge(ctx context.Context, delta int) (ChallengeView, bool, error) {
	return c.challengeAction(ctx, func() (bool, error) { return c.tracker.Increment(ctx, delta) })
}

func (c *Client) challengeAction(ctx context.Context, action func() (bool, error)) (ChallengeView, bool, error) {
	var (
		v         ChallengeView
		completed bool
	)
	err := c.do(ctx, func() error {
		if err := c.requireNative("challenge"); err != nil {
			return err
		}
		var err error
		completed, err = action()
		v = c.challengeView()
		return err
	})
	return v, completed, err
}

func (c *Client) challengeView() ChallengeView {
	return ChallengeView{DailyChallenge: c.tracker.Challenge(), Celebrating: c.tracker.Celebrating()}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementStatus pairs a catalog achievement with its unlock state.
type AchievementStatus struct {
	content.Achievement
	Unlocked bool
}

// AchievementsView is what the achievements screen shows on entry.
type AchievementsView struct {
	All      []AchievementStatus
	Newly    []content.Achievement
	Unlocked int
}

// Achievements re-evaluates the rules, unlocking whatever now qualifies, and
// lists every achievement in catalog order.
func (c *Client) Achievements(ctx context.Context) (AchievementsView, error) {
	var v AchievementsView
	err := c.do(ctx, func() error {
		if err := c.requireNative("achievements"); err != nil {
			return err
		}
		newly, err := c.achievements.Refresh(ctx)
		v.Newly = newly
		for _, a := range c.catalog.Achievements() {
			unlocked := c.progress.HasUnlockedAchievement(a.ID)
			if unlocked {
				v.Unlocked++
			}
			v.All = append(v.All, AchievementStatus{Achievement: a, Unlocked: unlocked})
		}
		return err
	})
	return v, err
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// ProgressView is a snapshot of the aggregate plus write health.
type ProgressView struct {
	progress.State
	FailedKeys []string
}

// Progress returns a snapshot of the progress aggregate.
func (c *Client) Progress(ctx context.Context) (ProgressView, error) {
	var v ProgressView
	err := c.do(ctx, func() error {
		v = ProgressView{State: c.progress.Snapshot(), FailedKeys: c.failures.FailedKeys()}
		return nil
	})
	return v, err
}

// ResetProgress clears the aggregate to first-run defaults.
func (c *Client) ResetProgress(ctx context.Context) error {
	return c.do(ctx, func() error {
		if err := c.requireNative("reset"); err != nil {
			return err
		}
		return c.progress.Reset(ctx)
	})
}
