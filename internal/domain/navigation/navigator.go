// Package navigation owns the top-level screen: the gate decision and the
// native onboarding/main router are one state machine.
//
//	loading ──gate:remote──▶ remote
//	loading ──gate:native──▶ onboarding | main (by the persisted onboarding flag)
//	onboarding ◀──▶ main
package navigation

import (
	"context"

	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// Screen is the top-level view.
type Screen string

const (
	ScreenLoading    Screen = "loading"
	ScreenOnboarding Screen = "onboarding"
	ScreenMain       Screen = "main"
	ScreenRemote     Screen = "remote"
)

// IsNative reports whether the screen belongs to the native flow.
func (s Screen) IsNative() bool {
	return s == ScreenOnboarding || s == ScreenMain
}

// OnboardingFlag is the persisted onboarding marker. settings.Store satisfies it.
type OnboardingFlag interface {
	OnboardingCompleted() bool
	SetOnboardingCompleted(ctx context.Context, done bool) error
}

// Navigator is loop-confined.
type Navigator struct {
	flag      OnboardingFlag
	publisher shared.EventPublisher
	logger    *logger.Logger
	onChange  func(from, to Screen)

	screen   Screen
	decision *gate.Decision
}

// Config contains the Navigator's collaborators.
type Config struct {
	Flag      OnboardingFlag
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// OnChange is called after each screen change. Optional.
	OnChange func(from, to Screen)
}

// New creates a Navigator on the loading screen.
func New(cfg Config) *Navigator {
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func(Screen, Screen) {}
	}
	return &Navigator{
		flag:      cfg.Flag,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With(logger.Component("navigation")),
		onChange:  cfg.OnChange,
		screen:    ScreenLoading,
	}
}

// Screen returns the current screen.
func (n *Navigator) Screen() Screen { return n.screen }

// Decision returns the applied gate decision, if any.
func (n *Navigator) Decision() (gate.Decision, bool) {
	if n.decision == nil {
		return gate.Decision{}, false
	}
	return *n.decision, true
}

// ApplyDecision leaves the loading screen. It may be called once.
func (n *Navigator) ApplyDecision(d gate.Decision) error {
	if n.decision != nil {
		return shared.ErrAlreadyDecided
	}
	n.decision = &d

	if d.Route == gate.RouteRemote {
		n.moveTo(ScreenRemote)
		return nil
	}
	if n.flag != nil && n.flag.OnboardingCompleted() {
		n.moveTo(ScreenMain)
	} else {
		n.moveTo(ScreenOnboarding)
	}
	return nil
}

// CompleteOnboarding moves onboarding → main and sets the persisted flag.
// Already on main, it does nothing.
func (n *Navigator) CompleteOnboarding(ctx context.Context) error {
	return n.route(ctx, ScreenMain, true)
}

// ResetOnboarding moves main → onboarding and clears the persisted flag.
// Already on onboarding, it does nothing.
func (n *Navigator) ResetOnboarding(ctx context.Context) error {
	return n.route(ctx, ScreenOnboarding, false)
}

func (n *Navigator) route(ctx context.Context, target Screen, done bool) error {
	if !n.screen.IsNative() {
		n.logger.Debug("router action rejected", logger.Screen(string(n.screen)))
		return shared.ErrNotNativeFlow
	}
	if n.screen == target {
		return nil
	}

	var err error
	if n.flag != nil {
		err = n.flag.SetOnboardingCompleted(ctx, done)
	}
	n.moveTo(target)
	return err
}

func (n *Navigator) moveTo(to Screen) {
	from := n.screen
	n.screen = to

	n.logger.Debug("screen changed", logger.String("from", string(from)), logger.Screen(string(to)))
	if err := n.publisher.Publish(shared.NewScreenChangedEvent(string(from), string(to))); err != nil {
		n.logger.Warn("failed to publish screen change", logger.Err(err))
	}
	n.onChange(from, to)
}
