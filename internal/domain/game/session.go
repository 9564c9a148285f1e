// Package game implements the timed mini-game session state machine:
// waiting → playing → finished → waiting, driven by a periodic tick.
package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// RoundTicks is the length of one game in ticks.
const RoundTicks = 30

// DefaultTick is the default duration of one tick.
const DefaultTick = time.Second

// State of a session.
type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Outcome explains how a game reached the finished state.
type Outcome string

const (
	OutcomeExpired Outcome = "expired"
	OutcomeStopped Outcome = "stopped"
)

// ScoreRecorder persists a finished game's score. progress.Store satisfies it.
type ScoreRecorder interface {
	AddGameScore(ctx context.Context, score int, at time.Time, gameType content.GameType) error
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	SessionID     string
	GameType      content.GameType
	State         State
	Score         int
	TimeRemaining int
	HighScore     int
	Outcome       Outcome
	Recorded      bool
	// NewHigh is set when the finished round beat the previous high score.
	NewHigh bool
}

// Session is one mini-game screen. Loop-confined.
type Session struct {
	scheduler shared.Scheduler
	clock     shared.Clock
	recorder  ScoreRecorder
	publisher shared.EventPublisher
	logger    *logger.Logger
	tickEvery time.Duration
	onChange  func(Snapshot)

	gameType      content.GameType
	sessionID     string
	state         State
	score         int
	timeRemaining int
	highScore     int
	outcome       Outcome
	recorded      bool
	newHigh       bool
	tick          shared.Task
	closed        bool
}

// Config contains the Session's collaborators.
type Config struct {
	GameType  content.GameType
	Scheduler shared.Scheduler
	Clock     shared.Clock
	Recorder  ScoreRecorder
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// Tick defaults to DefaultTick.
	Tick time.Duration

	// InitialHighScore seeds the in-memory high score.
	InitialHighScore int

	// OnChange is called after every state change. Optional.
	OnChange func(Snapshot)
}

// NewSession creates a session in the waiting state.
func NewSession(cfg Config) *Session {
	if !cfg.GameType.IsValid() {
		cfg.GameType = content.GameTapChallenge
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
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func(Snapshot) {}
	}

	return &Session{
		scheduler:     cfg.Scheduler,
		clock:         cfg.Clock,
		recorder:      cfg.Recorder,
		publisher:     cfg.Publisher,
		logger:        cfg.Logger.With(logger.Component("game"), logger.GameType(string(cfg.GameType))),
		tickEvery:     cfg.Tick,
		onChange:      cfg.OnChange,
		gameType:      cfg.GameType,
		state:         StateWaiting,
		timeRemaining: RoundTicks,
		highScore:     max(cfg.InitialHighScore, 0),
	}
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:     s.sessionID,
		GameType:      s.gameType,
		State:         s.state,
		Score:         s.score,
		TimeRemaining: s.timeRemaining,
		HighScore:     s.highScore,
		Outcome:       s.outcome,
		Recorded:      s.recorded,
		NewHigh:       s.newHigh,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// SetGameType switches the game while waiting.
func (s *Session) SetGameType(gameType content.GameType) error {
	if s.state != StateWaiting {
		return shared.NewDomainError("game", "SetGameType", shared.ErrStateTransition,
			"game type can only change while waiting")
	}
	if !gameType.IsValid() {
		return shared.NewDomainError("game", "SetGameType", shared.ErrInvalidInput, "unknown game type")
	}
	s.gameType = gameType
	s.logger = s.logger.With(logger.GameType(string(gameType)))
	s.changed()
	return nil
}

// Start begins a round: score 0, 30 ticks remaining, periodic tick running.
func (s *Session) Start() error {
	if s.closed {
		return shared.ErrGameSessionEnded
	}
	if s.state != StateWaiting {
		return shared.ErrGameNotWaiting
	}

	s.sessionID = uuid.NewString()
	s.state = StatePlaying
	s.score = 0
	s.timeRemaining = RoundTicks
	s.outcome = ""
	s.recorded = false
	s.newHigh = false
	s.tick = s.scheduler.Every(s.tickEvery, s.onTick)

	s.logger.Debug("game started", logger.SessionID(s.sessionID))
	s.changed()
	return nil
}

// Tap adds a point while playing. Anywhere else it does nothing.
func (s *Session) Tap() bool {
	if s.state != StatePlaying {
		return false
	}
	s.score++
	s.changed()
	return true
}

// Stop ends the round early. No-op unless playing.
func (s *Session) Stop() {
	if s.state != StatePlaying {
		return
	}
	s.finish(OutcomeStopped)
}

// Reset returns a finished session to waiting.
func (s *Session) Reset() error {
	if s.state != StateFinished {
		return shared.ErrGameNotFinished
	}
	s.state = StateWaiting
	s.score = 0
	s.timeRemaining = RoundTicks
	s.outcome = ""
	s.newHigh = false
	s.changed()
	return nil
}

// Record saves the finished round's score into the progress store, once per round.
func (s *Session) Record(ctx context.Context) error {
	if s.state != StateFinished {
		return shared.NewDomainError("game", "Record", shared.ErrStateTransition,
			"score can only be recorded once the game is finished")
	}
	if s.recorded {
		return shared.ErrScoreRecorded
	}
	if s.recorder == nil {
		return shared.ErrNoScoreRecorder
	}

	s.recorded = true
	err := s.recorder.AddGameScore(ctx, s.score, s.clock.Now(), s.gameType)
	s.logger.Info("score recorded", logger.SessionID(s.sessionID), logger.Score(s.score))
	s.changed()
	return err
}

// Close tears the session down, cancelling a running tick.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTick()
}

func (s *Session) onTick() {
	if s.state != StatePlaying {
		return
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining == 0 {
		s.finish(OutcomeExpired)
		return
	}
	s.changed()
}

func (s *Session) finish(outcome Outcome) {
	s.cancelTick()

	s.state = StateFinished
	s.outcome = outcome
	s.newHigh = s.score > s.highScore
	if s.newHigh {
		s.highScore = s.score
	}

	s.logger.Info("game finished",
		logger.SessionID(s.sessionID),
		logger.Score(s.score),
		logger.String("outcome", string(outcome)),
		logger.Bool("new_high_score", s.newHigh),
	)
	if err := s.publisher.Publish(shared.NewGameFinishedEvent(
		s.sessionID, string(s.gameType), string(outcome), s.score, s.highScore, s.newHigh)); err != nil {
		s.logger.Warn("failed to publish game finished", logger.Err(err))
	}
	s.changed()
}

func (s *Session) cancelTick() {
	if s.tick == nil {
		return
	}
	s.tick.Cancel()
	s.tick = nil
}

func (s *Session) changed() {
	s.onChange(s.Snapshot())
}
