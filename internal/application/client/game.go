package client

import (
	"context"

	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/game"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

// Game is a handle to one mini-game screen. Its session lives on the
// dispatcher; the methods post to it.
type Game struct {
	c        *Client
	session  *game.Session
	finished chan game.Snapshot
	lastSeen game.State
}

// OpenGame opens a game screen in the waiting state. The high score is seeded
// from the best recorded score for that game type. onChange is optional and
// runs on the dispatcher after every state change.
func (c *Client) OpenGame(ctx context.Context, gameType content.GameType, onChange func(game.Snapshot)) (*Game, error) {
	if !gameType.IsValid() {
		return nil, shared.NewDomainError("client", "OpenGame", shared.ErrInvalidInput,
			"unknown game type "+string(gameType))
	}

	g := &Game{c: c, finished: make(chan game.Snapshot, 1), lastSeen: game.StateWaiting}
	err := c.do(ctx, func() error {
		if err := c.requireNative("game"); err != nil {
			return err
		}
		g.session = game.NewSession(game.Config{
			GameType:         gameType,
			Scheduler:        c.scheduler,
			Clock:            c.clock,
			Recorder:         c.progress,
			Publisher:        c.bus,
			Logger:           c.logger,
			Tick:             c.timeUnit,
			InitialHighScore: c.progress.Snapshot().BestScoreFor(gameType),
			OnChange: func(s game.Snapshot) {
				g.observe(s)
				if onChange != nil {
					onChange(s)
				}
			},
		})
		c.games[g] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// observe delivers each entry into the finished state to Finished.
func (g *Game) observe(s game.Snapshot) {
	entered := s.State == game.StateFinished && g.lastSeen != game.StateFinished
	g.lastSeen = s.State
	if !entered {
		return
	}
	select {
	case g.finished <- s:
	default:
		// An unread result from an earlier round is replaced.
		select {
		case <-g.finished:
		default:
		}
		g.finished <- s
	}
}

// Finished receives the snapshot each time a round ends.
func (g *Game) Finished() <-chan game.Snapshot { return g.finished }

// Start begins a round.
func (g *Game) Start(ctx context.Context) error {
	return g.c.do(ctx, g.session.Start)
}

// Tap scores a point if a round is running.
func (g *Game) Tap(ctx context.Context) (bool, error) {
	var scored bool
	err := g.c.do(ctx, func() error {
		scored = g.session.Tap()
		return nil
	})
	return scored, err
}

// Stop ends the running round early.
func (g *Game) Stop(ctx context.Context) error {
	return g.c.do(ctx, func() error {
		g.session.Stop()
		return nil
	})
}

// Reset returns a finished game to waiting.
func (g *Game) Reset(ctx context.Context) error {
	return g.c.do(ctx, g.session.Reset)
}

// Record saves the finished round's score into progress.
func (g *Game) Record(ctx context.Context) error {
	return g.c.do(ctx, func() error {
		return g.session.Record(ctx)
	})
}

// Snapshot returns the current view.
func (g *Game) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var s game.Snapshot
	err := g.c.do(ctx, func() error {
		s = g.session.Snapshot()
		return nil
	})
	return s, err
}

// Close leaves the game screen, cancelling a running round.
func (g *Game) Close(ctx context.Context) error {
	return g.c.do(ctx, func() error {
		g.session.Close()
		delete(g.c.games, g)
		return nil
	})
}
