package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/domain/content"
	"github.com/skillplay/skillplay-life/internal/domain/game"
)

func (a *app) playCmd() *cobra.Command {
	var (
		gameName string
		noRecord bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a mini-game: every input line is a tap, q stops early",
		Long: `Play one 30-tick round. Press Enter to tap; type q and Enter to stop
early. When the round ends the score is recorded and added to your points
unless --no-record is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameType, err := content.ParseGameType(gameName)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				return a.playRound(ctx, c, gameType, in, !noRecord)
			})
		},
	}
	cmd.Flags().StringVarP(&gameName, "game", "g", string(content.GameTapChallenge),
		"game type: tap_challenge, memory_game, reaction_time")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not save the score")
	return cmd
}

func (a *app) playRound(ctx context.Context, c *client.Client, gameType content.GameType, in io.Reader, record bool) error {
	g, err := c.OpenGame(ctx, gameType, func(s game.Snapshot) {
		if s.State == game.StatePlaying {
			fmt.Fprintf(a.out, "\r%2ds left  score %d ", s.TimeRemaining, s.Score)
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = g.Close(context.WithoutCancel(ctx)) }()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-readCtx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(a.out, "%s  best %d\n", heading(string(gameType)), bestScore(ctx, g))
	if err := g.Start(ctx); err != nil {
		return err
	}

	var result game.Snapshot
	for done := false; !done; {
		select {
		case <-ctx.Done():
			_ = g.Stop(context.WithoutCancel(ctx))
			return ctx.Err()
		case result = <-g.Finished():
			done = true
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if strings.EqualFold(line, "q") {
				if err := g.Stop(ctx); err != nil {
					return err
				}
				continue
			}
			if _, err := g.Tap(ctx); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(a.out, "\n%s score %d (%s)\n", heading("Game over:"), result.Score, result.Outcome)
	if result.NewHigh {
		fmt.Fprintln(a.out, celebrate("New high score!"))
	}
	if !record {
		return nil
	}
	if err := g.Record(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	p, err := c.Progress(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "recorded, total %s points\n", points(p.TotalPoints))
	return nil
}

func bestScore(ctx context.Context, g *client.Game) int {
	s, err := g.Snapshot(ctx)
	if err != nil {
		return 0
	}
	return s.HighScore
}
