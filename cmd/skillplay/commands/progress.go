package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/domain/content"
)

// recentGames is how many recorded games the progress view lists.
const recentGames = 5

// ErrResetNotConfirmed is returned by progress reset without --yes.
var ErrResetNotConfirmed = errors.New("progress reset deletes all points and history; pass --yes to confirm")

func (a *app) progressCmd() *cobra.Command {
	show := func(cmd *cobra.Command, _ []string) error {
		return a.run(cmd, func(ctx context.Context, c *client.Client) error {
			p, err := c.Progress(ctx)
			if err != nil {
				return err
			}
			a.printProgress(c.Catalog(), p)
			return nil
		})
	}

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show or reset your progress",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show points, streaks and history",
		Args:  cobra.NoArgs,
		RunE:  show,
	})

	var confirmed bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear all progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return ErrResetNotConfirmed
			}
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.ResetProgress(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "progress reset")
				return nil
			})
		},
	}
	reset.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the reset")
	cmd.AddCommand(reset)
	return cmd
}

func (a *app) printProgress(cat content.Repository, p client.ProgressView) {
	tbl := newTable(a.out, "Progress")
	tbl.AppendRows([]table.Row{
		{"Total points", points(p.TotalPoints)},
		{"Current streak", fmt.Sprintf("%d days", p.CurrentStreak)},
		{"Best streak", fmt.Sprintf("%d days", p.BestStreak)},
		{"Last active", when(p.LastActiveDate)},
		{"Learning cards", fmt.Sprintf("%d / %d", p.CompletedLearningCardIDs.Len(), len(cat.LearningCards()))},
		{"Tips read", fmt.Sprintf("%d / %d", p.ReadTipIDs.Len(), len(cat.LifestyleTips()))},
		{"Challenges completed", p.CompletedChallengeIDs.Len()},
		{"Achievements", fmt.Sprintf("%d / %d", p.UnlockedAchievementIDs.Len(), len(cat.Achievements()))},
		{"Best game score", p.BestScore()},
	})
	tbl.Render()

	if n := len(p.GameScores); n > 0 {
		games := newTable(a.out, "Recent games")
		games.AppendHeader(table.Row{"Game", "Score", "When"})
		for i := n - 1; i >= 0 && i >= n-recentGames; i-- {
			g := p.GameScores[i]
			games.AppendRow(table.Row{g.GameType, g.Score, when(g.Date)})
		}
		games.Render()
	}

	if len(p.FailedKeys) > 0 {
		fmt.Fprintf(a.err, "warning: not saved: %v\n", p.FailedKeys)
	}
}
