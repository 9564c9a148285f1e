package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
)

func (a *app) challengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Show today's challenge",
		Long: `Show today's challenge. With session.challenge_selection=daily the
challenge is the same all day; with random a new one is drawn on every start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				v, err := c.Challenge(ctx)
				if err != nil {
					return err
				}
				a.printChallenge(v)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "progress <value>",
		Short: "Set progress on today's challenge",
		Long:  `Set progress, clamped to 0..target. Reaching the target awards 50 points once.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("progress must be a whole number: %w", err)
			}
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				v, _, err := c.UpdateChallenge(ctx, value)
				a.printChallenge(v)
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "increment [delta]",
		Short: "Add to today's challenge progress (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta := 1
			if len(args) == 1 {
				d, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("delta must be a whole number: %w", err)
				}
				delta = d
			}
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				v, _, err := c.IncrementChallenge(ctx, delta)
				a.printChallenge(v)
				return err
			})
		},
	})
	return cmd
}

func (a *app) printChallenge(v client.ChallengeView) {
	if v.ID == "" {
		return
	}
	fmt.Fprintf(a.out, "%s\n%s\n", heading(v.Title), muted(v.Description))
	fmt.Fprintf(a.out, "%s %d/%d %s", progressBar(v.Percent()), v.CurrentProgress, v.TargetValue, v.Unit)
	if v.IsCompleted() {
		fmt.Fprintf(a.out, "  %s", good("done"))
	}
	fmt.Fprintln(a.out)
}
