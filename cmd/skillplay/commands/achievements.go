package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
)

func (a *app) achievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Re-evaluate and list achievements",
		Long: `Opening the achievements view re-evaluates every rule against your
progress and unlocks whatever now qualifies. Each unlock awards 100 points.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				v, err := c.Achievements(ctx)
				a.printAchievements(v)
				return err
			})
		},
	}
}

func (a *app) printAchievements(v client.AchievementsView) {
	newly := make(map[string]bool, len(v.Newly))
	for _, n := range v.Newly {
		newly[string(n.ID)] = true
	}

	tbl := newTable(a.out, "Achievements")
	tbl.AppendHeader(table.Row{"", "Title", "Description", "Category", "Rarity"})
	for _, s := range v.All {
		title := s.Title
		if newly[string(s.ID)] {
			title = celebrate(title + " (new)")
		}
		tbl.AppendRow(table.Row{check(s.Unlocked), title, s.Description, s.Category, rarityLabel(s.Rarity)})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d unlocked", v.Unlocked, len(v.All))})
	tbl.Render()
}
