package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/domain/content"
)

func (a *app) learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn [card-id]",
		Short: "Complete a learning card, or list cards",
		Long: `Without an argument, list the learning cards and which are done.
With a card ID, mark it completed. The first completion awards 25 points.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				if len(args) == 0 {
					return a.listCards(ctx, c)
				}
				award, err := c.CompleteLearningCard(ctx, args[0])
				if err != nil {
					return err
				}
				awardLine(a.out, award.Title, award.Awarded, award.Points, award.TotalPoints)
				return nil
			})
		},
	}
}

func (a *app) tipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tip [tip-id]",
		Short: "Read a lifestyle tip, or list tips",
		Long: `Without an argument, list the lifestyle tips and which were read.
With a tip ID, show it and mark it read. The first read awards 10 points.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				if len(args) == 0 {
					return a.listTips(ctx, c)
				}
				award, err := c.ReadTip(ctx, args[0])
				if err != nil {
					return err
				}
				if tip, ok := c.Catalog().LifestyleTip(args[0]); ok {
					fmt.Fprintf(a.out, "%s\n%s\n\n", heading(tip.Title), tip.Description)
				}
				awardLine(a.out, award.Title, award.Awarded, award.Points, award.TotalPoints)
				return nil
			})
		},
	}
}

func (a *app) listCards(ctx context.Context, c *client.Client) error {
	p, err := c.Progress(ctx)
	if err != nil {
		return err
	}
	tbl := newTable(a.out, "Learning cards")
	tbl.AppendHeader(table.Row{"", "ID", "Title", "Category", "Read time"})
	for _, card := range c.Catalog().LearningCards() {
		tbl.AppendRow(table.Row{
			check(p.CompletedLearningCardIDs.Has(card.ID)),
			card.ID, card.Title, card.Category,
			fmt.Sprintf("%d min", card.ReadTimeMinutes),
		})
	}
	tbl.AppendFooter(table.Row{"", "", fmt.Sprintf("%d of %d done", p.CompletedLearningCardIDs.Len(),
		len(c.Catalog().LearningCards()))})
	tbl.Render()
	return nil
}

func (a *app) listTips(ctx context.Context, c *client.Client) error {
	p, err := c.Progress(ctx)
	if err != nil {
		return err
	}
	tbl := newTable(a.out, "Lifestyle tips")
	tbl.AppendHeader(table.Row{"", "ID", "Title", "Category"})
	for _, tip := range c.Catalog().LifestyleTips() {
		tbl.AppendRow(table.Row{check(p.ReadTipIDs.Has(tip.ID)), tip.ID, tip.Title, tip.Category})
	}
	tbl.Render()
	return nil
}

// catalogKinds are the sections the catalog command can print.
var catalogKinds = []string{"slides", "cards", "tips", "challenges", "games", "achievements"}

func (a *app) catalogCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the content catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kind != "" && !slices.Contains(catalogKinds, kind) {
				return fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(catalogKinds, ", "))
			}
			return a.run(cmd, func(_ context.Context, c *client.Client) error {
				a.printCatalog(c.Catalog(), kind)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only one section: "+strings.Join(catalogKinds, ", "))
	return cmd
}

func (a *app) printCatalog(cat content.Repository, kind string) {
	show := func(k string) bool { return kind == "" || kind == k }

	if show("slides") {
		tbl := newTable(a.out, "Onboarding")
		tbl.AppendHeader(table.Row{"Title", "Subtitle"})
		for _, s := range cat.OnboardingSlides() {
			tbl.AppendRow(table.Row{s.Title, s.Subtitle})
		}
		tbl.Render()
	}
	if show("cards") {
		tbl := newTable(a.out, "Learning cards")
		tbl.AppendHeader(table.Row{"ID", "Title", "Category", "Read time"})
		for _, c := range cat.LearningCards() {
			tbl.AppendRow(table.Row{c.ID, c.Title, c.Category, fmt.Sprintf("%d min", c.ReadTimeMinutes)})
		}
		tbl.Render()
	}
	if show("tips") {
		tbl := newTable(a.out, "Lifestyle tips")
		tbl.AppendHeader(table.Row{"ID", "Title", "Category"})
		for _, t := range cat.LifestyleTips() {
			tbl.AppendRow(table.Row{t.ID, t.Title, t.Category})
		}
		tbl.Render()
	}
	if show("challenges") {
		tbl := newTable(a.out, "Challenges")
		tbl.AppendHeader(table.Row{"ID", "Title", "Target"})
		for _, t := range cat.ChallengeTemplates() {
			tbl.AppendRow(table.Row{t.ID, t.Title, fmt.Sprintf("%d %s", t.TargetValue, t.Unit)})
		}
		tbl.Render()
	}
	if show("games") {
		tbl := newTable(a.out, "Games")
		tbl.AppendHeader(table.Row{"Type", "Title", "Description"})
		for _, g := range cat.Games() {
			tbl.AppendRow(table.Row{g.Type, g.Title, g.Description})
		}
		tbl.Render()
	}
	if show("achievements") {
		tbl := newTable(a.out, "Achievements")
		tbl.AppendHeader(table.Row{"ID", "Title", "Category", "Rarity"})
		for _, ach := range cat.Achievements() {
			tbl.AppendRow(table.Row{ach.ID, ach.Title, ach.Category, rarityLabel(ach.Rarity)})
		}
		tbl.Render()
	}
}
