package commands

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/domain/settings"
)

func (a *app) settingsCmd() *cobra.Command {
	var animations, notifications bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change app settings",
		Example: `  skillplay settings
  skillplay settings --animations=false
  skillplay settings --notifications=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p client.Preferences
			if cmd.Flags().Changed("animations") {
				p.Animations = &animations
			}
			if cmd.Flags().Changed("notifications") {
				p.Notifications = &notifications
			}

			return a.run(cmd, func(ctx context.Context, c *client.Client) error {
				var (
					s   settings.Settings
					err error
				)
				if p.Animations == nil && p.Notifications == nil {
					s, err = c.Settings(ctx)
				} else {
					s, err = c.SetPreferences(ctx, p)
				}
				if err != nil {
					return err
				}
				a.printSettings(s)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&animations, "animations", true, "enable celebration animations")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "enable notifications")
	return cmd
}

func (a *app) printSettings(s settings.Settings) {
	tbl := newTable(a.out, "Settings")
	tbl.AppendRow(table.Row{"animations", check(s.AnimationsEnabled)})
	tbl.AppendRow(table.Row{"notifications", check(s.NotificationsEnabled)})
	tbl.AppendRow(table.Row{"onboarding completed", check(s.HasCompletedOnboarding)})
	status := s.Status
	if status == "" {
		status = muted("not launched yet")
	}
	tbl.AppendRow(table.Row{"last route", status})
	tbl.Render()
}
