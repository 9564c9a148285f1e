package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/domain/navigation"
)

func (a *app) launchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Run the startup check and show where the app lands",
		Long: `Run the one-shot startup check (battery, VPN, remote probe) and show
the resulting route and screen.

A full battery or an active VPN keeps the native app. Otherwise the configured
gate.remote_url is probed once: 404 or an invalid URL keeps the native app, any
other response selects remote content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, c *client.Client) error {
				res, err := c.Launch(ctx)
				if err != nil {
					return err
				}
				a.printLaunch(res)
				if res.Screen == navigation.ScreenOnboarding {
					a.printOnboarding(c)
				}
				return nil
			})
		},
	}
}

func (a *app) printLaunch(res client.LaunchResult) {
	d := res.Decision
	fmt.Fprintf(a.out, "route:  %s (%s)\n", routeLabel(d.Route), d.Reason)
	if d.StatusCode != 0 {
		fmt.Fprintf(a.out, "probe:  HTTP %d in %s\n", d.StatusCode, d.Latency.Round(time.Millisecond))
	}
	if d.Err != nil {
		fmt.Fprintf(a.out, "probe:  %s\n", muted(d.Err.Error()))
	}
	fmt.Fprintf(a.out, "screen: %s\n", screenLabel(res.Screen))
}

func (a *app) printOnboarding(c *client.Client) {
	fmt.Fprintln(a.out)
	for i, s := range c.Catalog().OnboardingSlides() {
		fmt.Fprintf(a.out, "%d. %s\n   %s\n", i+1, heading(s.Title), muted(s.Subtitle))
	}
	fmt.Fprintf(a.out, "\nRun %s to continue.\n", heading("skillplay onboarding complete"))
}

func (a *app) onboardingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Complete or reset onboarding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, c *client.Client) error {
				s, err := c.Settings(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "onboarding completed: %s\n", check(s.HasCompletedOnboarding))
				return nil
			})
		},
	}

	cmd.AddCommand(
		a.onboardingAction("complete", "Finish onboarding and go to the main menu", (*client.Client).CompleteOnboarding),
		a.onboardingAction("reset", "Show onboarding again on next launch", (*client.Client).ResetOnboarding),
	)
	return cmd
}

func (a *app) onboardingAction(
	use, short string,
	action func(*client.Client, context.Context) (navigation.Screen, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runNative(cmd, func(ctx context.Context, c *client.Client) error {
				screen, err := action(c, ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "screen: %s\n", screenLabel(screen))
				return nil
			})
		},
	}
}
