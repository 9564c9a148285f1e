// Package commands implements the skillplay subcommands. Each invocation is
// one app start: it loads configuration, opens the client, runs one action
// and closes the client.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skillplay/skillplay-life/config"
	"github.com/skillplay/skillplay-life/internal/application/client"
	"github.com/skillplay/skillplay-life/internal/application/eventhandler"
	"github.com/skillplay/skillplay-life/internal/domain/achievement"
	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// closeTimeout bounds client teardown, including the metrics server shutdown.
const closeTimeout = 5 * time.Second

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app holds the persistent flags shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool

	out io.Writer
	err io.Writer
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{out: os.Stdout, err: os.Stderr}

	root := &cobra.Command{
		Use:   "skillplay",
		Short: "SkillPlay Life - learn, play and build healthy habits",
		Long: `SkillPlay Life is a gamified self-improvement client.

Commands:
  launch        Run the startup check and show where the app lands
  onboarding    Complete or reset onboarding
  learn, tip    Complete learning cards and read lifestyle tips
  challenge     Show or update today's challenge
  play          Play a 30-tick mini-game (each input line is a tap)
  achievements  Re-evaluate and list achievements
  progress      Show or reset your progress
  catalog       List the content catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Hooks and the game ticker print from the client loop.
			a.out = &syncWriter{w: cmd.OutOrStdout()}
			a.err = cmd.ErrOrStderr()
			if a.noColor {
				color.NoColor = true //nolint:reassign // library global
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./skillplay.yaml or ~/.skillplay/skillplay.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.launchCmd(),
		a.onboardingCmd(),
		a.learnCmd(),
		a.tipCmd(),
		a.challengeCmd(),
		a.playCmd(),
		a.achievementsCmd(),
		a.progressCmd(),
		a.catalogCmd(),
		a.settingsCmd(),
		versionCmd(info),
	)
	return root
}

func versionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skillplay %s (commit: %s, built: %s)\n", info.Version, info.Commit, info.Date)
		},
	}
}

// logger builds the process logger from configuration and flags.
func (a *app) logger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	switch {
	case a.verbose:
		level = logger.LevelDebug
	case a.quiet:
		level = logger.LevelError
	}
	return logger.New(logger.Options{
		Output: a.err,
		Level:  level,
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	})
}

// run opens a client, hands it to fn and always closes it.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log := a.logger(cfg)
	if used := config.ConfigFileUsed(a.configPath); used != "" {
		log.Debug("config loaded", logger.String("file", used))
	}

	c, err := client.Open(ctx, cfg, client.OpenOptions{Logger: log, Hooks: a.hooks()})
	if err != nil {
		return err
	}

	runErr := fn(ctx, c)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if err := c.Close(closeCtx); err != nil {
		log.Warn("client close", logger.Err(err))
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		return nil
	case shared.IsUnavailable(runErr):
		return fmt.Errorf("%w (storage.driver=%s is not responding)", runErr, cfg.Storage.Driver)
	}
	return runErr
}

// runNative is run for commands that act inside the app: it launches first,
// so the startup check decides whether the native flow is available.
func (a *app) runNative(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	return a.run(cmd, func(ctx context.Context, c *client.Client) error {
		res, err := c.Launch(ctx)
		if err != nil {
			return err
		}
		if !res.Screen.IsNative() {
			a.printLaunch(res)
			return shared.ErrNotNativeFlow
		}
		return fn(ctx, c)
	})
}

// hooks print asynchronous celebrations as they start.
func (a *app) hooks() client.Hooks {
	return client.Hooks{
		OnAchievement: func(c achievement.Celebration) {
			if c.Active {
				fmt.Fprintf(a.out, "%s %s - %s\n", celebrate("Achievement unlocked!"),
					c.Achievement.Title, c.Achievement.Description)
			}
		},
		OnChallengeCelebrate: func(active bool) {
			if active {
				fmt.Fprintln(a.out, celebrate("Challenge complete!"))
			}
		},
		OnMilestone: func(m eventhandler.Milestone) {
			fmt.Fprintf(a.out, "%s %s points\n", celebrate("Milestone:"), points(m.Threshold))
		},
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
