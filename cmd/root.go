package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// skipWireAnnotation marks commands that run without loading config or state.
const skipWireAnnotation = "kbt/skip-wire"

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "kbt",
		Short:         "Knowledge-base trainer (kbt): keep agent knowledge bases fresh",
		Long:          "kbt watches user presence, checks when each agent's knowledge base was last trained, and fires a training command at stale agents, charging the token usage to the wallet.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, skip := cmd.Annotations[skipWireAnnotation]; skip {
				return nil
			}

			wired, err := wireApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ~/.kbtrain/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug|info|warn|error)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAgentCmd(app),
		newAuthCmd(app),
		newSweepCmd(app),
		newWatchCmd(app),
		newSignalCmd(app),
		newStatusCmd(app),
		newUsageCmd(app),
	)

	return rootCmd
}
