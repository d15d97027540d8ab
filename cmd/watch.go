package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const signalBuffer = 16

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the trigger, sweeping when presence signals say the user is back",
		Long:  "watch consumes presence signals dropped by `kbt signal` into the signal directory and runs a sweep whenever the presence gate allows one. Set watch.poll_interval to also treat a periodic tick as a mount signal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			signals := make(chan domain.Signal, signalBuffer)

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for presence signals (Ctrl-C to stop)\n", app.signals.Dir())

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return app.signals.Run(groupCtx, signals)
			})
			group.Go(func() error {
				return app.watcher.Run(groupCtx, signals)
			})

			err := group.Wait()
			app.dispatcher.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch presence signals: %w", err)
			}

			return nil
		},
	}
}
