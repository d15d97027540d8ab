package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSignalCmd(app *app) *cobra.Command {
	names := make([]string, 0, len(domain.Signals))
	for _, signal := range domain.Signals {
		names = append(names, string(signal))
	}

	return &cobra.Command{
		Use:       "signal <" + strings.Join(names, "|") + ">",
		Short:     "Deliver a presence signal to a running `kbt watch`",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			signal, err := domain.ParseSignal(args[0])
			if err != nil {
				return err
			}

			if err := app.signals.Emit(signal); err != nil {
				return fmt.Errorf("emit %s signal: %w", signal, err)
			}

			app.logger.Debug("signal emitted", zap.String("signal", string(signal)), zap.String("dir", app.signals.Dir()))
			return nil
		},
	}
}
