package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/kbtrain/internal/application"
	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
)

func newSweepCmd(app *app) *cobra.Command {
	var force bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check every agent once and train the stale ones",
		Long:  "sweep runs one training pass. Without --force it behaves like a mount signal: the pass only runs after an idle gap and outside the check cooldown.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !force {
				due, err := sweepDue(ctx, app)
				if err != nil {
					return err
				}
				if !due {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No sweep due yet. Use --force to sweep anyway.")
					return err
				}
			}

			var report application.SweepReport
			run := func(ctx context.Context) error {
				var err error
				report, err = app.sweeper.Sweep(ctx)
				return err
			}

			var err error
			if asJSON {
				err = run(ctx)
			} else {
				err = runWithSpinner(ctx, cmd.ErrOrStderr(), "Checking agents...", run)
			}
			app.dispatcher.Wait()
			if err != nil {
				return fmt.Errorf("sweep agents: %w", err)
			}
			if report.Dropped {
				return domain.ErrSweepInProgress
			}

			return writeSweepReport(cmd.OutOrStdout(), report, asJSON)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Sweep even when the presence gate says no sweep is due")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output sweep outcomes as JSON")

	return cmd
}

// sweepDue runs the presence gate for a one-shot invocation and stamps the
// check time when a sweep is due.
func sweepDue(ctx context.Context, app *app) (bool, error) {
	userID, err := app.identity.UserID(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve user id: %w", err)
	}

	if !app.gate.ShouldSweep(ctx, application.Presence{UserID: userID, Online: true}) {
		return false, nil
	}
	if err := app.gate.RecordCheck(ctx, app.clock.Now()); err != nil {
		return false, err
	}

	return true, nil
}

type sweepOutcomeJSON struct {
	AgentID   string   `json:"agent_id"`
	Outcome   string   `json:"outcome"`
	StaleKeys []string `json:"stale_keys,omitempty"`
	Tokens    *int64   `json:"tokens,omitempty"`
	Estimated bool     `json:"estimated,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type sweepReportJSON struct {
	UserID   string             `json:"user_id"`
	Outcomes []sweepOutcomeJSON `json:"outcomes"`
}

func writeSweepReport(out io.Writer, report application.SweepReport, asJSON bool) error {
	if asJSON {
		payload := sweepReportJSON{UserID: report.UserID, Outcomes: make([]sweepOutcomeJSON, 0, len(report.Outcomes))}
		for _, outcome := range report.Outcomes {
			entry := sweepOutcomeJSON{
				AgentID:   string(outcome.AgentID),
				Outcome:   string(outcome.Kind),
				StaleKeys: domain.TrainingKeyNames(outcome.StaleKeys),
			}
			if len(entry.StaleKeys) == 0 {
				entry.StaleKeys = nil
			}
			if outcome.Usage != nil {
				total := outcome.Usage.TotalTokenCount
				entry.Tokens = &total
				entry.Estimated = outcome.Usage.Estimated
			}
			if outcome.Err != nil {
				entry.Error = outcome.Err.Error()
			}
			payload.Outcomes = append(payload.Outcomes, entry)
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "user: %s\n", report.UserID)
	for _, outcome := range report.Outcomes {
		fmt.Fprintf(&b, "  %s: %s\n", outcome.AgentID, describeOutcome(outcome))
	}
	failed := report.Count(application.OutcomeEvaluateFailed) + report.Count(application.OutcomeDispatchFailed)
	fmt.Fprintf(&b, "swept %d agents: %d trained, %d fresh, %d failed\n",
		len(report.Outcomes), report.Count(application.OutcomeDispatched), report.Count(application.OutcomeFresh), failed)

	_, err := io.WriteString(out, b.String())
	return err
}

func describeOutcome(outcome application.AgentOutcome) string {
	switch outcome.Kind {
	case application.OutcomeUnconfigured:
		return "not configured"
	case application.OutcomeFresh:
		return "fresh"
	case application.OutcomeDeduped:
		return "stale, trained recently"
	case application.OutcomeDispatched:
		line := "trained (stale: " + strings.Join(domain.TrainingKeyNames(outcome.StaleKeys), ", ") + ")"
		if outcome.Usage != nil {
			line += ", charged " + outcome.Usage.TotalCompact() + " tokens"
			if outcome.Usage.Estimated {
				line += " (estimated)"
			}
		}
		return line
	case application.OutcomeEvaluateFailed, application.OutcomeDispatchFailed:
		msg := string(outcome.Kind)
		if outcome.Err != nil {
			msg += ": " + outcome.Err.Error()
		}
		return msg
	default:
		return string(outcome.Kind)
	}
}
