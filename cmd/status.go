package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/kbtrain/internal/adapters/render/status"
	"github.com/bnema/kbtrain/internal/application"
	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show training freshness for every agent without triggering anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status application.Status
			fetch := func(ctx context.Context) error {
				var err error
				status, err = app.statusService.GetStatus(ctx)
				return err
			}

			var err error
			if asJSON {
				err = fetch(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching training timestamps...", fetch)
			}
			if err != nil {
				return fmt.Errorf("load status: %w", err)
			}

			return writeStatusOutput(cmd, app, status, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

type agentStatusJSON struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Configured  bool              `json:"configured"`
	Stale       bool              `json:"stale"`
	StaleKeys   []string          `json:"stale_keys,omitempty"`
	Timestamps  map[string]string `json:"timestamps,omitempty"`
	CheckError  string            `json:"check_error,omitempty"`
	LastFiredAt *time.Time        `json:"last_fired_at,omitempty"`
	TokensSpent int64             `json:"tokens_spent"`
}

type statusJSON struct {
	UserID    string            `json:"user_id"`
	CheckedAt time.Time         `json:"checked_at"`
	Agents    []agentStatusJSON `json:"agents"`
}

// Agents carry resolved key values, so JSON output goes through a view that
// leaves them out.
func toStatusJSON(status application.Status) statusJSON {
	view := statusJSON{
		UserID:    status.UserID,
		CheckedAt: status.CheckedAt,
		Agents:    make([]agentStatusJSON, 0, len(status.Agents)),
	}

	for _, agent := range status.Agents {
		entry := agentStatusJSON{
			ID:          string(agent.Agent.ID),
			Name:        agent.Agent.DisplayName(),
			Configured:  agent.Staleness.Configured,
			Stale:       agent.Staleness.Stale,
			LastFiredAt: agent.LastFiredAt,
			TokensSpent: agent.TokensSpent,
		}
		if len(agent.Staleness.StaleKeys) > 0 {
			entry.StaleKeys = domain.TrainingKeyNames(agent.Staleness.StaleKeys)
		}
		if len(agent.Staleness.Timestamps) > 0 {
			entry.Timestamps = make(map[string]string, len(agent.Staleness.Timestamps))
			for key, raw := range agent.Staleness.Timestamps {
				entry.Timestamps[string(key)] = raw
			}
		}
		if agent.CheckErr != nil {
			entry.CheckError = agent.CheckErr.Error()
		}
		view.Agents = append(view.Agents, entry)
	}

	return view
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toStatusJSON(status))
	}

	rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{
		StaleAfter:      app.cfg.Policy.StaleAfter,
		TriggerCooldown: app.cfg.Policy.TriggerCooldown,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
