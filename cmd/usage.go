package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
)

type usageEntryJSON struct {
	AgentID    string    `json:"agent_id"`
	Tokens     int64     `json:"tokens"`
	Estimated  bool      `json:"estimated,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func newUsageCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "List the training charges recorded for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := app.identity.UserID(cmd.Context())
			if err != nil {
				return fmt.Errorf("resolve user id: %w", err)
			}

			entries, err := app.usageLedger.Entries(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if asJSON {
				payload := make([]usageEntryJSON, 0, len(entries))
				for _, entry := range entries {
					payload = append(payload, usageEntryJSON{
						AgentID:    string(entry.Usage.AgentID),
						Tokens:     entry.Usage.TotalTokenCount,
						Estimated:  entry.Usage.Estimated,
						RecordedAt: entry.RecordedAt,
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}

			if len(entries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No training charges recorded.")
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RECORDED\tAGENT\tTOKENS")
			var total int64
			for _, entry := range entries {
				tokens := entry.Usage.TotalCompact()
				if entry.Usage.Estimated {
					tokens += " (estimated)"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", entry.RecordedAt.Local().Format("2006-01-02 15:04"), entry.Usage.AgentID, tokens)
				total += entry.Usage.TotalTokenCount
			}
			_, _ = fmt.Fprintf(w, "\t\ttotal %s\n", domain.UsageRecord{TotalTokenCount: total}.TotalCompact())

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
