package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bnema/kbtrain/internal/application"
	"github.com/bnema/kbtrain/internal/domain"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
)

var errEmptyKeyValue = errors.New("key value is empty")

func newAgentCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the agents whose knowledge bases get trained",
	}

	cmd.AddCommand(
		newAgentListCmd(app),
		newAgentAddCmd(app),
		newAgentRemoveCmd(app),
		newAgentKeyCmd(app),
	)

	return cmd
}

func newAgentListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := app.service.Definitions(cmd.Context())
			if err != nil {
				return err
			}

			if len(agents) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No agents configured.")
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tOWNER\tKB\tCHAT\tKEYS")
			for _, agent := range agents {
				owner := agent.UserID
				if owner == "" {
					owner = "(shared)"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					agent.ID, agent.DisplayName(), owner, orDash(agent.Config.KBBase()), orDash(agent.Config.ChatEndpoint), keySummary(agent.Config))
			}

			return w.Flush()
		},
	}
}

func newAgentAddCmd(app *app) *cobra.Command {
	var id string
	var name string
	var userID string
	var kbEndpoint string
	var chatEndpoint string
	var requestSchema string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an agent or update its endpoints",
		Long:  "add creates the agent or updates an existing one. Keys already set on the agent are kept. --request-schema takes a JSON (comments allowed) chat request template, or @path to read it from a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := readRequestSchema(requestSchema)
			if err != nil {
				return err
			}

			if err := app.service.AddAgent(cmd.Context(), application.AddAgentCommand{
				ID:            domain.AgentID(strings.TrimSpace(id)),
				Name:          name,
				UserID:        strings.TrimSpace(userID),
				KBEndpoint:    strings.TrimSpace(kbEndpoint),
				ChatEndpoint:  strings.TrimSpace(chatEndpoint),
				RequestSchema: schema,
			}); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved agent %s\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Agent ID")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&userID, "user", "", "Owning user ID (empty shares the agent with every user)")
	cmd.Flags().StringVar(&kbEndpoint, "kb-endpoint", "", "Knowledge-base API base URL")
	cmd.Flags().StringVar(&chatEndpoint, "chat-endpoint", "", "Chat endpoint receiving the training command")
	cmd.Flags().StringVar(&requestSchema, "request-schema", "", "Chat request template as JSON, or @file")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newAgentRemoveCmd(app *app) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an agent and its stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.RemoveAgent(cmd.Context(), domain.AgentID(id)); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed agent %s\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Agent ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newAgentKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the header keys sent to an agent's endpoints",
	}

	cmd.AddCommand(newAgentKeySetCmd(app), newAgentKeyRemoveCmd(app))

	return cmd
}

func newAgentKeySetCmd(app *app) *cobra.Command {
	var id string
	var target string
	var header string
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a header key for the kb or chat endpoint",
		Long:  "set stores the key value in the secret store and records only a reference in agents.toml. Pass --value - to read the value from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readKeyValue(cmd.InOrStdin(), value)
			if err != nil {
				return err
			}

			return app.service.SetAgentKey(cmd.Context(), application.SetAgentKeyCommand{
				ID:          domain.AgentID(id),
				Target:      domain.KeyTarget(target),
				HeaderName:  header,
				SecretValue: secret,
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Agent ID")
	cmd.Flags().StringVar(&target, "target", "", "Endpoint the key belongs to (kb|chat)")
	cmd.Flags().StringVar(&header, "header", "", "Header name carrying the key")
	cmd.Flags().StringVar(&value, "value", "", "Key value, or - to read stdin")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("header")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newAgentKeyRemoveCmd(app *app) *cobra.Command {
	var id string
	var target string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the header key of the kb or chat endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.service.RemoveAgentKey(cmd.Context(), application.RemoveAgentKeyCommand{
				ID:     domain.AgentID(id),
				Target: domain.KeyTarget(target),
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Agent ID")
	cmd.Flags().StringVar(&target, "target", "", "Endpoint the key belongs to (kb|chat)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// readRequestSchema returns nil for an empty flag so AddAgent keeps the
// stored template.
func readRequestSchema(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if path, ok := strings.CutPrefix(raw, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read request schema: %w", err)
		}
		raw = string(content)
	}

	if !json.Valid(jsonc.ToJSON([]byte(raw))) {
		return nil, fmt.Errorf("%w: request schema is not valid JSON", domain.ErrInvalidAgent)
	}

	return raw, nil
}

func readKeyValue(stdin io.Reader, flagValue string) (string, error) {
	value := flagValue
	if flagValue == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read key value: %w", err)
		}
		value = strings.TrimRight(string(content), "\r\n")
	}

	if value == "" {
		return "", errEmptyKeyValue
	}

	return value, nil
}

func keySummary(cfg domain.AgentConfig) string {
	var parts []string
	for _, target := range []domain.KeyTarget{domain.KeyTargetKB, domain.KeyTargetChat} {
		ref, header := cfg.KeyRef(target)
		if ref == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s", target, header))
	}

	return orDash(strings.Join(parts, ","))
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}

	return value
}
