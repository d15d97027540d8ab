package cmd

import (
	"errors"
	"fmt"
	"strings"

	authadapter "github.com/bnema/kbtrain/internal/adapters/auth"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the signed-in identity",
	}

	cmd.AddCommand(
		newLoginCmd(app),
		newAuthSetCmd(app),
		newAuthRemoveCmd(app),
		newAuthWhoamiCmd(app),
	)

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var accessToken string
	var tokensJSON string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store tokens obtained outside the login flow",
		Long:  "set stores either a bare access token or a full OAuth bundle ({\"access_token\": ..., \"refresh_token\": ..., \"id_token\": ...}).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := tokensFromFlags(accessToken, tokensJSON)
			if err != nil {
				return err
			}

			if err := app.identity.Store(cmd.Context(), tokens.WithCalculatedExpiry(app.clock.Now())); err != nil {
				return err
			}

			userID, err := app.identity.UserID(cmd.Context())
			if err != nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Stored tokens (no user id in token; set identity.user_id)")
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored tokens for %s\n", userID)
			return err
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "Bearer access token")
	cmd.Flags().StringVar(&tokensJSON, "tokens", "", "OAuth token bundle as JSON")
	cmd.MarkFlagsMutuallyExclusive("access-token", "tokens")
	cmd.MarkFlagsOneRequired("access-token", "tokens")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Sign out and delete the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.identity.Remove(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}

func newAuthWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the user ID sweeps run as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := app.identity.UserID(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), userID)
			return err
		},
	}
}

func tokensFromFlags(accessToken, tokensJSON string) (authadapter.Tokens, error) {
	if raw := strings.TrimSpace(tokensJSON); raw != "" {
		return authadapter.DecodeTokens(raw)
	}

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return authadapter.Tokens{}, errors.New("access token is empty")
	}

	return authadapter.Tokens{AccessToken: accessToken, TokenType: "Bearer"}, nil
}
