package cmd

import (
	"errors"
	"fmt"

	authadapter "github.com/bnema/kbtrain/internal/adapters/auth"
	"github.com/bnema/kbtrain/internal/config"
	"github.com/spf13/cobra"
)

var errIssuerNotConfigured = fmt.Errorf("%s is not configured", config.KeyIssuer)

func newLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser (authorization code + PKCE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowserLogin(cmd, app)
		},
	}
}

func runBrowserLogin(cmd *cobra.Command, app *app) error {
	if app.browserLogin.Issuer == "" {
		return errIssuerNotConfigured
	}

	session, err := authadapter.BeginLogin(app.browserLogin)
	if err != nil {
		return fmt.Errorf("start browser login: %w", err)
	}
	defer func() { _ = session.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in:\n%s\n", session.AuthorizationURL())

	tokens, err := session.Complete(cmd.Context(), app.httpClient, app.clock)
	if errors.Is(err, authadapter.ErrCallbackTimeout) {
		return fmt.Errorf("complete browser login: %w (run `kbt auth login` again)", err)
	}
	if err != nil {
		return fmt.Errorf("complete browser login: %w", err)
	}

	if err := app.identity.Store(cmd.Context(), tokens); err != nil {
		return err
	}

	userID, err := app.identity.UserID(cmd.Context())
	if err != nil {
		return fmt.Errorf("read signed-in user: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", userID)
	return nil
}
