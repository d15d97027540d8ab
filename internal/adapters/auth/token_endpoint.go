package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
)

const (
	tokenPath             = "/oauth/token"
	maxOAuthResponseBytes = 1 << 20
	defaultRequestTimeout = 30 * time.Second
)

// ErrRefreshTokenInvalid means the issuer rejected the refresh token; the
// user has to sign in again.
var ErrRefreshTokenInvalid = errors.New("refresh token rejected")

type TokenExchangeRequest struct {
	Issuer       string
	ClientID     string
	RedirectURI  string
	Code         string
	CodeVerifier string
}

type RefreshTokenRequest struct {
	Issuer       string
	ClientID     string
	RefreshToken string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func ExchangeCodeForTokens(ctx context.Context, client *http.Client, req TokenExchangeRequest) (TokenResponse, error) {
	switch {
	case req.ClientID == "":
		return TokenResponse{}, errors.New("client id is required")
	case req.RedirectURI == "":
		return TokenResponse{}, errors.New("redirect uri is required")
	case req.Code == "":
		return TokenResponse{}, errors.New("authorization code is required")
	case req.CodeVerifier == "":
		return TokenResponse{}, errors.New("code verifier is required")
	}

	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", req.Code)
	values.Set("redirect_uri", req.RedirectURI)
	values.Set("client_id", req.ClientID)
	values.Set("code_verifier", req.CodeVerifier)

	tokens, err := postTokenForm(ctx, client, req.Issuer, values)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("exchange code for tokens: %w", err)
	}
	if tokens.RefreshToken == "" || tokens.IDToken == "" {
		return TokenResponse{}, errors.New("token response missing required fields")
	}

	return tokens, nil
}

// RefreshTokens runs the refresh_token grant. Fields the issuer leaves out of
// the response are left empty; callers keep their previous values.
func RefreshTokens(ctx context.Context, client *http.Client, req RefreshTokenRequest) (TokenResponse, error) {
	if req.ClientID == "" {
		return TokenResponse{}, errors.New("client id is required")
	}
	if req.RefreshToken == "" {
		return TokenResponse{}, errors.New("refresh token is required")
	}

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", req.RefreshToken)
	values.Set("client_id", req.ClientID)

	tokens, err := postTokenForm(ctx, client, req.Issuer, values)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("refresh tokens: %w", err)
	}

	return tokens, nil
}

func postTokenForm(ctx context.Context, client *http.Client, issuer string, values url.Values) (TokenResponse, error) {
	endpoint, err := buildAPIURL(issuer, tokenPath)
	if err != nil {
		return TokenResponse{}, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	requestCtx, cancel := requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("perform token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		oauthErr := decodeOAuthError(resp)
		if oauthErr.Error == "invalid_grant" {
			return TokenResponse{}, fmt.Errorf("%w: %s", ErrRefreshTokenInvalid, formatOAuthError(resp.StatusCode, oauthErr))
		}
		return TokenResponse{}, fmt.Errorf("token endpoint returned %s", formatOAuthError(resp.StatusCode, oauthErr))
	}

	var tokens TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxOAuthResponseBytes)).Decode(&tokens); err != nil {
		return TokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return TokenResponse{}, errors.New("token response missing access token")
	}

	return tokens, nil
}

func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, defaultRequestTimeout)
}

func decodeOAuthError(resp *http.Response) oauthErrorResponse {
	var oauthErr oauthErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxOAuthResponseBytes)).Decode(&oauthErr)
	return oauthErr
}

func formatOAuthError(statusCode int, oauthErr oauthErrorResponse) string {
	if oauthErr.Error == "" {
		return fmt.Sprintf("status %d", statusCode)
	}
	if oauthErr.ErrorDescription != "" {
		return fmt.Sprintf("status %d: %s: %s", statusCode, oauthErr.Error, oauthErr.ErrorDescription)
	}
	return fmt.Sprintf("status %d: %s", statusCode, oauthErr.Error)
}

// buildAPIURL joins path onto the issuer with the same single-slash rule
// used for agent endpoints, so issuers mounted below a path keep it.
func buildAPIURL(issuer string, path string) (string, error) {
	if strings.TrimSpace(issuer) == "" {
		return "", errors.New("issuer url is required")
	}

	endpoint := domain.JoinEndpoint(issuer, path)
	if _, err := parseHTTPURL(endpoint, "issuer url"); err != nil {
		return "", err
	}

	return endpoint, nil
}
