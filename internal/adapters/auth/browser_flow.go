package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/ports"
)

const (
	callbackPath        = "/auth/callback"
	defaultLoginTimeout = 5 * time.Minute
	callbackPage        = "Signed in to kbt. You can close this window."
)

var (
	ErrStateMismatch   = errors.New("oauth callback state mismatch")
	ErrCallbackTimeout = errors.New("timed out waiting for oauth callback")
)

// LoginConfig describes the issuer a browser sign-in runs against.
type LoginConfig struct {
	Issuer     string
	AuthURL    string
	ClientID   string
	ListenAddr string
	Scopes     []string
	Timeout    time.Duration
}

type AuthorizationRequest struct {
	AuthURL       string
	ClientID      string
	RedirectURI   string
	Scopes        []string
	State         string
	CodeChallenge string
}

// LoginSession is one pending browser sign-in. The loopback callback is
// listening from BeginLogin until Complete or Close.
type LoginSession struct {
	cfg      LoginConfig
	pkce     PKCEPair
	callback *callbackListener
	authURL  string
}

// BeginLogin prepares PKCE and state, starts the loopback callback and
// builds the URL the user has to open.
func BeginLogin(cfg LoginConfig) (*LoginSession, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLoginTimeout
	}

	pkce, err := NewPKCEPair()
	if err != nil {
		return nil, err
	}
	state, err := NewState()
	if err != nil {
		return nil, err
	}

	callback, err := listenForCallback(cfg.ListenAddr, state)
	if err != nil {
		return nil, err
	}

	authURL, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthURL:       cfg.AuthURL,
		ClientID:      cfg.ClientID,
		RedirectURI:   callback.redirectURI(),
		Scopes:        cfg.Scopes,
		State:         state,
		CodeChallenge: pkce.Challenge,
	})
	if err != nil {
		_ = callback.close()
		return nil, err
	}

	return &LoginSession{cfg: cfg, pkce: pkce, callback: callback, authURL: authURL}, nil
}

func (s *LoginSession) AuthorizationURL() string {
	return s.authURL
}

// Complete waits for the browser redirect, then trades the code for tokens.
// The wait ends early when ctx is done.
func (s *LoginSession) Complete(ctx context.Context, client *http.Client, clock ports.Clock) (Tokens, error) {
	defer func() { _ = s.Close() }()

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	code, err := s.callback.wait(waitCtx)
	if err != nil {
		return Tokens{}, err
	}

	resp, err := ExchangeCodeForTokens(ctx, client, TokenExchangeRequest{
		Issuer:       s.cfg.Issuer,
		ClientID:     s.cfg.ClientID,
		RedirectURI:  s.callback.redirectURI(),
		Code:         code,
		CodeVerifier: s.pkce.Verifier,
	})
	if err != nil {
		return Tokens{}, err
	}

	if clock == nil {
		clock = ports.SystemClock{}
	}

	return TokensFromResponse(resp, clock.Now()), nil
}

func (s *LoginSession) Close() error {
	return s.callback.close()
}

func NewState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// BuildAuthorizationURL adds the authorization-code and PKCE parameters to
// the issuer's authorize endpoint, keeping any query it already carries.
func BuildAuthorizationURL(req AuthorizationRequest) (string, error) {
	required := []struct{ value, name string }{
		{req.AuthURL, "auth url"},
		{req.ClientID, "client id"},
		{req.RedirectURI, "redirect uri"},
		{req.State, "state"},
		{req.CodeChallenge, "code challenge"},
	}
	for _, field := range required {
		if field.value == "" {
			return "", fmt.Errorf("%s is required", field.name)
		}
	}

	parsed, err := parseHTTPURL(req.AuthURL, "auth url")
	if err != nil {
		return "", err
	}

	q := parsed.Query()
	q.Set("response_type", "code")
	q.Set("client_id", req.ClientID)
	q.Set("redirect_uri", req.RedirectURI)
	if len(req.Scopes) > 0 {
		q.Set("scope", strings.Join(req.Scopes, " "))
	}
	q.Set("state", req.State)
	q.Set("code_challenge", req.CodeChallenge)
	q.Set("code_challenge_method", PKCEChallengeMethodS256)
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackListener accepts exactly one redirect; later hits get the same
// page but are otherwise ignored.
type callbackListener struct {
	state     string
	listener  net.Listener
	server    *http.Server
	results   chan callbackResult
	sendOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

func listenForCallback(addr string, state string) (*callbackListener, error) {
	if state == "" {
		return nil, errors.New("callback state is required")
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback on %s: %w", addr, err)
	}

	cb := &callbackListener{
		state:    state,
		listener: listener,
		results:  make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, cb.serveCallback)
	cb.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := cb.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cb.deliver(callbackResult{err: fmt.Errorf("serve oauth callback: %w", err)})
		}
	}()

	return cb, nil
}

func (c *callbackListener) redirectURI() string {
	port := 0
	if tcpAddr, ok := c.listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	return fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
}

func (c *callbackListener) wait(ctx context.Context) (string, error) {
	select {
	case result := <-c.results:
		return result.code, result.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrCallbackTimeout
		}
		return "", ctx.Err()
	}
}

func (c *callbackListener) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.server.Close()
	})

	return c.closeErr
}

func (c *callbackListener) serveCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var result callbackResult
	switch {
	case query.Get("state") != c.state:
		result.err = ErrStateMismatch
	case query.Get("error") != "":
		msg := query.Get("error")
		if description := query.Get("error_description"); description != "" {
			msg += ": " + description
		}
		result.err = errors.New(msg)
	case query.Get("code") == "":
		result.err = errors.New("oauth callback carried no authorization code")
	default:
		result.code = query.Get("code")
	}

	c.deliver(result)

	if result.err != nil {
		http.Error(w, "kbt sign-in failed: "+result.err.Error(), http.StatusBadRequest)
		return
	}
	_, _ = w.Write([]byte(callbackPage))
}

func (c *callbackListener) deliver(result callbackResult) {
	c.sendOnce.Do(func() {
		c.results <- result
	})
}

func parseHTTPURL(raw, label string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", label, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%s must use http or https", label)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%s host is required", label)
	}

	return parsed, nil
}
