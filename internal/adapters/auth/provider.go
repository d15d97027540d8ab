package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

// TokensSecretKey is where the OAuth bundle lives in the secret store.
const TokensSecretKey = "kbtrain://identity/oauth_tokens"

const DefaultRefreshSkew = 2 * time.Minute

type ProviderConfig struct {
	Issuer   string
	ClientID string
	// UserID overrides the id-token subject when set.
	UserID      string
	RefreshSkew time.Duration
}

// Provider resolves the signed-in user from the stored token bundle and
// keeps its access token fresh.
type Provider struct {
	store  ports.SecretStore
	client *http.Client
	clock  ports.Clock
	logger *zap.Logger
	cfg    ProviderConfig

	mu sync.Mutex
}

var _ ports.IdentityProvider = (*Provider)(nil)

func NewProvider(store ports.SecretStore, client *http.Client, clock ports.Clock, cfg ProviderConfig, logger *zap.Logger) *Provider {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshSkew <= 0 {
		cfg.RefreshSkew = DefaultRefreshSkew
	}

	return &Provider{store: store, client: client, clock: clock, logger: logger, cfg: cfg}
}

func (p *Provider) UserID(ctx context.Context) (string, error) {
	if override := strings.TrimSpace(p.cfg.UserID); override != "" {
		return override, nil
	}

	tokens, err := p.load(ctx)
	if err != nil {
		return "", err
	}

	if subject := ParseClaims(tokens.IDToken).Subject; subject != "" {
		return subject, nil
	}
	if subject := ParseClaims(tokens.AccessToken).Subject; subject != "" {
		return subject, nil
	}

	return "", fmt.Errorf("%w: token has no subject", domain.ErrIdentityUnavailable)
}

// BearerToken returns the access token, refreshing it first when it expires
// within the configured skew. A failed refresh falls back to the current
// token while it is still valid.
func (p *Provider) BearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tokens, err := p.load(ctx)
	if err != nil {
		return "", err
	}

	now := p.clock.Now()
	if !tokens.ExpiringSoon(now, p.cfg.RefreshSkew) {
		return tokens.AccessToken, nil
	}

	refreshed, err := p.refresh(ctx, tokens, now)
	if err != nil {
		if tokens.Expired(now) {
			return "", fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
		}
		p.logger.Warn("refresh access token failed", zap.Error(err))
		return tokens.AccessToken, nil
	}

	return refreshed.AccessToken, nil
}

// Store saves a freshly obtained token bundle.
func (p *Provider) Store(ctx context.Context, tokens Tokens) error {
	encoded, err := EncodeTokens(tokens)
	if err != nil {
		return err
	}
	if err := p.store.Put(ctx, TokensSecretKey, encoded); err != nil {
		return fmt.Errorf("store oauth tokens: %w", err)
	}
	return nil
}

func (p *Provider) Remove(ctx context.Context) error {
	if err := p.store.Delete(ctx, TokensSecretKey); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("delete oauth tokens: %w", err)
	}
	return nil
}

func (p *Provider) load(ctx context.Context) (Tokens, error) {
	raw, err := p.store.Get(ctx, TokensSecretKey)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return Tokens{}, fmt.Errorf("%w: not signed in", domain.ErrIdentityUnavailable)
		}
		return Tokens{}, fmt.Errorf("load oauth tokens: %w", err)
	}

	tokens, err := DecodeTokens(raw)
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
	}
	return tokens, nil
}

func (p *Provider) refresh(ctx context.Context, tokens Tokens, now time.Time) (Tokens, error) {
	if tokens.RefreshToken == "" {
		return Tokens{}, errors.New("no refresh token stored")
	}

	resp, err := RefreshTokens(ctx, p.client, RefreshTokenRequest{
		Issuer:       p.cfg.Issuer,
		ClientID:     p.cfg.ClientID,
		RefreshToken: tokens.RefreshToken,
	})
	if err != nil {
		return Tokens{}, err
	}

	next := tokens.merge(resp, now)
	if err := p.Store(ctx, next); err != nil {
		p.logger.Warn("persist refreshed tokens failed", zap.Error(err))
	}
	return next, nil
}
