package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxErrorBodyBytes = 4 << 10
	defaultTimeout    = 10 * time.Second
)

// HTTPWallet charges training usage to a remote wallet service.
type HTTPWallet struct {
	endpoint string
	client   *http.Client
	identity ports.IdentityProvider
	clock    ports.Clock
	timeout  time.Duration
	logger   *zap.Logger
	newKey   func() string
}

type chargeRequest struct {
	UserID     string             `json:"userId"`
	AgentID    string             `json:"agentId,omitempty"`
	Usage      domain.UsageRecord `json:"usage"`
	Reason     string             `json:"reason"`
	RecordedAt string             `json:"recordedAt"`
}

var _ ports.Wallet = (*HTTPWallet)(nil)

func NewHTTPWallet(endpoint string, client *http.Client, identity ports.IdentityProvider, clock ports.Clock, timeout time.Duration, logger *zap.Logger) (*HTTPWallet, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("wallet url is required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("wallet url %q must use http or https", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPWallet{
		endpoint: endpoint,
		client:   client,
		identity: identity,
		clock:    clock,
		timeout:  timeout,
		logger:   logger,
		newKey:   uuid.NewString,
	}, nil
}

func (w *HTTPWallet) RecordUsage(ctx context.Context, userID string, usage domain.UsageRecord) error {
	payload, err := json.Marshal(chargeRequest{
		UserID:     userID,
		AgentID:    string(usage.AgentID),
		Usage:      usage,
		Reason:     "kb_training",
		RecordedAt: w.clock.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode wallet charge: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create wallet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", w.newKey())
	if bearer := w.bearer(requestCtx); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("perform wallet request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("wallet returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil
}

func (w *HTTPWallet) bearer(ctx context.Context) string {
	if w.identity == nil {
		return ""
	}

	token, err := w.identity.BearerToken(ctx)
	if err != nil {
		w.logger.Debug("wallet request without bearer", zap.Error(err))
		return ""
	}
	return token
}
