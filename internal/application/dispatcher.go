package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DispatchResult struct {
	RequestID  string
	StatusCode int
	Usage      domain.UsageRecord
}

// Dispatcher sends the training command to an agent's chat endpoint and
// charges the resulting token usage to the wallet in the background.
type Dispatcher struct {
	httpClient     *http.Client
	identity       ports.IdentityProvider
	wallet         ports.Wallet
	command        string
	fallbackTokens int64
	requestTimeout time.Duration
	walletTimeout  time.Duration
	logger         *zap.Logger

	pending sync.WaitGroup
}

func NewDispatcher(httpClient *http.Client, identity ports.IdentityProvider, wallet ports.Wallet, policy Policy, logger *zap.Logger) *Dispatcher {
	policy = policy.withDefaults()

	return &Dispatcher{
		httpClient:     orDefaultClient(httpClient),
		identity:       identity,
		wallet:         wallet,
		command:        policy.TrainingCommand,
		fallbackTokens: policy.FallbackTokens,
		requestTimeout: policy.RequestTimeout,
		walletTimeout:  policy.WalletTimeout,
		logger:         orNop(logger),
	}
}

// Dispatch posts the training command. Transport failures and non-2xx
// responses are returned wrapped in domain.ErrDispatch. On success the usage
// is recorded asynchronously; wallet failures never reach the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, agent domain.Agent, userID, cachedBearer string) (DispatchResult, error) {
	requestID := uuid.NewString()
	logger := d.logger.With(zap.String("agent_id", string(agent.ID)), zap.String("request_id", requestID))

	body := domain.SynthesizeRequest(agent.Config.RequestSchema, d.command, userID)
	body = domain.ForceIdentityFields(body, d.command, userID)

	payload, err := json.Marshal(body)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: encode body: %w", domain.ErrDispatch, err)
	}

	requestCtx, cancel := requestContext(ctx, d.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, agent.Config.ChatEndpoint, bytes.NewReader(payload))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: create request: %w", domain.ErrDispatch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	setKeyHeader(req, agent.Config.ChatKeyName, agent.Config.ChatKey)
	setBearer(req, resolveBearer(ctx, d.identity, cachedBearer, logger))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return DispatchResult{RequestID: requestID}, fmt.Errorf("%w: perform request: %w", domain.ErrDispatch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	result := DispatchResult{RequestID: requestID, StatusCode: resp.StatusCode}

	respBody, err := readResponse(resp)
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrDispatch, err)
	}

	result.Usage = domain.ResolveUsage(domain.ExtractUsageMetadata(respBody), d.fallbackTokens)
	result.Usage.AgentID = agent.ID

	logger.Info("training command sent",
		zap.Int("status", resp.StatusCode),
		zap.Int64("tokens", result.Usage.TotalTokenCount),
		zap.Bool("estimated", result.Usage.Estimated),
	)

	d.recordUsage(ctx, logger, userID, result.Usage)

	return result, nil
}

// Wait blocks until every background wallet recording has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) recordUsage(ctx context.Context, logger *zap.Logger, userID string, usage domain.UsageRecord) {
	if d.wallet == nil {
		return
	}

	walletCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.walletTimeout)

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer cancel()
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("record training usage panicked", zap.Any("panic", recovered))
			}
		}()

		if err := d.wallet.RecordUsage(walletCtx, userID, usage); err != nil {
			logger.Warn("record training usage failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}
