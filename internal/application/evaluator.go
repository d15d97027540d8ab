package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

type StalenessReport struct {
	// Configured is false for agents missing a knowledge-base or chat
	// endpoint; nothing else in the report is set for them.
	Configured bool
	Stale      bool
	StaleKeys  []domain.TrainingKey
	Timestamps domain.TrainingTimestamps
}

type Evaluator struct {
	httpClient     *http.Client
	identity       ports.IdentityProvider
	clock          ports.Clock
	staleAfter     time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger
}

func NewEvaluator(httpClient *http.Client, identity ports.IdentityProvider, clock ports.Clock, policy Policy, logger *zap.Logger) *Evaluator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	policy = policy.withDefaults()

	return &Evaluator{
		httpClient:     orDefaultClient(httpClient),
		identity:       identity,
		clock:          clock,
		staleAfter:     policy.StaleAfter,
		requestTimeout: policy.RequestTimeout,
		logger:         orNop(logger),
	}
}

// Evaluate fetches the agent's training timestamps and applies the staleness
// rule. Fetch and decode failures are returned wrapped in
// domain.ErrTimestampsFetch.
func (e *Evaluator) Evaluate(ctx context.Context, agent domain.Agent, cachedBearer string) (StalenessReport, error) {
	if !agent.Trainable() {
		return StalenessReport{}, nil
	}

	timestamps, err := e.FetchTimestamps(ctx, agent, cachedBearer)
	if err != nil {
		return StalenessReport{Configured: true}, err
	}

	staleKeys := timestamps.StaleKeys(e.clock.Now(), e.staleAfter)

	return StalenessReport{
		Configured: true,
		Stale:      len(staleKeys) > 0,
		StaleKeys:  staleKeys,
		Timestamps: timestamps,
	}, nil
}

func (e *Evaluator) FetchTimestamps(ctx context.Context, agent domain.Agent, cachedBearer string) (domain.TrainingTimestamps, error) {
	endpoint := domain.TrainingTimestampsURL(agent.Config.KBBase())

	requestCtx, cancel := requestContext(ctx, e.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrTimestampsFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	setKeyHeader(req, agent.Config.KBKeyName, agent.Config.KBKey)
	setBearer(req, resolveBearer(ctx, e.identity, cachedBearer, e.logger))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: perform request: %w", domain.ErrTimestampsFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTimestampsFetch, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", domain.ErrTimestampsFetch, err)
	}

	return domain.TrainingTimestampsFromJSON(payload), nil
}
