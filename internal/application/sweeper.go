package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type OutcomeKind string

const (
	OutcomeUnconfigured   OutcomeKind = "unconfigured"
	OutcomeEvaluateFailed OutcomeKind = "evaluate_failed"
	OutcomeFresh          OutcomeKind = "fresh"
	OutcomeDeduped        OutcomeKind = "deduped"
	OutcomeDispatched     OutcomeKind = "dispatched"
	OutcomeDispatchFailed OutcomeKind = "dispatch_failed"
)

type AgentOutcome struct {
	AgentID   domain.AgentID
	Kind      OutcomeKind
	StaleKeys []domain.TrainingKey
	Usage     *domain.UsageRecord
	Err       error
}

type SweepReport struct {
	// Dropped is set when another sweep held the guard; nothing else ran.
	Dropped  bool
	UserID   string
	Outcomes []AgentOutcome
}

func (r SweepReport) Count(kind OutcomeKind) int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Kind == kind {
			count++
		}
	}

	return count
}

// Sweeper walks every agent of the signed-in user, one at a time, and fires
// a training command at each stale agent that has not been triggered within
// the cooldown. Only one sweep runs at a time; overlapping calls are dropped.
type Sweeper struct {
	identity   ports.IdentityProvider
	agents     ports.AgentStore
	evaluator  *Evaluator
	ledger     *TriggerLedger
	dispatcher *Dispatcher
	clock      ports.Clock
	logger     *zap.Logger
	running    *semaphore.Weighted
}

func NewSweeper(identity ports.IdentityProvider, agents ports.AgentStore, evaluator *Evaluator, ledger *TriggerLedger, dispatcher *Dispatcher, clock ports.Clock, logger *zap.Logger) *Sweeper {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Sweeper{
		identity:   identity,
		agents:     agents,
		evaluator:  evaluator,
		ledger:     ledger,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     orNop(logger),
		running:    semaphore.NewWeighted(1),
	}
}

// Sweep runs one pass. Errors are returned only when the pass could not start
// (no identity, agent listing failed); per-agent failures are logged and
// reported in the outcomes.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	if !s.running.TryAcquire(1) {
		s.logger.Debug("sweep dropped, another sweep is running")
		return SweepReport{Dropped: true}, nil
	}
	defer s.running.Release(1)

	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("resolve user id: %w", errors.Join(domain.ErrIdentityUnavailable, err))
	}
	if strings.TrimSpace(userID) == "" {
		return SweepReport{}, fmt.Errorf("resolve user id: %w", domain.ErrIdentityUnavailable)
	}

	bearer, err := s.identity.BearerToken(ctx)
	if err != nil {
		s.logger.Debug("bearer token unavailable at sweep start", zap.Error(err))
		bearer = ""
	}

	agents, err := s.agents.ListAgents(ctx, userID)
	if err != nil {
		return SweepReport{UserID: userID}, fmt.Errorf("list agents: %w", err)
	}

	logger := s.logger.With(zap.String("user_id", userID))
	logger.Debug("sweep started", zap.Int("agents", len(agents)))

	report := SweepReport{UserID: userID, Outcomes: make([]AgentOutcome, 0, len(agents))}
	for _, agent := range agents {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Outcomes = append(report.Outcomes, s.sweepAgent(ctx, logger, agent, userID, bearer))
	}

	logger.Info("sweep finished",
		zap.Int("agents", len(agents)),
		zap.Int("dispatched", report.Count(OutcomeDispatched)),
		zap.Int("failed", report.Count(OutcomeEvaluateFailed)+report.Count(OutcomeDispatchFailed)),
	)

	return report, nil
}

func (s *Sweeper) sweepAgent(ctx context.Context, logger *zap.Logger, agent domain.Agent, userID, bearer string) AgentOutcome {
	outcome := AgentOutcome{AgentID: agent.ID}
	logger = logger.With(zap.String("agent_id", string(agent.ID)))

	staleness, err := s.evaluator.Evaluate(ctx, agent, bearer)
	if err != nil {
		logger.Warn("staleness check failed", zap.Error(err))
		outcome.Kind = OutcomeEvaluateFailed
		outcome.Err = err
		return outcome
	}
	if !staleness.Configured {
		outcome.Kind = OutcomeUnconfigured
		return outcome
	}
	if !staleness.Stale {
		outcome.Kind = OutcomeFresh
		return outcome
	}
	outcome.StaleKeys = staleness.StaleKeys

	if s.ledger.HasFiredRecently(ctx, agent, s.clock.Now()) {
		logger.Debug("training recently triggered, skipping", zap.Strings("stale_keys", domain.TrainingKeyNames(staleness.StaleKeys)))
		outcome.Kind = OutcomeDeduped
		return outcome
	}

	result, err := s.dispatcher.Dispatch(ctx, agent, userID, bearer)
	if err != nil {
		logger.Warn("training dispatch failed", zap.Error(err))
		outcome.Kind = OutcomeDispatchFailed
		outcome.Err = err
		return outcome
	}

	if err := s.ledger.MarkFired(ctx, agent, s.clock.Now()); err != nil {
		logger.Warn("mark training trigger failed", zap.Error(err))
	}

	outcome.Kind = OutcomeDispatched
	outcome.Usage = &result.Usage
	return outcome
}
