package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

// StatusService reports, without dispatching anything, what a sweep would
// see for each agent.
type StatusService struct {
	identity  ports.IdentityProvider
	agents    ports.AgentStore
	evaluator *Evaluator
	ledger    *TriggerLedger
	totals    ports.UsageTotals
	clock     ports.Clock
	logger    *zap.Logger
}

func NewStatusService(identity ports.IdentityProvider, agents ports.AgentStore, evaluator *Evaluator, ledger *TriggerLedger, totals ports.UsageTotals, clock ports.Clock, logger *zap.Logger) *StatusService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &StatusService{
		identity:  identity,
		agents:    agents,
		evaluator: evaluator,
		ledger:    ledger,
		totals:    totals,
		clock:     clock,
		logger:    orNop(logger),
	}
}

func (s *StatusService) GetStatus(ctx context.Context) (Status, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("resolve user id: %w", errors.Join(domain.ErrIdentityUnavailable, err))
	}
	if strings.TrimSpace(userID) == "" {
		return Status{}, fmt.Errorf("resolve user id: %w", domain.ErrIdentityUnavailable)
	}

	agents, err := s.agents.ListAgents(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("list agents: %w", err)
	}

	var totals map[domain.AgentID]int64
	if s.totals != nil {
		totals, err = s.totals.TotalsByAgent(ctx, userID)
		if err != nil {
			s.logger.Warn("load usage totals failed", zap.Error(err))
		}
	}

	bearer, err := s.identity.BearerToken(ctx)
	if err != nil {
		bearer = ""
	}

	status := Status{
		UserID:    userID,
		CheckedAt: s.clock.Now(),
		Agents:    make([]AgentStatus, 0, len(agents)),
	}
	for _, agent := range agents {
		agentStatus := AgentStatus{Agent: agent, TokensSpent: totals[agent.ID]}

		agentStatus.Staleness, agentStatus.CheckErr = s.evaluator.Evaluate(ctx, agent, bearer)

		firedAt, ok, err := s.ledger.LastFired(ctx, agent)
		if err != nil {
			s.logger.Warn("read trigger record failed", zap.String("agent_id", string(agent.ID)), zap.Error(err))
		} else if ok {
			agentStatus.LastFiredAt = &firedAt
		}

		status.Agents = append(status.Agents, agentStatus)
	}

	return status, nil
}
