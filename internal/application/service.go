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

// Service manages agent definitions and their key secrets. It also serves as
// the sweep's AgentStore, resolving secret references into key values.
type Service struct {
	repo   ports.AgentRepository
	store  ports.SecretStore
	clock  ports.Clock
	logger *zap.Logger
}

func NewService(repo ports.AgentRepository, store ports.SecretStore, clock ports.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		repo:   repo,
		store:  store,
		clock:  clock,
		logger: orNop(logger),
	}
}

var _ ports.AgentStore = (*Service)(nil)

// AddAgent creates the agent or updates its endpoints. Existing key
// references are kept.
func (s *Service) AddAgent(ctx context.Context, cmd AddAgentCommand) error {
	if strings.TrimSpace(string(cmd.ID)) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidAgent)
	}

	agent, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAgentNotFound) {
			return fmt.Errorf("get agent by id: %w", err)
		}
		agent = domain.Agent{ID: cmd.ID}
	}

	if cmd.Name != "" {
		agent.Name = cmd.Name
	}
	agent.UserID = cmd.UserID
	agent.Config.KBEndpoint = cmd.KBEndpoint
	agent.Config.ChatEndpoint = cmd.ChatEndpoint
	if cmd.RequestSchema != nil {
		agent.Config.RequestSchema = cmd.RequestSchema
	}

	if err := s.repo.Save(ctx, agent); err != nil {
		return fmt.Errorf("save agent: %w", err)
	}

	return nil
}

func (s *Service) SetAgentKey(ctx context.Context, cmd SetAgentKeyCommand) error {
	if !cmd.Target.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKeyTarget, cmd.Target)
	}

	agent, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("get agent by id: %w", err)
	}
	originalAgent := agent

	previousRef, _ := agent.Config.KeyRef(cmd.Target)
	secretKey := domain.AgentKeySecretRef(cmd.ID, cmd.Target, s.clock.Now().UnixMilli())

	if err := s.store.Put(ctx, secretKey, cmd.SecretValue); err != nil {
		return fmt.Errorf("store agent key: %w", err)
	}

	agent.Config.SetKey(cmd.Target, cmd.HeaderName, secretKey)

	if err := s.repo.Save(ctx, agent); err != nil {
		if rollbackErr := s.store.Delete(ctx, secretKey); rollbackErr != nil {
			return fmt.Errorf("save agent key and rollback stored secret: %w", errors.Join(err, rollbackErr))
		}

		return fmt.Errorf("save agent key: %w", err)
	}

	if previousRef == "" || previousRef == secretKey {
		return nil
	}

	if err := s.store.Delete(ctx, previousRef); err != nil {
		var rollbackErr error
		if restoreErr := s.repo.Save(ctx, originalAgent); restoreErr != nil {
			rollbackErr = errors.Join(rollbackErr, restoreErr)
		}
		if newSecretDeleteErr := s.store.Delete(ctx, secretKey); newSecretDeleteErr != nil {
			rollbackErr = errors.Join(rollbackErr, newSecretDeleteErr)
		}
		if rollbackErr != nil {
			return fmt.Errorf("delete previous agent key and rollback key update: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("delete previous agent key: %w", err)
	}

	return nil
}

func (s *Service) RemoveAgentKey(ctx context.Context, cmd RemoveAgentKeyCommand) error {
	if !cmd.Target.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKeyTarget, cmd.Target)
	}

	agent, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("get agent by id: %w", err)
	}
	originalAgent := agent

	secretRef, _ := agent.Config.KeyRef(cmd.Target)
	agent.Config.SetKey(cmd.Target, "", "")

	if err := s.repo.Save(ctx, agent); err != nil {
		return fmt.Errorf("save agent key: %w", err)
	}

	if secretRef == "" {
		return nil
	}

	if err := s.store.Delete(ctx, secretRef); err != nil {
		if restoreErr := s.repo.Save(ctx, originalAgent); restoreErr != nil {
			return fmt.Errorf("delete agent key and restore key ref: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete agent key: %w", err)
	}

	return nil
}

// RemoveAgent deletes the agent and every key secret it references. Secret
// cleanup failures are logged; the agent is gone either way.
func (s *Service) RemoveAgent(ctx context.Context, id domain.AgentID) error {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get agent by id: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}

	for _, target := range []domain.KeyTarget{domain.KeyTargetKB, domain.KeyTargetChat} {
		ref, _ := agent.Config.KeyRef(target)
		if ref == "" {
			continue
		}
		if err := s.store.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			s.logger.Warn("delete agent key failed", zap.String("agent_id", string(id)), zap.String("target", string(target)), zap.Error(err))
		}
	}

	return nil
}

// ListAgents returns the agents owned by userID with key values loaded. A key
// that cannot be loaded is left empty and logged so one broken secret does
// not block the other agents.
func (s *Service) ListAgents(ctx context.Context, userID string) ([]domain.Agent, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	agents := make([]domain.Agent, 0, len(all))
	for _, agent := range all {
		if !agent.OwnedBy(userID) {
			continue
		}

		agents = append(agents, s.resolveKeys(ctx, agent))
	}

	return agents, nil
}

// Definitions returns every stored agent as persisted: key references only,
// no key values.
func (s *Service) Definitions(ctx context.Context) ([]domain.Agent, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	return agents, nil
}

func (s *Service) resolveKeys(ctx context.Context, agent domain.Agent) domain.Agent {
	for _, target := range []domain.KeyTarget{domain.KeyTargetKB, domain.KeyTargetChat} {
		ref, _ := agent.Config.KeyRef(target)
		if ref == "" {
			continue
		}

		value, err := s.store.Get(ctx, ref)
		if err != nil {
			s.logger.Warn("load agent key failed",
				zap.String("agent_id", string(agent.ID)),
				zap.String("target", string(target)),
				zap.Error(err),
			)
			continue
		}
		agent.Config.SetKeyValue(target, value)
	}

	return agent
}
