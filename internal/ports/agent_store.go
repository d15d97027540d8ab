package ports

import (
	"context"

	"github.com/bnema/kbtrain/internal/domain"
)

// AgentStore lists the agents a sweep walks, with key values resolved.
type AgentStore interface {
	ListAgents(ctx context.Context, userID string) ([]domain.Agent, error)
}

// AgentRepository persists agent definitions. Key values are never stored
// here, only secret references.
type AgentRepository interface {
	List(ctx context.Context) ([]domain.Agent, error)
	GetByID(ctx context.Context, id domain.AgentID) (domain.Agent, error)
	Save(ctx context.Context, agent domain.Agent) error
	Delete(ctx context.Context, id domain.AgentID) error
}
