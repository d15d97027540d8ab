package toml

import (
	"context"
	"slices"
	"sync"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"github.com/spf13/viper"
)

const (
	AgentsPathKey  = "paths.agents"
	agentsFileName = "agents.toml"
	agentsLabel    = "agents"
)

type AgentRepository struct {
	agentsPath string
	mu         *sync.RWMutex
}

var _ ports.AgentRepository = (*AgentRepository)(nil)

func NewAgentRepository(cfg *viper.Viper) (*AgentRepository, error) {
	path, err := resolveStatePath(cfg, AgentsPathKey, agentsFileName)
	if err != nil {
		return nil, err
	}

	return &AgentRepository{agentsPath: path, mu: lockForPath(path)}, nil
}

func (r *AgentRepository) Path() string {
	return r.agentsPath
}

func (r *AgentRepository) Save(ctx context.Context, agent domain.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toAgentSchema(agent)
	index := slices.IndexFunc(file.Agents, func(entry agentSchema) bool { return entry.ID == encoded.ID })
	if index >= 0 {
		file.Agents[index] = encoded
	} else {
		file.Agents = append(file.Agents, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.agentsPath, agentsLabel, file)
}

func (r *AgentRepository) GetByID(ctx context.Context, id domain.AgentID) (domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return domain.Agent{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Agent{}, err
	}

	for _, entry := range file.Agents {
		if entry.ID == string(id) {
			return fromAgentSchema(entry), nil
		}
	}

	return domain.Agent{}, domain.ErrAgentNotFound
}

func (r *AgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	agents := make([]domain.Agent, 0, len(file.Agents))
	for _, entry := range file.Agents {
		agents = append(agents, fromAgentSchema(entry))
	}

	return agents, nil
}

func (r *AgentRepository) Delete(ctx context.Context, id domain.AgentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	remaining := slices.DeleteFunc(file.Agents, func(entry agentSchema) bool { return entry.ID == string(id) })
	if len(remaining) == len(file.Agents) {
		return domain.ErrAgentNotFound
	}
	file.Agents = remaining

	return writeTOMLFile(r.agentsPath, agentsLabel, file)
}

func (r *AgentRepository) readSchema() (agentsFileSchema, error) {
	var file agentsFileSchema
	if err := readTOMLFile(r.agentsPath, agentsLabel, &file); err != nil {
		return agentsFileSchema{}, err
	}
	if err := validateVersion(agentsLabel, file.Version); err != nil {
		return agentsFileSchema{}, err
	}
	file.Version = withDefaultVersion(file.Version)

	return file, nil
}

func toAgentSchema(agent domain.Agent) agentSchema {
	entry := agentSchema{
		ID:            string(agent.ID),
		Name:          agent.Name,
		UserID:        agent.UserID,
		KBEndpoint:    agent.Config.KBEndpoint,
		KBURL:         agent.Config.KBURL,
		KBKeyName:     agent.Config.KBKeyName,
		KBKeyRef:      agent.Config.KBKeyRef,
		ChatEndpoint:  agent.Config.ChatEndpoint,
		ChatKeyName:   agent.Config.ChatKeyName,
		ChatKeyRef:    agent.Config.ChatKeyRef,
		RequestSchema: agent.Config.RequestSchema,
	}

	// Values behind a secret reference are never written to disk.
	if entry.KBKeyRef == "" {
		entry.KBKey = agent.Config.KBKey
	}
	if entry.ChatKeyRef == "" {
		entry.ChatKey = agent.Config.ChatKey
	}
	if schema, ok := entry.RequestSchema.(string); ok && schema == "" {
		entry.RequestSchema = nil
	}

	return entry
}

func fromAgentSchema(entry agentSchema) domain.Agent {
	return domain.Agent{
		ID:     domain.AgentID(entry.ID),
		Name:   entry.Name,
		UserID: entry.UserID,
		Config: domain.AgentConfig{
			KBEndpoint:    entry.KBEndpoint,
			KBURL:         entry.KBURL,
			KBKeyName:     entry.KBKeyName,
			KBKey:         entry.KBKey,
			KBKeyRef:      entry.KBKeyRef,
			ChatEndpoint:  entry.ChatEndpoint,
			ChatKeyName:   entry.ChatKeyName,
			ChatKey:       entry.ChatKey,
			ChatKeyRef:    entry.ChatKeyRef,
			RequestSchema: entry.RequestSchema,
		},
	}
}
