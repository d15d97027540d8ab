package application

import (
	"github.com/bnema/kbtrain/internal/domain"
)

type AddAgentCommand struct {
	ID            domain.AgentID
	Name          string
	UserID        string
	KBEndpoint    string
	ChatEndpoint  string
	RequestSchema any
}

type SetAgentKeyCommand struct {
	ID          domain.AgentID
	Target      domain.KeyTarget
	HeaderName  string
	SecretValue string
}

type RemoveAgentKeyCommand struct {
	ID     domain.AgentID
	Target domain.KeyTarget
}
