package domain

import (
	"fmt"
	"strings"
)

// unknownAgentKey identifies trigger records for agents that carry neither an
// id nor a chat endpoint.
const unknownAgentKey = "unknown-agent"

type AgentID string

// KeyTarget names which of an agent's two endpoints a key header belongs to.
type KeyTarget string

const (
	KeyTargetKB   KeyTarget = "kb"
	KeyTargetChat KeyTarget = "chat"
)

func (t KeyTarget) Valid() bool {
	switch t {
	case KeyTargetKB, KeyTargetChat:
		return true
	default:
		return false
	}
}

type Agent struct {
	ID     AgentID
	Name   string
	UserID string
	Config AgentConfig
}

type AgentConfig struct {
	KBEndpoint   string
	KBURL        string
	KBKeyName    string
	KBKey        string
	KBKeyRef     string
	ChatEndpoint string
	ChatKeyName  string
	ChatKey      string
	ChatKeyRef   string
	// RequestSchema is the user-supplied chat request template: nil, a JSON
	// (or JSONC) string, or an already decoded object.
	RequestSchema any
}

// KBBase returns the knowledge-base endpoint, falling back to the legacy
// agent_kb_url field.
func (c AgentConfig) KBBase() string {
	if base := strings.TrimSpace(c.KBEndpoint); base != "" {
		return base
	}

	return strings.TrimSpace(c.KBURL)
}

// Trainable reports whether both endpoints needed for a training sweep are
// configured.
func (a Agent) Trainable() bool {
	return a.Config.KBBase() != "" && strings.TrimSpace(a.Config.ChatEndpoint) != ""
}

// TriggerKey is the stable identity used to deduplicate training triggers.
func (a Agent) TriggerKey() string {
	if id := strings.TrimSpace(string(a.ID)); id != "" {
		return id
	}
	if endpoint := strings.TrimSpace(a.Config.ChatEndpoint); endpoint != "" {
		return endpoint
	}

	return unknownAgentKey
}

func (a Agent) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	if a.ID != "" {
		return "Agent " + string(a.ID)
	}

	return unknownAgentKey
}

// KeyRef returns the secret reference and header name stored for target.
func (c AgentConfig) KeyRef(target KeyTarget) (ref string, headerName string) {
	switch target {
	case KeyTargetKB:
		return c.KBKeyRef, c.KBKeyName
	case KeyTargetChat:
		return c.ChatKeyRef, c.ChatKeyName
	default:
		return "", ""
	}
}

// SetKey records the header name and secret reference for target. The
// resolved value is cleared; it is loaded from the secret store on demand.
func (c *AgentConfig) SetKey(target KeyTarget, headerName, ref string) {
	switch target {
	case KeyTargetKB:
		c.KBKeyName, c.KBKeyRef, c.KBKey = headerName, ref, ""
	case KeyTargetChat:
		c.ChatKeyName, c.ChatKeyRef, c.ChatKey = headerName, ref, ""
	}
}

// SetKeyValue stores a resolved secret value for target.
func (c *AgentConfig) SetKeyValue(target KeyTarget, value string) {
	switch target {
	case KeyTargetKB:
		c.KBKey = value
	case KeyTargetChat:
		c.ChatKey = value
	}
}

// OwnedBy reports whether the agent belongs to userID. Agents without an
// owner are shared by every user.
func (a Agent) OwnedBy(userID string) bool {
	owner := strings.TrimSpace(a.UserID)
	return owner == "" || owner == strings.TrimSpace(userID)
}

// AgentKeySecretRef is the secret store key holding one revision of an
// agent's header value.
func AgentKeySecretRef(id AgentID, target KeyTarget, revision int64) string {
	return fmt.Sprintf("kbtrain://agents/%s/%s_key/%d", id, target, revision)
}
