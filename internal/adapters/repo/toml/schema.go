package toml

import "fmt"

const currentSchemaVersion = 1

func validateVersion(label string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", label, version, currentSchemaVersion)
	}

	return nil
}

func withDefaultVersion(version int) int {
	if version == 0 {
		return currentSchemaVersion
	}
	return version
}

type agentsFileSchema struct {
	Version int           `toml:"version"`
	Agents  []agentSchema `toml:"agents"`
}

// agentSchema keeps the field names agents are configured with elsewhere so
// existing definitions can be pasted in.
type agentSchema struct {
	ID            string `toml:"id"`
	Name          string `toml:"name,omitempty"`
	UserID        string `toml:"user_id,omitempty"`
	KBEndpoint    string `toml:"agent_kb_endpoint,omitempty"`
	KBURL         string `toml:"agent_kb_url,omitempty"`
	KBKeyName     string `toml:"agent_kb_key_name,omitempty"`
	KBKey         string `toml:"agent_kb_key,omitempty"`
	KBKeyRef      string `toml:"agent_kb_key_ref,omitempty"`
	ChatEndpoint  string `toml:"chat_api_endpoint,omitempty"`
	ChatKeyName   string `toml:"chat_api_key_name,omitempty"`
	ChatKey       string `toml:"chat_api_key,omitempty"`
	ChatKeyRef    string `toml:"chat_api_key_ref,omitempty"`
	RequestSchema any    `toml:"chat_api_request_schema,omitempty"`
}

type timersFileSchema struct {
	Version int               `toml:"version"`
	Timers  map[string]string `toml:"timers"`
}

type usageFileSchema struct {
	Version int                `toml:"version"`
	Entries []usageEntrySchema `toml:"entries"`
}

type usageEntrySchema struct {
	UserID           string `toml:"user_id"`
	AgentID          string `toml:"agent_id"`
	PromptTokens     *int64 `toml:"prompt_tokens,omitempty"`
	CandidatesTokens *int64 `toml:"candidates_tokens,omitempty"`
	TotalTokens      int64  `toml:"total_tokens"`
	Estimated        bool   `toml:"estimated,omitempty"`
	RecordedAt       string `toml:"recorded_at"`
}
