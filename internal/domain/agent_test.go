package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentTrainableNeedsBothEndpoints(t *testing.T) {
	assert.True(t, Agent{Config: AgentConfig{KBEndpoint: "https://kb", ChatEndpoint: "https://chat"}}.Trainable())
	assert.True(t, Agent{Config: AgentConfig{KBURL: "https://legacy", ChatEndpoint: "https://chat"}}.Trainable())
	assert.False(t, Agent{Config: AgentConfig{KBEndpoint: "https://kb", ChatEndpoint: "  "}}.Trainable())
	assert.False(t, Agent{Config: AgentConfig{ChatEndpoint: "https://chat"}}.Trainable())
}

func TestAgentKBBasePrefersEndpoint(t *testing.T) {
	cfg := AgentConfig{KBEndpoint: " https://kb ", KBURL: "https://legacy"}
	assert.Equal(t, "https://kb", cfg.KBBase())

	cfg.KBEndpoint = ""
	assert.Equal(t, "https://legacy", cfg.KBBase())
}

func TestAgentTriggerKey(t *testing.T) {
	assert.Equal(t, "agent-1", Agent{ID: "agent-1", Config: AgentConfig{ChatEndpoint: "https://chat"}}.TriggerKey())
	assert.Equal(t, "https://chat", Agent{Config: AgentConfig{ChatEndpoint: "https://chat"}}.TriggerKey())
	assert.Equal(t, "unknown-agent", Agent{}.TriggerKey())
}

func TestAgentDisplayName(t *testing.T) {
	assert.Equal(t, "Support bot", Agent{ID: "a", Name: "Support bot"}.DisplayName())
	assert.Equal(t, "Agent a", Agent{ID: "a"}.DisplayName())
	assert.Equal(t, "unknown-agent", Agent{}.DisplayName())
}

func TestAgentOwnedBy(t *testing.T) {
	assert.True(t, Agent{UserID: "user-1"}.OwnedBy("user-1"))
	assert.False(t, Agent{UserID: "user-1"}.OwnedBy("user-2"))
	assert.True(t, Agent{}.OwnedBy("anyone"), "unowned agents are shared")
}

func TestAgentConfigKeys(t *testing.T) {
	var cfg AgentConfig
	cfg.SetKeyValue(KeyTargetChat, "stale")
	cfg.SetKey(KeyTargetChat, "X-Api-Key", "ref-1")

	ref, header := cfg.KeyRef(KeyTargetChat)
	assert.Equal(t, "ref-1", ref)
	assert.Equal(t, "X-Api-Key", header)
	assert.Empty(t, cfg.ChatKey, "setting a new ref clears the resolved value")

	cfg.SetKeyValue(KeyTargetKB, "kb-secret")
	assert.Equal(t, "kb-secret", cfg.KBKey)

	ref, header = cfg.KeyRef(KeyTarget("billing"))
	assert.Empty(t, ref)
	assert.Empty(t, header)
	assert.False(t, KeyTarget("billing").Valid())
}

func TestSecretRefs(t *testing.T) {
	ref := AgentKeySecretRef("agent-1", KeyTargetKB, 42)

	assert.Equal(t, "kbtrain://agents/agent-1/kb_key/42", ref)
	assert.Equal(t, "kbtrain/agents/agent-1/kb_key/42", SecretStoragePath(ref))
	assert.Equal(t, "kbtrain/identity/oauth_tokens", SecretStoragePath(" kbtrain:///identity/oauth_tokens "))
	assert.Equal(t, "plain/path", SecretStoragePath("plain/path"))
}

func TestSecretPathSegments(t *testing.T) {
	segments, err := SecretPathSegments("kbtrain://agents/agent-1//chat_key/3")
	require.NoError(t, err)
	assert.Equal(t, []string{"kbtrain", "agents", "agent-1", "chat_key", "3"}, segments)

	for _, ref := range []string{"", "  ", "/etc/passwd", "../escape", "kbtrain://agents/../../x", `kbtrain://a\b`} {
		_, err := SecretPathSegments(ref)
		assert.ErrorIs(t, err, ErrInvalidSecretRef, ref)
	}
}
