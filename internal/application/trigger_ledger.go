package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

// TriggerLedger remembers when a training command was last sent per agent.
// It is written after the send succeeds, not after training completes, so at
// most one command goes out per agent per cooldown window.
type TriggerLedger struct {
	store    ports.TimerStore
	cooldown time.Duration
	logger   *zap.Logger
}

func NewTriggerLedger(store ports.TimerStore, policy Policy, logger *zap.Logger) *TriggerLedger {
	policy = policy.withDefaults()

	return &TriggerLedger{
		store:    store,
		cooldown: policy.TriggerCooldown,
		logger:   orNop(logger),
	}
}

// HasFiredRecently reports a fire within the cooldown window. An unreadable
// record counts as no fire.
func (l *TriggerLedger) HasFiredRecently(ctx context.Context, agent domain.Agent, now time.Time) bool {
	firedAt, ok, err := l.LastFired(ctx, agent)
	if err != nil {
		l.logger.Warn("read trigger record failed", zap.String("agent_key", agent.TriggerKey()), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	return now.Sub(firedAt) < l.cooldown
}

func (l *TriggerLedger) LastFired(ctx context.Context, agent domain.Agent) (time.Time, bool, error) {
	return readMillis(ctx, l.store, triggerStorageKey(agent))
}

func (l *TriggerLedger) MarkFired(ctx context.Context, agent domain.Agent, now time.Time) error {
	if err := writeMillis(ctx, l.store, triggerStorageKey(agent), now); err != nil {
		return fmt.Errorf("save trigger record for %s: %w", agent.TriggerKey(), err)
	}

	return nil
}

func triggerStorageKey(agent domain.Agent) string {
	return triggerKeyPrefix + encodeKeyComponent(agent.TriggerKey())
}
