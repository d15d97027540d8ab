package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

// Presence is the live state the gate cannot read from its store.
type Presence struct {
	UserID string
	Online bool
}

// Gate decides whether a sweep is due. A sweep fires when the user comes back
// after an idle gap, never while the user stays idle: every evaluation stamps
// last-active-at before the next one reads it.
type Gate struct {
	store         ports.TimerStore
	clock         ports.Clock
	idleThreshold time.Duration
	checkCooldown time.Duration
	logger        *zap.Logger
}

func NewGate(store ports.TimerStore, clock ports.Clock, policy Policy, logger *zap.Logger) *Gate {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	policy = policy.withDefaults()

	return &Gate{
		store:         store,
		clock:         clock,
		idleThreshold: policy.IdleThreshold,
		checkCooldown: policy.CheckCooldown,
		logger:        orNop(logger),
	}
}

func (g *Gate) ShouldSweep(ctx context.Context, presence Presence) bool {
	now := g.clock.Now()

	lastActive, hasActive := g.load(ctx, lastActiveAtKey)
	if err := g.RecordActivity(ctx, now); err != nil {
		g.logger.Warn("record activity failed", zap.Error(err))
	}

	if strings.TrimSpace(presence.UserID) == "" || !presence.Online {
		return false
	}
	if hasActive && now.Sub(lastActive) < g.idleThreshold {
		return false
	}

	lastCheck, hasCheck := g.load(ctx, lastCheckAtKey)
	if hasCheck && now.Sub(lastCheck) < g.checkCooldown {
		return false
	}

	return true
}

func (g *Gate) RecordActivity(ctx context.Context, now time.Time) error {
	if err := writeMillis(ctx, g.store, lastActiveAtKey, now); err != nil {
		return fmt.Errorf("save last active time: %w", err)
	}

	return nil
}

func (g *Gate) RecordCheck(ctx context.Context, now time.Time) error {
	if err := writeMillis(ctx, g.store, lastCheckAtKey, now); err != nil {
		return fmt.Errorf("save last check time: %w", err)
	}

	return nil
}

// load treats unreadable values as unset.
func (g *Gate) load(ctx context.Context, key string) (time.Time, bool) {
	at, ok, err := readMillis(ctx, g.store, key)
	if err != nil {
		g.logger.Warn("read sweep timer failed", zap.String("key", key), zap.Error(err))
		return time.Time{}, false
	}

	return at, ok
}
