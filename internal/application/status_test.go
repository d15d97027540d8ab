package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticTotals map[domain.AgentID]int64

func (s staticTotals) TotalsByAgent(context.Context, string) (map[domain.AgentID]int64, error) {
	return s, nil
}

func TestStatusServiceReportsWithoutDispatching(t *testing.T) {
	t.Parallel()

	backend := newTrainingBackend(t)
	backend.setTimestamps(map[string]string{"assistant": sweepNow.Format(time.RFC3339)})

	clock := fixedClock{now: sweepNow}
	store := newInMemoryTimerStore()
	identity := staticIdentity{userID: "user-1"}
	ledger := NewTriggerLedger(store, testPolicy(), nil)
	evaluator := NewEvaluator(backend.server.Client(), identity, clock, testPolicy(), nil)

	fired := backend.agent("fired")
	require.NoError(t, ledger.MarkFired(context.Background(), fired, sweepNow.Add(-time.Hour)))
	unconfigured := domain.Agent{ID: "draft"}

	agents := mocks.NewMockAgentStore(t)
	agents.EXPECT().ListAgents(mock.Anything, "user-1").Return([]domain.Agent{fired, unconfigured}, nil)

	service := NewStatusService(identity, agents, evaluator, ledger, staticTotals{"fired": 1500}, clock, nil)

	status, err := service.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "user-1", status.UserID)
	assert.Equal(t, sweepNow, status.CheckedAt)
	require.Len(t, status.Agents, 2)

	first := status.Agents[0]
	assert.True(t, first.Staleness.Stale)
	assert.Len(t, first.Staleness.StaleKeys, 3)
	require.NotNil(t, first.LastFiredAt)
	assert.Equal(t, sweepNow.Add(-time.Hour).UnixMilli(), first.LastFiredAt.UnixMilli())
	assert.Equal(t, int64(1500), first.TokensSpent)

	second := status.Agents[1]
	assert.False(t, second.Staleness.Configured)
	assert.Nil(t, second.LastFiredAt)
	assert.Zero(t, second.TokensSpent)

	assert.Empty(t, backend.dispatched())
}

func TestStatusServiceRequiresIdentity(t *testing.T) {
	t.Parallel()

	service := NewStatusService(staticIdentity{}, mocks.NewMockAgentStore(t), nil, nil, nil, nil, nil)

	_, err := service.GetStatus(context.Background())
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)
}
