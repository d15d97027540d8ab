package application

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	block chan struct{}
}

func (s *countingSweeper) Sweep(context.Context) (SweepReport, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	return SweepReport{}, nil
}

func newTestWatcher(store *inMemoryTimerStore, clock *manualClock, sweeper sweepRunner, opts ...WatcherOption) *Watcher {
	gate := NewGate(store, clock, testPolicy(), nil)
	return NewWatcher(gate, sweeper, staticIdentity{userID: "user-1"}, clock, nil, opts...)
}

func TestWatcherLaunchesSweepOnResumeSignals(t *testing.T) {
	t.Parallel()

	for _, signal := range []domain.Signal{domain.SignalMount, domain.SignalVisible, domain.SignalFocus, domain.SignalOnline} {
		t.Run(string(signal), func(t *testing.T) {
			t.Parallel()

			store := newInMemoryTimerStore()
			clock := newManualClock(gateNow)
			sweeper := &countingSweeper{}
			watcher := newTestWatcher(store, clock, sweeper)

			assert.True(t, watcher.Handle(context.Background(), signal))
			watcher.Wait()

			assert.Equal(t, int32(1), sweeper.calls.Load())
			checked, ok := store.value(lastCheckAtKey)
			require.True(t, ok)
			assert.Equal(t, millis(gateNow), checked)
		})
	}
}

func TestWatcherHideSignalsOnlyRecordActivity(t *testing.T) {
	t.Parallel()

	for _, signal := range []domain.Signal{domain.SignalHidden, domain.SignalPageHide} {
		t.Run(string(signal), func(t *testing.T) {
			t.Parallel()

			store := newInMemoryTimerStore()
			clock := newManualClock(gateNow)
			sweeper := &countingSweeper{}
			watcher := newTestWatcher(store, clock, sweeper)

			assert.False(t, watcher.Handle(context.Background(), signal))
			watcher.Wait()

			assert.Zero(t, sweeper.calls.Load())
			active, ok := store.value(lastActiveAtKey)
			require.True(t, ok)
			assert.Equal(t, millis(gateNow), active)
			_, checked := store.value(lastCheckAtKey)
			assert.False(t, checked)
		})
	}
}

func TestWatcherTracksConnectivity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newInMemoryTimerStore()
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{}
	watcher := newTestWatcher(store, clock, sweeper)

	assert.False(t, watcher.Handle(ctx, domain.SignalOffline))
	assert.False(t, watcher.Online())

	clock.Advance(2 * time.Hour)
	assert.False(t, watcher.Handle(ctx, domain.SignalFocus), "no sweep while offline")

	clock.Advance(2 * time.Hour)
	assert.True(t, watcher.Handle(ctx, domain.SignalOnline))
	assert.True(t, watcher.Online())
	watcher.Wait()

	assert.Equal(t, int32(1), sweeper.calls.Load())
}

func TestWatcherRequiresIdleGapBetweenSweeps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newInMemoryTimerStore()
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{}
	watcher := newTestWatcher(store, clock, sweeper)

	require.True(t, watcher.Handle(ctx, domain.SignalMount))
	watcher.Wait()

	// Back before the idle threshold.
	clock.Advance(14 * time.Minute)
	assert.False(t, watcher.Handle(ctx, domain.SignalVisible))

	clock.Advance(90 * time.Minute)
	assert.True(t, watcher.Handle(ctx, domain.SignalVisible))
	watcher.Wait()

	assert.Equal(t, int32(2), sweeper.calls.Load())
}

func TestWatcherRunStopsOnClosedChannelAndDrainsSweeps(t *testing.T) {
	t.Parallel()

	store := newInMemoryTimerStore()
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{block: make(chan struct{})}
	watcher := newTestWatcher(store, clock, sweeper)

	signals := make(chan domain.Signal, 2)
	signals <- domain.SignalMount
	close(signals)

	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(context.Background(), signals)
	}()

	select {
	case <-done:
		t.Fatal("Run returned before the launched sweep finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(sweeper.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), sweeper.calls.Load())
}

func TestWatcherRunEvaluatesGateAtStartup(t *testing.T) {
	t.Parallel()

	store := newInMemoryTimerStore()
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{}
	watcher := newTestWatcher(store, clock, sweeper)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, make(chan domain.Signal))
	}()

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), sweeper.calls.Load())

	active, ok := store.value(lastActiveAtKey)
	require.True(t, ok)
	assert.Equal(t, millis(gateNow), active)
	checked, ok := store.value(lastCheckAtKey)
	require.True(t, ok)
	assert.Equal(t, millis(gateNow), checked)
}

func TestWatcherRunStartupRespectsCheckCooldown(t *testing.T) {
	t.Parallel()

	store := newInMemoryTimerStore()
	require.NoError(t, store.Set(context.Background(), lastCheckAtKey, millis(gateNow.Add(-5*time.Minute))))
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{}
	watcher := newTestWatcher(store, clock, sweeper)

	signals := make(chan domain.Signal)
	close(signals)

	require.NoError(t, watcher.Run(context.Background(), signals))
	assert.Zero(t, sweeper.calls.Load())

	active, ok := store.value(lastActiveAtKey)
	require.True(t, ok, "startup still stamps activity")
	assert.Equal(t, millis(gateNow), active)
}

func TestWatcherPollTickActsAsMount(t *testing.T) {
	t.Parallel()

	store := newInMemoryTimerStore()
	// Inside the check cooldown so the startup evaluation does not sweep.
	require.NoError(t, store.Set(context.Background(), lastCheckAtKey, millis(gateNow.Add(-10*time.Minute))))
	clock := newManualClock(gateNow)
	sweeper := &countingSweeper{}
	watcher := newTestWatcher(store, clock, sweeper, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, make(chan domain.Signal))
	}()

	require.Eventually(t, func() bool {
		_, ok := store.value(lastActiveAtKey)
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, sweeper.calls.Load())

	clock.Advance(2 * time.Hour)
	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), sweeper.calls.Load(), "later ticks fall inside the idle window")
}
