package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

type sweepRunner interface {
	Sweep(ctx context.Context) (SweepReport, error)
}

// Watcher routes presence signals to the gate and launches sweeps in the
// background when the gate says one is due.
type Watcher struct {
	gate         *Gate
	sweeper      sweepRunner
	identity     ports.IdentityProvider
	clock        ports.Clock
	pollInterval time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	online bool

	sweeps sync.WaitGroup
}

type WatcherOption func(*Watcher)

// WithPollInterval makes Run treat every tick as a mount signal. Zero
// disables polling.
func WithPollInterval(interval time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = interval
	}
}

func NewWatcher(gate *Gate, sweeper sweepRunner, identity ports.IdentityProvider, clock ports.Clock, logger *zap.Logger, opts ...WatcherOption) *Watcher {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	w := &Watcher{
		gate:     gate,
		sweeper:  sweeper,
		identity: identity,
		clock:    clock,
		logger:   orNop(logger),
		online:   true,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.online
}

func (w *Watcher) setOnline(online bool) {
	w.mu.Lock()
	w.online = online
	w.mu.Unlock()
}

// Handle processes one signal. It returns true when a sweep was launched.
func (w *Watcher) Handle(ctx context.Context, signal domain.Signal) bool {
	logger := w.logger.With(zap.String("signal", string(signal)))

	switch signal {
	case domain.SignalOnline:
		w.setOnline(true)
	case domain.SignalOffline:
		w.setOnline(false)
	}

	if !signal.ResumesActivity() {
		if err := w.gate.RecordActivity(ctx, w.clock.Now()); err != nil {
			logger.Warn("record activity failed", zap.Error(err))
		}
		return false
	}

	userID, err := w.identity.UserID(ctx)
	if err != nil {
		logger.Debug("user id unavailable", zap.Error(err))
		userID = ""
	}

	if !w.gate.ShouldSweep(ctx, Presence{UserID: userID, Online: w.Online()}) {
		logger.Debug("sweep not due")
		return false
	}

	if err := w.gate.RecordCheck(ctx, w.clock.Now()); err != nil {
		logger.Warn("record check failed", zap.Error(err))
	}

	logger.Info("sweep due, starting")
	w.sweeps.Add(1)
	go func() {
		defer w.sweeps.Done()

		report, err := w.sweeper.Sweep(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			logger.Warn("sweep failed", zap.Error(err))
		case report.Dropped:
			logger.Debug("sweep dropped, previous sweep still running")
		}
	}()

	return true
}

// Run evaluates the gate once as an initial mount, then consumes signals
// until ctx is done or the channel closes, then waits for launched sweeps.
func (w *Watcher) Run(ctx context.Context, signals <-chan domain.Signal) error {
	defer w.Wait()

	w.Handle(ctx, domain.SignalMount)

	var tick <-chan time.Time
	if w.pollInterval > 0 {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case signal, ok := <-signals:
			if !ok {
				return nil
			}
			w.Handle(ctx, signal)
		case <-tick:
			w.Handle(ctx, domain.SignalMount)
		}
	}
}

// Wait blocks until every launched sweep has returned.
func (w *Watcher) Wait() {
	w.sweeps.Wait()
}
