package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// manualClock is a clock tests move forward by hand.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errStoreUnavailable = errors.New("store unavailable")

type inMemoryTimerStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newInMemoryTimerStore() *inMemoryTimerStore {
	return &inMemoryTimerStore{values: map[string]string{}}
}

func (s *inMemoryTimerStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *inMemoryTimerStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *inMemoryTimerStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *inMemoryTimerStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok
}

type staticIdentity struct {
	userID string
	token  string
	err    error
}

func (s staticIdentity) UserID(context.Context) (string, error) {
	return s.userID, s.err
}

func (s staticIdentity) BearerToken(context.Context) (string, error) {
	return s.token, s.err
}

type recordingWallet struct {
	mu      sync.Mutex
	records []domain.UsageRecord
	users   []string
	err     error
}

func (w *recordingWallet) RecordUsage(_ context.Context, userID string, usage domain.UsageRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records = append(w.records, usage)
	w.users = append(w.users, userID)
	return w.err
}

func (w *recordingWallet) snapshot() []domain.UsageRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]domain.UsageRecord(nil), w.records...)
}

func testPolicy() Policy {
	return DefaultPolicy()
}
