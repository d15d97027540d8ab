package toml

import (
	"context"
	"maps"
	"sync"

	"github.com/bnema/kbtrain/internal/ports"
	"github.com/spf13/viper"
)

const (
	TimersPathKey  = "paths.timers"
	timersFileName = "timers.toml"
	timersLabel    = "timers"
)

// TimerStore keeps the trigger timestamps in a single TOML table. Every write
// rewrites the file, so concurrent processes resolve as last write wins.
type TimerStore struct {
	timersPath string
	mu         *sync.RWMutex
}

var _ ports.TimerStore = (*TimerStore)(nil)

func NewTimerStore(cfg *viper.Viper) (*TimerStore, error) {
	path, err := resolveStatePath(cfg, TimersPathKey, timersFileName)
	if err != nil {
		return nil, err
	}

	return &TimerStore{timersPath: path, mu: lockForPath(path)}, nil
}

func (s *TimerStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return "", false, err
	}

	value, ok := file.Timers[key]
	return value, ok, nil
}

func (s *TimerStore) Set(ctx context.Context, key string, value string) error {
	return s.update(ctx, func(timers map[string]string) bool {
		if current, ok := timers[key]; ok && current == value {
			return false
		}
		timers[key] = value
		return true
	})
}

func (s *TimerStore) Clear(ctx context.Context, key string) error {
	return s.update(ctx, func(timers map[string]string) bool {
		if _, ok := timers[key]; !ok {
			return false
		}
		delete(timers, key)
		return true
	})
}

// Snapshot returns every stored timer.
func (s *TimerStore) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	return maps.Clone(file.Timers), nil
}

func (s *TimerStore) update(ctx context.Context, mutate func(map[string]string) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	if !mutate(file.Timers) {
		return nil
	}

	return writeTOMLFile(s.timersPath, timersLabel, file)
}

func (s *TimerStore) readSchema() (timersFileSchema, error) {
	var file timersFileSchema
	if err := readTOMLFile(s.timersPath, timersLabel, &file); err != nil {
		return timersFileSchema{}, err
	}
	if err := validateVersion(timersLabel, file.Version); err != nil {
		return timersFileSchema{}, err
	}
	file.Version = withDefaultVersion(file.Version)
	if file.Timers == nil {
		file.Timers = map[string]string{}
	}

	return file, nil
}
