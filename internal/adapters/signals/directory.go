package signals

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	signalSuffix       = ".signal"
	DefaultDedupWindow = 250 * time.Millisecond
	dirMode            = 0o700
)

// DirectorySource delivers presence signals dropped as marker files into a
// directory. Shell hooks and desktop integrations call `kbt signal <name>`,
// which writes one file per event; a running `kbt watch` consumes them.
type DirectorySource struct {
	dir         string
	dedupWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time

	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*DirectorySource)

func WithDedupWindow(window time.Duration) Option {
	return func(s *DirectorySource) {
		s.dedupWindow = window
	}
}

func NewDirectorySource(dir string, logger *zap.Logger, opts ...Option) *DirectorySource {
	if logger == nil {
		logger = zap.NewNop()
	}

	source := &DirectorySource{
		dir:         filepath.Clean(dir),
		dedupWindow: DefaultDedupWindow,
		logger:      logger,
		now:         time.Now,
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

func (s *DirectorySource) Dir() string {
	return s.dir
}

// Ready is closed once Run watches the directory.
func (s *DirectorySource) Ready() <-chan struct{} {
	return s.ready
}

// Emit drops a marker for signal. The file appears atomically so a watcher
// never reads a partial name.
func (s *DirectorySource) Emit(signal domain.Signal) error {
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create signal directory: %w", err)
	}

	temp, err := os.CreateTemp(s.dir, ".emit-*")
	if err != nil {
		return fmt.Errorf("create signal marker: %w", err)
	}
	tempName := temp.Name()
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("close signal marker: %w", err)
	}

	final := filepath.Join(s.dir, fmt.Sprintf("%d-%s%s", s.now().UnixNano(), signal, signalSuffix))
	if err := os.Rename(tempName, final); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("publish signal marker: %w", err)
	}

	return nil
}

// Run forwards signals to out until ctx is done, then closes out. Markers
// left over from before Run started are discarded.
func (s *DirectorySource) Run(ctx context.Context, out chan<- domain.Signal) error {
	defer close(out)

	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create signal directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create signal watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch signal directory: %w", err)
	}
	s.discardStale()
	s.readyOnce.Do(func() { close(s.ready) })

	lastSeen := map[domain.Signal]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("signal watcher error", zap.Error(watchErr))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}

			signal, ok := s.consume(event.Name)
			if !ok {
				continue
			}

			now := s.now()
			if last, seen := lastSeen[signal]; seen && now.Sub(last) < s.dedupWindow {
				s.logger.Debug("duplicate signal dropped", zap.String("signal", string(signal)))
				continue
			}
			lastSeen[signal] = now

			select {
			case out <- signal:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// consume parses and removes one marker file.
func (s *DirectorySource) consume(path string) (domain.Signal, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, signalSuffix) {
		return "", false
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove signal marker failed", zap.String("path", path), zap.Error(err))
	}

	signal, err := parseMarker(name)
	if err != nil {
		s.logger.Warn("ignoring signal marker", zap.String("name", name), zap.Error(err))
		return "", false
	}
	return signal, true
}

func (s *DirectorySource) discardStale() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("list signal directory failed", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), signalSuffix) {
			continue
		}
		_ = os.Remove(filepath.Join(s.dir, entry.Name()))
	}
}

func parseMarker(name string) (domain.Signal, error) {
	trimmed := strings.TrimSuffix(name, signalSuffix)
	_, raw, found := strings.Cut(trimmed, "-")
	if !found {
		raw = trimmed
	}

	return domain.ParseSignal(raw)
}
