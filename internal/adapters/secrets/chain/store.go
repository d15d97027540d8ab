package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/kbtrain/internal/adapters/secrets/file"
	passstore "github.com/bnema/kbtrain/internal/adapters/secrets/pass"
	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

var errNoBackends = errors.New("secret chain needs at least one backend")

// Backend is one named link of the chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store reads and writes through its backends in order. Reads and writes stop
// at the first backend that succeeds; deletes reach every backend so a key
// written to a fallback while the primary was down does not survive removal.
// Cancellation stops the chain immediately.
type Store struct {
	backends []Backend
	logger   *zap.Logger
}

var _ ports.SecretStore = (*Store)(nil)

func New(logger *zap.Logger, backends ...Backend) (*Store, error) {
	var kept []Backend
	for _, backend := range backends {
		if backend.Store != nil {
			kept = append(kept, backend)
		}
	}
	if len(kept) == 0 {
		return nil, errNoBackends
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{backends: kept, logger: logger}, nil
}

// NewPassFirstWithFileFallback prefers the password-store and keeps working
// on hosts without pass by writing 0600 files below fileRoot.
func NewPassFirstWithFileFallback(fileRoot string, logger *zap.Logger) (*Store, error) {
	return New(logger,
		Backend{Name: "pass", Store: passstore.NewStore()},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Put(ctx context.Context, ref string, value string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Put(ctx, ref, value)
		if err == nil {
			s.logFallback("put", ref, backend, errs)
			return nil
		}
		if interrupted(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name, err))
	}

	return fmt.Errorf("store secret %q: %w", ref, errors.Join(errs...))
}

func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	var errs []error
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, ref)
		if err == nil {
			s.logFallback("get", ref, backend, errs)
			return value, nil
		}
		if interrupted(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name, err))
	}

	return "", fmt.Errorf("load secret %q: %w", ref, errors.Join(errs...))
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, ref)
		if err == nil || errors.Is(err, domain.ErrSecretNotFound) {
			continue
		}
		if interrupted(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name, err))
	}

	// A backend that cannot run at all holds nothing to delete.
	if len(errs) < len(s.backends) {
		for _, err := range errs {
			s.logger.Debug("secret backend skipped on delete", zap.String("ref", ref), zap.Error(err))
		}
		return nil
	}

	return fmt.Errorf("delete secret %q: %w", ref, errors.Join(errs...))
}

func (s *Store) logFallback(op string, ref string, served Backend, skipped []error) {
	if len(skipped) == 0 {
		return
	}

	s.logger.Debug("secret served by fallback backend",
		zap.String("op", op),
		zap.String("ref", ref),
		zap.String("backend", served.Name),
		zap.Errors("skipped", skipped),
	)
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
