package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

const missingEntryMarker = "is not in the password store"

type runner func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

// Store keeps secrets in the user's password-store. A reference such as
// kbtrain://agents/a/chat_key/2 maps to the entry kbtrain/agents/a/chat_key/2.
type Store struct {
	run runner
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: execPass}
}

func (s *Store) Put(ctx context.Context, ref string, value string) error {
	entry, err := entryName(ctx, ref)
	if err != nil {
		return err
	}

	if _, stderr, err := s.run(ctx, value+"\n", "insert", "--multiline", "--force", entry); err != nil {
		return passError("insert", ref, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	entry, err := entryName(ctx, ref)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		return "", passError("show", ref, err, stderr)
	}

	return strings.TrimRight(stdout, "\r\n"), nil
}

// Delete treats an entry that is already gone as deleted.
func (s *Store) Delete(ctx context.Context, ref string) error {
	entry, err := entryName(ctx, ref)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "--force", entry)
	if err == nil {
		return nil
	}

	err = passError("rm", ref, err, stderr)
	if errors.Is(err, domain.ErrSecretNotFound) {
		return nil
	}

	return err
}

func entryName(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	segments, err := domain.SecretPathSegments(ref)
	if err != nil {
		return "", err
	}

	return strings.Join(segments, "/"), nil
}

func execPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	bin, err := exec.LookPath("pass")
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func passError(op string, ref string, err error, stderr string) error {
	switch {
	case strings.Contains(stderr, missingEntryMarker):
		return fmt.Errorf("pass %s %q: %w", op, ref, domain.ErrSecretNotFound)
	case stderr != "":
		return fmt.Errorf("pass %s %q: %w: %s", op, ref, err, stderr)
	default:
		return fmt.Errorf("pass %s %q: %w", op, ref, err)
	}
}
