package application

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/ports"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// resolveBearer asks the identity provider for a live token and falls back to
// the token cached at the start of the sweep.
func resolveBearer(ctx context.Context, identity ports.IdentityProvider, cached string, logger *zap.Logger) string {
	if identity == nil {
		return cached
	}

	token, err := identity.BearerToken(ctx)
	if err != nil {
		logger.Debug("bearer token resolution failed, using cached token", zap.Error(err))
		return cached
	}
	if strings.TrimSpace(token) == "" {
		return cached
	}

	return token
}

func setBearer(req *http.Request, token string) {
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func setKeyHeader(req *http.Request, name, value string) {
	name = strings.TrimSpace(name)
	if name == "" || value == "" {
		return
	}

	req.Header.Set(name, value)
}

func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// readResponse drains a bounded body and turns non-2xx statuses into errors.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return body, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func orDefaultClient(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}

	return client
}
