package application

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports/mocks"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type capturedRequest struct {
	mu      sync.Mutex
	bodies  []map[string]any
	headers []http.Header
}

func (c *capturedRequest) add(r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.headers = append(c.headers, r.Header.Clone())
	c.mu.Unlock()
}

func (c *capturedRequest) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.bodies)
}

func chatServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.add(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	return server
}

func chatAgent(endpoint string, schema any) domain.Agent {
	return domain.Agent{
		ID: "agent-1",
		Config: domain.AgentConfig{
			KBEndpoint:    endpoint,
			ChatEndpoint:  endpoint + "/chat",
			ChatKeyName:   "X-Chat-Key",
			ChatKey:       "chat-secret",
			RequestSchema: schema,
		},
	}
}

func TestDispatcherSendsSynthesizedBody(t *testing.T) {
	t.Parallel()

	captured := &capturedRequest{}
	server := chatServer(t, http.StatusOK, `{"usageMetadata":{"totalTokenCount":1234.4}}`, captured)
	wallet := &recordingWallet{}
	dispatcher := NewDispatcher(server.Client(), staticIdentity{userID: "user-1", token: "tok"}, wallet, testPolicy(), nil)

	schema := `{
		// chat template
		"contents": [{"parts": [{"prompt": ""}]}],
		"session": {"user": ""},
		"temperature": 0.2,
	}`

	result, err := dispatcher.Dispatch(context.Background(), chatAgent(server.URL, schema), "user-1", "")
	require.NoError(t, err)
	dispatcher.Wait()

	require.Equal(t, 1, captured.count())
	want := map[string]any{
		"contents":    []any{map[string]any{"parts": []any{map[string]any{"prompt": "/train"}}}},
		"session":     map[string]any{"user": "user-1"},
		"temperature": 0.2,
		"user_id":     "user-1",
		"userId":      "user-1",
		"message":     "/train",
	}
	if diff := cmp.Diff(want, captured.bodies[0]); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}

	header := captured.headers[0]
	assert.Equal(t, "chat-secret", header.Get("X-Chat-Key"))
	assert.Equal(t, "Bearer tok", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, result.RequestID, header.Get("X-Request-Id"))

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, int64(1234), result.Usage.TotalTokenCount)
	assert.Equal(t, []domain.UsageRecord{result.Usage}, wallet.snapshot())
}

func TestDispatcherWithoutSchemaSendsIdentityFields(t *testing.T) {
	t.Parallel()

	captured := &capturedRequest{}
	server := chatServer(t, http.StatusOK, `{}`, captured)
	dispatcher := NewDispatcher(server.Client(), nil, nil, testPolicy(), nil)

	_, err := dispatcher.Dispatch(context.Background(), chatAgent(server.URL, nil), "user-1", "")
	require.NoError(t, err)

	want := map[string]any{"message": "/train", "userId": "user-1", "user_id": "user-1"}
	if diff := cmp.Diff(want, captured.bodies[0]); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherUsageResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		response      string
		wantTotal     int64
		wantEstimated bool
	}{
		{name: "prompt plus candidates", response: `{"usageMetadata":{"promptTokenCount":100,"candidatesTokenCount":50}}`, wantTotal: 150},
		{name: "openai snake case", response: `{"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":12}}`, wantTotal: 12},
		{name: "nested under response", response: `{"response":{"usageMetadata":{"totalTokenCount":42}}}`, wantTotal: 42},
		{name: "zero usage", response: `{"usageMetadata":{"totalTokenCount":0}}`, wantTotal: domain.DefaultFallbackTokens, wantEstimated: true},
		{name: "non json body", response: `ok`, wantTotal: domain.DefaultFallbackTokens, wantEstimated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := chatServer(t, http.StatusOK, tt.response, &capturedRequest{})
			wallet := &recordingWallet{}
			dispatcher := NewDispatcher(server.Client(), nil, wallet, testPolicy(), nil)

			result, err := dispatcher.Dispatch(context.Background(), chatAgent(server.URL, nil), "user-1", "")
			require.NoError(t, err)
			dispatcher.Wait()

			assert.Equal(t, tt.wantTotal, result.Usage.TotalTokenCount)
			assert.Equal(t, tt.wantEstimated, result.Usage.Estimated)
			records := wallet.snapshot()
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantTotal, records[0].TotalTokenCount)
			assert.Equal(t, domain.AgentID("agent-1"), records[0].AgentID)
		})
	}
}

func TestDispatcherFailureSkipsWallet(t *testing.T) {
	t.Parallel()

	server := chatServer(t, http.StatusInternalServerError, `{"error":"boom"}`, &capturedRequest{})
	wallet := mocks.NewMockWallet(t)
	dispatcher := NewDispatcher(server.Client(), nil, wallet, testPolicy(), nil)

	result, err := dispatcher.Dispatch(context.Background(), chatAgent(server.URL, nil), "user-1", "")
	dispatcher.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDispatch)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	wallet.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcherWalletFailureIsLoggedNotReturned(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	server := chatServer(t, http.StatusOK, `{"usageMetadata":{"totalTokenCount":10}}`, &capturedRequest{})
	wallet := mocks.NewMockWallet(t)
	wallet.EXPECT().RecordUsage(mock.Anything, "user-1", mock.AnythingOfType("domain.UsageRecord")).Return(assert.AnError).Once()
	dispatcher := NewDispatcher(server.Client(), nil, wallet, testPolicy(), zap.New(core))

	_, err := dispatcher.Dispatch(context.Background(), chatAgent(server.URL, nil), "user-1", "")
	require.NoError(t, err)
	dispatcher.Wait()

	entries := logs.FilterMessage("record training usage failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "agent-1", entries[0].ContextMap()["agent_id"])
}

func TestDispatcherWalletOutlivesCallerContext(t *testing.T) {
	t.Parallel()

	server := chatServer(t, http.StatusOK, `{}`, &capturedRequest{})
	release := make(chan struct{})
	var walletCtxErr error
	wallet := mocks.NewMockWallet(t)
	wallet.EXPECT().RecordUsage(mock.Anything, "user-1", mock.Anything).RunAndReturn(func(ctx context.Context, _ string, _ domain.UsageRecord) error {
		<-release
		walletCtxErr = ctx.Err()
		return nil
	}).Once()
	dispatcher := NewDispatcher(server.Client(), nil, wallet, testPolicy(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := dispatcher.Dispatch(ctx, chatAgent(server.URL, nil), "user-1", "")
	require.NoError(t, err)

	cancel()
	close(release)
	dispatcher.Wait()

	assert.NoError(t, walletCtxErr)
}
