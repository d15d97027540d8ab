package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var providerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func encodedTokens(t *testing.T, tokens Tokens) string {
	t.Helper()

	encoded, err := EncodeTokens(tokens)
	require.NoError(t, err)
	return encoded
}

func TestProviderUserIDPrefersOverrideThenIDToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stored := encodedTokens(t, Tokens{
		AccessToken: testJWT(t, map[string]any{"sub": "access-sub"}),
		IDToken:     testJWT(t, map[string]any{"sub": "id-sub"}),
	})

	override := NewProvider(mocks.NewMockSecretStore(t), nil, nil, ProviderConfig{UserID: " user-override "}, nil)
	userID, err := override.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-override", userID)

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).Return(stored, nil).Once()
	userID, err = NewProvider(store, nil, nil, ProviderConfig{}, nil).UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-sub", userID)
}

func TestProviderUserIDFallsBackToAccessTokenSubject(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).
		Return(encodedTokens(t, Tokens{AccessToken: testJWT(t, map[string]any{"sub": "access-sub"})}), nil).Once()

	userID, err := NewProvider(store, nil, nil, ProviderConfig{}, nil).UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-sub", userID)
}

func TestProviderWithoutTokensIsUnavailable(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).Return("", domain.ErrSecretNotFound).Twice()
	provider := NewProvider(store, nil, nil, ProviderConfig{}, nil)

	_, err := provider.UserID(context.Background())
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)

	_, err = provider.BearerToken(context.Background())
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)
}

func TestProviderReturnsFreshTokenWithoutRefresh(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).
		Return(encodedTokens(t, Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: providerNow.Add(time.Hour).Unix()}), nil).Once()

	bearer, err := NewProvider(store, nil, fixedClock{now: providerNow}, ProviderConfig{}, nil).BearerToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at", bearer)
}

func TestProviderRefreshesExpiringTokenAndPersists(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "rt", r.Form.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"access_token":"at2","expires_in":3600}`))
	}))
	defer issuer.Close()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).
		Return(encodedTokens(t, Tokens{AccessToken: "at", RefreshToken: "rt", IDToken: "it", ExpiresAt: providerNow.Add(time.Minute).Unix()}), nil).Once()
	store.EXPECT().Put(mock.Anything, TokensSecretKey, mock.Anything).RunAndReturn(func(_ context.Context, _ string, value string) error {
		saved, err := DecodeTokens(value)
		require.NoError(t, err)
		assert.Equal(t, "at2", saved.AccessToken)
		assert.Equal(t, "rt", saved.RefreshToken)
		assert.Equal(t, "it", saved.IDToken)
		assert.Equal(t, providerNow.Add(time.Hour).Unix(), saved.ExpiresAt)
		return nil
	}).Once()

	provider := NewProvider(store, issuer.Client(), fixedClock{now: providerNow}, ProviderConfig{Issuer: issuer.URL, ClientID: "client-123"}, nil)

	bearer, err := provider.BearerToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at2", bearer)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProviderKeepsValidTokenWhenRefreshFails(t *testing.T) {
	t.Parallel()

	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer issuer.Close()

	core, logs := observer.New(zap.WarnLevel)
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).
		Return(encodedTokens(t, Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: providerNow.Add(time.Minute).Unix()}), nil).Once()

	provider := NewProvider(store, issuer.Client(), fixedClock{now: providerNow}, ProviderConfig{Issuer: issuer.URL, ClientID: "client-123"}, zap.New(core))

	bearer, err := provider.BearerToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at", bearer)
	assert.Equal(t, 1, logs.FilterMessage("refresh access token failed").Len())
}

func TestProviderExpiredTokenWithoutRefreshIsUnavailable(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, TokensSecretKey).
		Return(encodedTokens(t, Tokens{AccessToken: "at", ExpiresAt: providerNow.Add(-time.Minute).Unix()}), nil).Once()

	_, err := NewProvider(store, nil, fixedClock{now: providerNow}, ProviderConfig{}, nil).BearerToken(context.Background())
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)
}

func TestProviderRemoveIgnoresMissingSecret(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Delete(mock.Anything, TokensSecretKey).Return(domain.ErrSecretNotFound).Once()

	require.NoError(t, NewProvider(store, nil, nil, ProviderConfig{}, nil).Remove(context.Background()))
}
