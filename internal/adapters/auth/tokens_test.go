package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT(t *testing.T, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestParseClaims(t *testing.T) {
	t.Parallel()

	token := testJWT(t, map[string]any{"sub": "user-1", "email": "a@example.com", "exp": 1700000000})
	claims := ParseClaims(token)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, int64(1700000000), claims.ExpiresAt)

	assert.Equal(t, Claims{}, ParseClaims("opaque-token"))
	assert.Equal(t, Claims{}, ParseClaims("a.!!!.c"))
}

func TestDecodeTokensRequiresAccessToken(t *testing.T) {
	t.Parallel()

	_, err := DecodeTokens(`{"refresh_token":"rt"}`)
	require.Error(t, err)

	_, err = DecodeTokens(`not json`)
	require.Error(t, err)

	encoded, err := EncodeTokens(Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 10})
	require.NoError(t, err)
	decoded, err := DecodeTokens(encoded)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 10}, decoded)
}

func TestTokensExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		tokens       Tokens
		wantSoon     bool
		wantExpired  bool
		wantKnownExp bool
	}{
		{name: "no expiry known", tokens: Tokens{AccessToken: "opaque"}},
		{name: "far future", tokens: Tokens{ExpiresAt: now.Add(time.Hour).Unix()}, wantKnownExp: true},
		{name: "inside skew", tokens: Tokens{ExpiresAt: now.Add(time.Minute).Unix()}, wantSoon: true, wantKnownExp: true},
		{name: "already expired", tokens: Tokens{ExpiresAt: now.Add(-time.Minute).Unix()}, wantSoon: true, wantExpired: true, wantKnownExp: true},
		{
			name:         "exp claim fallback",
			tokens:       Tokens{AccessToken: testJWT(t, map[string]any{"exp": now.Add(30 * time.Second).Unix()})},
			wantSoon:     true,
			wantKnownExp: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, known := tt.tokens.ExpiryTime()
			assert.Equal(t, tt.wantKnownExp, known)
			assert.Equal(t, tt.wantSoon, tt.tokens.ExpiringSoon(now, 2*time.Minute))
			assert.Equal(t, tt.wantExpired, tt.tokens.Expired(now))
		})
	}
}

func TestTokensMergeKeepsUnrotatedFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := Tokens{AccessToken: "old", RefreshToken: "rt", IDToken: "it", TokenType: "Bearer"}

	next := current.merge(TokenResponse{AccessToken: "new", ExpiresIn: 60}, now)
	assert.Equal(t, Tokens{
		AccessToken:  "new",
		RefreshToken: "rt",
		IDToken:      "it",
		TokenType:    "Bearer",
		ExpiresIn:    60,
		ExpiresAt:    now.Add(time.Minute).Unix(),
	}, next)
}
