package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tokens is the OAuth bundle kept in the secret store.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

func DecodeTokens(secretValue string) (Tokens, error) {
	var tokens Tokens
	if err := json.Unmarshal([]byte(secretValue), &tokens); err != nil {
		return Tokens{}, fmt.Errorf("decode oauth tokens: %w", err)
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return Tokens{}, errors.New("oauth tokens missing access_token")
	}
	return tokens, nil
}

func EncodeTokens(tokens Tokens) (string, error) {
	payload, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("encode oauth tokens: %w", err)
	}
	return string(payload), nil
}

func TokensFromResponse(resp TokenResponse, now time.Time) Tokens {
	return Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IDToken:      resp.IDToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
	}.WithCalculatedExpiry(now)
}

func (t Tokens) WithCalculatedExpiry(now time.Time) Tokens {
	if t.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
	}
	return t
}

// ExpiryTime prefers the stored expiry and falls back to the access token's
// exp claim. ok is false when neither is known.
func (t Tokens) ExpiryTime() (time.Time, bool) {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0), true
	}
	if exp := ParseClaims(t.AccessToken).ExpiresAt; exp > 0 {
		return time.Unix(exp, 0), true
	}
	return time.Time{}, false
}

func (t Tokens) ExpiringSoon(now time.Time, skew time.Duration) bool {
	expiresAt, ok := t.ExpiryTime()
	if !ok {
		return false
	}
	return !expiresAt.After(now.Add(skew))
}

func (t Tokens) Expired(now time.Time) bool {
	return t.ExpiringSoon(now, 0)
}

// merge applies a refresh response; the issuer may omit the refresh and id
// tokens when they did not rotate.
func (t Tokens) merge(resp TokenResponse, now time.Time) Tokens {
	next := TokensFromResponse(resp, now)
	if next.RefreshToken == "" {
		next.RefreshToken = t.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = t.IDToken
	}
	if next.TokenType == "" {
		next.TokenType = t.TokenType
	}
	return next
}

type Claims struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
}

// ParseClaims reads the payload segment of a JWT without verifying it.
// Malformed tokens yield empty claims.
func ParseClaims(token string) Claims {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return Claims{}
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}
	}

	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return Claims{}
	}

	return claims
}
