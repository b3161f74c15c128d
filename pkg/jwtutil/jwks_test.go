package jwtutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeySet(t *testing.T) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := jwksDocument{Keys: []jwk{{
		Kty: "RSA",
		Kid: "test-key",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(server.Close)

	return key, server
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid, subject string, ttl time.Duration) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestKeySetValidate(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL})

	token := signRS256(t, key, "test-key", "user@example.com", time.Hour)

	subject, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestKeySetValidateExpired(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL})

	token := signRS256(t, key, "test-key", "user@example.com", -time.Minute)

	_, err := v.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestKeySetValidateUnknownKid(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL})

	token := signRS256(t, key, "other-key", "user@example.com", time.Hour)

	_, err := v.Validate(context.Background(), token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestKeySetProviderUnavailable(t *testing.T) {
	key, server := newTestKeySet(t)
	server.Close()

	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL})
	token := signRS256(t, key, "test-key", "user@example.com", time.Hour)

	_, err := v.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestKeySetCachesAcrossFetchFailure(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL, CacheTTL: time.Hour})

	token := signRS256(t, key, "test-key", "user@example.com", time.Hour)

	_, err := v.Validate(context.Background(), token)
	require.NoError(t, err)

	// Cached keys keep serving after the endpoint goes away.
	server.Close()
	subject, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func signRS256Issued(t *testing.T, key *rsa.PrivateKey, kid, subject, issuer string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestKeySetIssuerMatch(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL, Issuer: "https://expected.example.com"})

	token := signRS256Issued(t, key, "test-key", "user@example.com", "https://expected.example.com")

	subject, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestKeySetIssuerMismatch(t *testing.T) {
	key, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL, Issuer: "https://expected.example.com"})

	// Wrong issuer and absent issuer are both rejected.
	forged := signRS256Issued(t, key, "test-key", "user@example.com", "https://other.example.com")
	_, err := v.Validate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	missing := signRS256(t, key, "test-key", "user@example.com", time.Hour)
	_, err = v.Validate(context.Background(), missing)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestRejectsHS256(t *testing.T) {
	_, server := newTestKeySet(t)
	v := NewKeySetValidator(KeySetConfig{JWKSURL: server.URL})

	hs := NewTokenService("shared-secret")
	token, err := hs.Issue("user@example.com", time.Hour)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), token)
	assert.Error(t, err)
}
