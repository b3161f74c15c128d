package authn

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/apperr"
	"identity-service/pkg/jwtutil"
)

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := BearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestBearerTokenRejects(t *testing.T) {
	cases := []string{
		"",
		"abc.def.ghi",
		"Basic dXNlcjpwYXNz",
		"Bearer ",
	}

	for _, header := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}

		_, err := BearerToken(r)
		assert.ErrorIs(t, err, apperr.ErrMissingToken, "header %q", header)
	}
}

func TestLocalVerifier(t *testing.T) {
	tokens := jwtutil.NewTokenService("test-key")
	v := NewLocalVerifier(tokens)
	assert.Equal(t, ProviderLocal, v.Name())

	token, err := tokens.Issue("user@example.com", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	claim, err := v.Verify(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claim.Subject)
}

func TestLocalVerifierMapsErrors(t *testing.T) {
	tokens := jwtutil.NewTokenService("test-key")
	v := NewLocalVerifier(tokens)

	expired, err := tokens.Issue("user@example.com", -time.Minute)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+expired)
	_, err = v.Verify(context.Background(), r)
	assert.True(t, errors.Is(err, apperr.ErrTokenExpired))

	other := jwtutil.NewTokenService("other-key")
	forged, err := other.Issue("user@example.com", time.Hour)
	require.NoError(t, err)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+forged)
	_, err = v.Verify(context.Background(), r)
	assert.True(t, errors.Is(err, apperr.ErrSignatureInvalid))
}

func TestRegistry(t *testing.T) {
	tokens := jwtutil.NewTokenService("test-key")
	Register(NewLocalVerifier(tokens))

	v, err := Lookup(ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, v.Name())

	_, err = Lookup("saml")
	assert.Error(t, err)

	assert.Panics(t, func() {
		Register(NewLocalVerifier(tokens))
	})
}
