package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewTokenService("test-signing-key")

	token, err := svc.Issue("user@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)
}

func TestValidateExpired(t *testing.T) {
	svc := NewTokenService("test-signing-key")

	token, err := svc.Issue("user@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongKey(t *testing.T) {
	issuer := NewTokenService("key-one")
	validator := NewTokenService("key-two")

	token, err := issuer.Issue("user@example.com", time.Hour)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestValidateMalformed(t *testing.T) {
	svc := NewTokenService("test-signing-key")

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = svc.Validate("")
	assert.Error(t, err)
}
