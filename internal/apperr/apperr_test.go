package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := ErrProviderUnavailable.Wrap(cause)

	assert.True(t, errors.Is(wrapped, ErrProviderUnavailable))
	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.Contains(t, wrapped.Error(), "connection refused")

	// The client-facing fields stay untouched.
	assert.Equal(t, ErrProviderUnavailable.Message, wrapped.Message)
	assert.Equal(t, ErrProviderUnavailable.Status, wrapped.Status)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(errors.New("plain")))

	appErr := FromError(fmt.Errorf("context: %w", ErrTenantNotFound))
	require.NotNil(t, appErr)
	assert.Equal(t, "TENANT_NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestDeniedNamesTier(t *testing.T) {
	err := Denied("manager")

	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.Equal(t, "PERMISSION_DENIED", err.Code)
	assert.Contains(t, err.Message, `"manager"`)
}

func TestBadRequestMatchesSentinel(t *testing.T) {
	err := BadRequest("name is required")

	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "name is required", err.Message)
}

func TestStatusTaxonomy(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.Status)
	assert.Equal(t, http.StatusUnauthorized, ErrAccountLocked.Status)
	assert.Equal(t, http.StatusUnauthorized, ErrTokenExpired.Status)
	assert.Equal(t, http.StatusServiceUnavailable, ErrProviderUnavailable.Status)
	assert.Equal(t, http.StatusNotFound, ErrTenantNotFound.Status)
	assert.Equal(t, http.StatusNotFound, ErrSchemaNotProvisioned.Status)
	assert.Equal(t, http.StatusBadRequest, ErrDuplicateTenant.Status)
	assert.Equal(t, http.StatusForbidden, ErrOwnerNotRemovable.Status)
}
