package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (int, envelope) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(err, c)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestHandlerRendersTypedError(t *testing.T) {
	status, env := render(t, ErrTenantNotFound)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "TENANT_NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Tenant not found. Please, contact admin", env.Error.Message)
}

func TestHandlerRendersWrappedError(t *testing.T) {
	status, env := render(t, ErrProviderUnavailable.Wrap(errors.New("dial tcp: connection refused")))

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "IDENTITY_PROVIDER_UNAVAILABLE", env.Error.Code)
	// The cause never reaches the client.
	assert.NotContains(t, env.Error.Message, "dial tcp")
}

func TestHandlerHidesInternalErrors(t *testing.T) {
	status, env := render(t, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq:")
}

func TestHandlerPassesEchoErrors(t *testing.T) {
	status, env := render(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"))

	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "HTTP_ERROR", env.Error.Code)
}
