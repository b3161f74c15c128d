package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMinted(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestIDMiddleware(func(c echo.Context) error {
		assert.NotEmpty(t, RequestID(c))
		return nil
	})

	require.NoError(t, handler(c))
	assert.NotEmpty(t, rec.Header().Get(RequestIDKey))
}

func TestRequestIDPropagated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "caller-supplied-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestIDMiddleware(func(c echo.Context) error {
		assert.Equal(t, "caller-supplied-id", RequestID(c))
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "caller-supplied-id", rec.Header().Get(RequestIDKey))
}
