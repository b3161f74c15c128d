package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"identity-service/pkg/logger"
)

// envelope is the stable JSON error body: {"error": {"code", "message"}}.
type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error as the JSON envelope. Typed errors
// keep their code and status; anything else becomes a generic 500 so that
// internals never leak to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := logger.FromContext(c)

	if appErr := FromError(err); appErr != nil {
		if appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("code", appErr.Code), zap.Error(err))
		} else {
			log.Warn("request rejected", zap.String("code", appErr.Code), zap.Error(err))
		}
		_ = c.JSON(appErr.Status, envelope{Error: body{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	// Echo's own errors (404 route, method not allowed, bind failures).
	if httpErr, ok := err.(*echo.HTTPError); ok {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		_ = c.JSON(httpErr.Code, envelope{Error: body{Code: "HTTP_ERROR", Message: msg}})
		return
	}

	log.Error("unexpected error", zap.Error(err))
	_ = c.JSON(http.StatusInternalServerError, envelope{
		Error: body{Code: "INTERNAL_SERVER_ERROR", Message: "internal server error"},
	})
}
