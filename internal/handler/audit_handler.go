package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"identity-service/internal/audit"
	"identity-service/internal/middleware"
)

// AuditHandler exposes the tenant's private audit trail.
type AuditHandler struct{}

// NewAuditHandler wires the audit endpoint.
func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

// List returns the resolved tenant's audit events, newest first. Admin tier
// required; events from other tenants are unreachable because the query runs
// inside the tenant's schema-scoped session.
func (h *AuditHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := audit.List(middleware.TenantSession(c), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant": middleware.ResolvedTenant(c).Slug,
		"events": events,
	})
}
