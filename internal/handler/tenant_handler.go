package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/audit"
	"identity-service/internal/middleware"
	"identity-service/internal/model"
	"identity-service/internal/permission"
	"identity-service/internal/tenant"
	"identity-service/pkg/logger"
	"identity-service/prometheus"
)

// TenantHandler owns tenant administration and membership management.
type TenantHandler struct {
	db        *multitenancy.DB
	tenants   *tenant.Service
	evaluator *permission.Evaluator
}

// NewTenantHandler wires the tenant endpoints.
func NewTenantHandler(db *multitenancy.DB, tenants *tenant.Service, evaluator *permission.Evaluator) *TenantHandler {
	return &TenantHandler{db: db, tenants: tenants, evaluator: evaluator}
}

type tenantRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// List returns every tenant. Superuser only.
func (h *TenantHandler) List(c echo.Context) error {
	tenants, err := h.tenants.List(c.Request().Context())
	if err != nil {
		return err
	}

	prometheus.UpdateActiveTenants(len(tenants))
	return c.JSON(http.StatusOK, tenants)
}

// Create provisions a new tenant with the caller as owner. Any authenticated
// user may create a tenant.
func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	created, err := h.tenants.Create(c.Request().Context(), req.Name, req.Description, middleware.CurrentUser(c))
	if err != nil {
		return err
	}

	prometheus.RecordTenantOperation("create")
	return c.JSON(http.StatusCreated, created)
}

// Get returns one tenant by id. Requires membership in that tenant.
func (h *TenantHandler) Get(c echo.Context) error {
	t, err := h.loadWithTier(c, model.RoleMember)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Update renames or re-describes a tenant. Owner only. A rename regenerates
// the slug and renames the private schema.
func (h *TenantHandler) Update(c echo.Context) error {
	t, err := h.loadWithTier(c, model.RoleOwner)
	if err != nil {
		return err
	}

	var req tenantRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	updated, err := h.tenants.Update(c.Request().Context(), t.ID, req.Name, req.Description)
	if err != nil {
		return err
	}

	prometheus.RecordTenantOperation("update")
	logger.FromContext(c).Info("Tenant updated",
		zap.Uint("id", updated.ID),
		zap.String("slug", updated.Slug))
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a tenant and drops its schema. Owner only.
func (h *TenantHandler) Delete(c echo.Context) error {
	t, err := h.loadWithTier(c, model.RoleOwner)
	if err != nil {
		return err
	}

	if err := h.tenants.Delete(c.Request().Context(), t.ID); err != nil {
		return err
	}

	prometheus.RecordTenantOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant deleted"})
}

// AddMember grants a role to an existing user in the resolved tenant.
// Manager tier required; granting ownership is not possible here.
func (h *TenantHandler) AddMember(c echo.Context) error {
	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Role == model.RoleOwner {
		return apperr.BadRequest("ownership cannot be granted through membership")
	}

	ctx := c.Request().Context()

	var user model.AppUser
	err := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	resolved := middleware.ResolvedTenant(c)
	membership, err := h.tenants.AddMember(ctx, resolved, &user, req.Role)
	if err != nil {
		return err
	}

	actor := middleware.CurrentUser(c).Email
	if err := audit.Record(middleware.TenantSession(c), actor, "member_added", user.Email+" as "+string(membership.Role)); err != nil {
		return err
	}

	prometheus.RecordTenantOperation("add_member")
	return c.JSON(http.StatusCreated, membership)
}

// RemoveMember revokes a user's membership in the resolved tenant. Manager
// tier required; the owner cannot be removed.
func (h *TenantHandler) RemoveMember(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return apperr.BadRequest("invalid user id")
	}

	resolved := middleware.ResolvedTenant(c)
	if err := h.tenants.RemoveMember(c.Request().Context(), resolved, uint(userID)); err != nil {
		return err
	}

	actor := middleware.CurrentUser(c).Email
	detail := "user " + strconv.FormatUint(userID, 10) + " removed"
	if err := audit.Record(middleware.TenantSession(c), actor, "member_removed", detail); err != nil {
		return err
	}

	prometheus.RecordTenantOperation("remove_member")
	return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}

// loadWithTier fetches the tenant addressed by the :id parameter and checks
// the caller holds the required tier in it. These routes address tenants by
// id rather than by slug, so the tier check cannot ride the route-level
// middleware.
func (h *TenantHandler) loadWithTier(c echo.Context, required model.Role) (*model.Tenant, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, apperr.BadRequest("invalid tenant id")
	}

	t, err := h.tenants.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		return nil, err
	}

	if err := h.evaluator.Evaluate(middleware.CurrentUser(c), t, required); err != nil {
		return nil, err
	}
	return t, nil
}
