package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/middleware"
	"identity-service/internal/model"
)

// UserHandler owns the per-tenant user views.
type UserHandler struct {
	db *multitenancy.DB
}

// NewUserHandler wires the user endpoints.
func NewUserHandler(db *multitenancy.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns every member of the resolved tenant with their role. Owner
// tier required.
func (h *UserHandler) List(c echo.Context) error {
	resolved := middleware.ResolvedTenant(c)

	var memberships []model.UserTenant
	err := h.db.WithContext(c.Request().Context()).
		Preload("User").
		Where("tenant_id = ?", resolved.ID).
		Order("id").
		Find(&memberships).Error
	if err != nil {
		return err
	}

	members := make([]echo.Map, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, echo.Map{
			"user": m.User,
			"role": m.Role,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant":  resolved.Slug,
		"members": members,
	})
}

// Me returns the caller's account and their role in the resolved tenant.
func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	resolved := middleware.ResolvedTenant(c)

	role := user.TenantRole(resolved.ID)
	if role == "" && user.IsSuperuser {
		role = "superuser"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":   user,
		"tenant": resolved.Slug,
		"role":   role,
	})
}
