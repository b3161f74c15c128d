package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"identity-service/internal/model"
	"identity-service/internal/permission"
	"identity-service/internal/tenant"
	"identity-service/pkg/database"
	"identity-service/pkg/logger"
)

const (
	tenantContextKey  = "current_tenant"
	sessionContextKey = "tenant_session"
)

// TenantContext resolves the tenant named in the route and opens the
// request's schema-scoped session around the downstream handler.
type TenantContext struct {
	resolver *tenant.Resolver
	sessions *database.SessionProvider
}

// NewTenantContext creates the tenancy middleware pair.
func NewTenantContext(resolver *tenant.Resolver, sessions *database.SessionProvider) *TenantContext {
	return &TenantContext{resolver: resolver, sessions: sessions}
}

// Resolve maps the :tenant path parameter to a tenant record. An unknown
// slug fails the request before any credential work happens.
func (t *TenantContext) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		resolved, err := t.resolver.Resolve(c.Request().Context(), c.Param("tenant"))
		if err != nil {
			logger.FromContext(c).Warn("Tenant resolution failed",
				zap.String("slug", c.Param("tenant")),
				zap.Error(err))
			return err
		}

		c.Set(tenantContextKey, resolved)
		return next(c)
	}
}

// Session wraps the handler in a transaction pinned to the resolved tenant's
// schema. The transaction commits only when the handler succeeds; any
// returned error rolls back every tenant-scoped write the handler made.
func (t *TenantContext) Session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		resolved := ResolvedTenant(c)

		return t.sessions.WithTenant(c.Request().Context(), resolved, RequestID(c), func(s *database.Session) error {
			c.Set(sessionContextKey, s)
			return next(c)
		})
	}
}

// ResolvedTenant returns the tenant resolved for this request, or nil.
func ResolvedTenant(c echo.Context) *model.Tenant {
	if t, ok := c.Get(tenantContextKey).(*model.Tenant); ok {
		return t
	}
	return nil
}

// TenantSession returns the request's schema-scoped session, or nil outside
// a Session-wrapped route.
func TenantSession(c echo.Context) *database.Session {
	if s, ok := c.Get(sessionContextKey).(*database.Session); ok {
		return s
	}
	return nil
}

// RequireTier guards a route behind a minimum role tier in the resolved
// tenant. Superusers pass unconditionally.
func RequireTier(evaluator *permission.Evaluator, required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := evaluator.Evaluate(CurrentUser(c), ResolvedTenant(c), required); err != nil {
				logger.FromContext(c).Warn("Permission denied",
					zap.String("required", string(required)),
					zap.Error(err))
				return err
			}
			return next(c)
		}
	}
}

// RequireSuperuser guards a route that has no tenant scope at all.
func RequireSuperuser(evaluator *permission.Evaluator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := evaluator.Superuser(CurrentUser(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}
