package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/audit"
	"identity-service/internal/middleware"
	"identity-service/internal/model"
	"identity-service/internal/tenant"
	"identity-service/pkg/jwtutil"
	"identity-service/pkg/logger"
	"identity-service/pkg/password"
	"identity-service/prometheus"
)

// AuthHandler owns login and registration.
type AuthHandler struct {
	db          *multitenancy.DB
	tenants     *tenant.Service
	tokens      *jwtutil.TokenService
	maxAttempts int
	tokenTTL    time.Duration
}

// NewAuthHandler wires the authentication endpoints.
func NewAuthHandler(db *multitenancy.DB, tenants *tenant.Service, tokens *jwtutil.TokenService, maxAttempts int, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		db:          db,
		tenants:     tenants,
		tokens:      tokens,
		maxAttempts: maxAttempts,
		tokenTTL:    tokenTTL,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
}

// Login verifies credentials and issues a token. Verification enforces the
// lockout policy; every failed attempt is counted, and the counter resets on
// success.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperr.BadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("invalid_request")
		return apperr.BadRequest("email and password are required")
	}

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.AppUser
	err := h.db.WithContext(ctx).Preload("Memberships").Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return apperr.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	ok := password.Verify(
		[]byte(req.Password), user.PasswordHash, user.Salt,
		user.FailedLoginAttempts, h.maxAttempts, user.IsActive,
	)
	if !ok {
		switch {
		case !user.IsActive:
			prometheus.RecordAuthError("inactive_account")
			return apperr.ErrAccountInactive
		case user.FailedLoginAttempts >= h.maxAttempts:
			prometheus.RecordAuthError("account_locked")
			return apperr.ErrAccountLocked
		default:
			// Counter writes go through the shared connection, so they
			// survive the tenant transaction rollback that follows.
			updateErr := h.db.WithContext(ctx).Model(&user).
				Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
			if updateErr != nil {
				log.Error("Failed to record login failure", zap.Error(updateErr))
			}
			prometheus.RecordAuthError("invalid_password")
			return apperr.ErrInvalidCredentials
		}
	}

	now := time.Now()
	err = h.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"last_login":            now,
	}).Error
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(user.Email, h.tokenTTL)
	if err != nil {
		log.Error("Failed to issue token", zap.Error(err))
		return err
	}

	// Credentials are tenant-global, so a login through another tenant's URL
	// still succeeds; its audit event only belongs in a tenant the user is
	// actually a member of.
	if memberOfTenant(&user, middleware.ResolvedTenant(c)) {
		if err := audit.Record(middleware.TenantSession(c), user.Email, "login", "successful login"); err != nil {
			return err
		}
	}

	log.Info("User logged in", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"token":      token,
		"token_type": "bearer",
		"expires_in": int(h.tokenTTL.Seconds()),
		"user":       user,
	})
}

// Register creates an account scoped to the resolved tenant. Self-registered
// users may request any role below owner; ownership is only granted through
// tenant creation.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.BadRequest("email and password are required")
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return apperr.BadRequest("unknown role")
	}
	if role == model.RoleOwner {
		return apperr.BadRequest("cannot register as owner")
	}

	resolved := middleware.ResolvedTenant(c)
	user, err := h.createUser(c, req.Email, req.Password)
	if err != nil {
		return err
	}

	if _, err := h.tenants.AddMember(c.Request().Context(), resolved, user, role); err != nil {
		return err
	}

	if err := audit.Record(middleware.TenantSession(c), user.Email, "register", "account created with role "+string(role)); err != nil {
		return err
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("tenant", resolved.Slug),
		zap.String("role", string(role)))
	return c.JSON(http.StatusCreated, user)
}

// RegisterDefault creates an account in the default tenant as a member. This
// is the unscoped registration endpoint.
func (h *AuthHandler) RegisterDefault(c echo.Context) error {
	prometheus.RegisterCounter.Inc()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.BadRequest("email and password are required")
	}

	ctx := c.Request().Context()
	defaultTenant, err := h.tenants.GetDefault(ctx)
	if err != nil {
		return err
	}

	user, err := h.createUser(c, req.Email, req.Password)
	if err != nil {
		return err
	}

	if _, err := h.tenants.AddMember(ctx, defaultTenant, user, model.RoleMember); err != nil {
		return err
	}

	logger.FromContext(c).Info("User registered in default tenant", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// memberOfTenant reports whether user belongs to t. Memberships must be
// preloaded. Superusers count as members everywhere.
func memberOfTenant(user *model.AppUser, t *model.Tenant) bool {
	if t == nil {
		return false
	}
	return user.IsSuperuser || user.TenantRole(t.ID) != ""
}

func (h *AuthHandler) createUser(c echo.Context, email, plain string) (*model.AppUser, error) {
	hash, salt, err := password.Hash([]byte(plain))
	if err != nil {
		return nil, err
	}

	user := &model.AppUser{
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		IsActive:     true,
	}

	err = h.db.WithContext(c.Request().Context()).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}
