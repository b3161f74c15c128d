package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/authn"
	"identity-service/internal/model"
	"identity-service/pkg/logger"
	"identity-service/prometheus"
)

const userContextKey = "current_user"

// Authenticator turns a verified token subject into a loaded user. The
// configured verifier decides how the token is validated; the account lookup
// and activity check are the same for every provider.
type Authenticator struct {
	verifier authn.IdentityVerifier
	db       *multitenancy.DB
}

// NewAuthenticator creates the authentication middleware around the active
// identity verifier.
func NewAuthenticator(verifier authn.IdentityVerifier, db *multitenancy.DB) *Authenticator {
	return &Authenticator{verifier: verifier, db: db}
}

// Middleware validates the request's credentials and loads the account with
// its memberships into the request context.
func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		claim, err := a.verifier.Verify(c.Request().Context(), c.Request())
		if err != nil {
			log.Warn("Authentication failed", zap.Error(err))
			prometheus.RecordAuthError(authErrorReason(err))
			return err
		}

		var user model.AppUser
		err = a.db.WithContext(c.Request().Context()).
			Preload("Memberships").
			Where("email = ?", claim.Subject).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A valid token for an unknown subject: the account was removed
			// or the external provider asserts an identity we never saw.
			log.Warn("Token subject has no account", zap.String("subject", claim.Subject))
			prometheus.RecordAuthError("unknown_subject")
			return apperr.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if !user.IsActive {
			prometheus.RecordAuthError("inactive_account")
			return apperr.ErrAccountInactive
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}

// CurrentUser returns the authenticated user set by the Authenticator, or
// nil on unauthenticated routes.
func CurrentUser(c echo.Context) *model.AppUser {
	if u, ok := c.Get(userContextKey).(*model.AppUser); ok {
		return u
	}
	return nil
}

func authErrorReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, apperr.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, apperr.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, apperr.ErrProviderUnavailable):
		return "provider_unavailable"
	default:
		return "invalid_token"
	}
}
