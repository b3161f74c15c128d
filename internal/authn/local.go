package authn

import (
	"context"
	"errors"
	"net/http"

	"identity-service/internal/apperr"
	"identity-service/pkg/jwtutil"
)

// ProviderLocal validates tokens this service issued itself.
const ProviderLocal = "local"

// LocalVerifier checks bearer tokens against the service's own HS256
// signing key.
type LocalVerifier struct {
	tokens *jwtutil.TokenService
}

// NewLocalVerifier creates the built-in verifier.
func NewLocalVerifier(tokens *jwtutil.TokenService) *LocalVerifier {
	return &LocalVerifier{tokens: tokens}
}

func (v *LocalVerifier) Name() string { return ProviderLocal }

func (v *LocalVerifier) Verify(_ context.Context, r *http.Request) (*Claim, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	subject, err := v.tokens.Validate(token)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return &Claim{Subject: subject}, nil
}

// mapTokenError folds jwtutil's typed errors into the domain error set.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwtutil.ErrTokenExpired):
		return apperr.ErrTokenExpired.Wrap(err)
	case errors.Is(err, jwtutil.ErrSignatureInvalid):
		return apperr.ErrSignatureInvalid.Wrap(err)
	case errors.Is(err, jwtutil.ErrProviderUnavailable):
		return apperr.ErrProviderUnavailable.Wrap(err)
	default:
		return apperr.ErrTokenMalformed.Wrap(err)
	}
}
