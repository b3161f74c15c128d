// Package authn abstracts how an inbound request proves an identity. The
// built-in verifier validates tokens this service issued; alternative
// verifiers delegate validation to an external identity provider. Exactly
// one verifier is active per process, chosen by configuration at startup.
package authn

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"identity-service/internal/apperr"
)

// Claim is the result of a successful verification: the identity the token
// asserts. The subject is the user's email; whether that email maps to a
// live, active account is the caller's concern, not the verifier's.
type Claim struct {
	Subject string
}

// IdentityVerifier authenticates an inbound HTTP request.
type IdentityVerifier interface {
	// Name is the stable identifier the provider is registered and
	// selected under.
	Name() string
	// Verify extracts and validates the request's credentials, returning
	// the asserted identity.
	Verify(ctx context.Context, r *http.Request) (*Claim, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]IdentityVerifier)
)

// Register adds a verifier to the registry. Registering two verifiers under
// the same name is a programming error and panics at startup.
func Register(v IdentityVerifier) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[v.Name()]; dup {
		panic(fmt.Sprintf("authn: verifier %q registered twice", v.Name()))
	}
	registry[v.Name()] = v
}

// Lookup returns the verifier registered under name.
func Lookup(name string) (IdentityVerifier, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	v, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("authn: unknown auth provider %q", name)
	}
	return v, nil
}

// BearerToken extracts the compact token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.ErrMissingToken
	}
	return parts[1], nil
}
