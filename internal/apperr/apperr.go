// Package apperr defines the typed domain errors of the service and their
// mapping onto the stable JSON error envelope returned at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a deliberate, typed domain error. Every error reaching the HTTP
// boundary either is one of these or is surfaced as a generic 500.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match any wrapped copy against its sentinel by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause for logging; the envelope that
// reaches the client stays unchanged.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, cause: cause}
}

// New creates a typed error. Intended for package-level sentinels.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// Credential errors (401).
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized)
	ErrAccountLocked      = New("ACCOUNT_LOCKED", "account locked after too many failed login attempts", http.StatusUnauthorized)
	ErrAccountInactive    = New("ACCOUNT_INACTIVE", "account is inactive", http.StatusUnauthorized)
)

// Token errors (401, provider outage 503).
var (
	ErrTokenExpired        = New("TOKEN_EXPIRED", "token has expired", http.StatusUnauthorized)
	ErrTokenMalformed      = New("TOKEN_MALFORMED", "token is malformed", http.StatusUnauthorized)
	ErrSignatureInvalid    = New("SIGNATURE_INVALID", "token signature is invalid", http.StatusUnauthorized)
	ErrMissingToken        = New("MISSING_TOKEN", "missing authorization token", http.StatusUnauthorized)
	ErrProviderUnavailable = New("IDENTITY_PROVIDER_UNAVAILABLE", "identity provider is unavailable", http.StatusServiceUnavailable)
)

// Resolution errors (404).
var (
	ErrTenantNotFound       = New("TENANT_NOT_FOUND", "Tenant not found. Please, contact admin", http.StatusNotFound)
	ErrSchemaNotProvisioned = New("SCHEMA_NOT_PROVISIONED", "Tenant schema is not provisioned. Please, contact admin", http.StatusNotFound)
	ErrUserNotFound         = New("USER_NOT_FOUND", "User not found. Please, contact admin", http.StatusNotFound)
)

// Conflict and validation errors (400).
var (
	ErrDuplicateEmail     = New("DUPLICATE_EMAIL", "email already registered", http.StatusBadRequest)
	ErrDuplicateTenant    = New("DUPLICATE_TENANT", "Tenant with this name already exists", http.StatusBadRequest)
	ErrInvalidRequest     = New("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrOwnerNotRemovable  = New("OWNER_NOT_REMOVABLE", "cannot remove tenant owner", http.StatusForbidden)
	ErrMembershipNotFound = New("MEMBERSHIP_NOT_FOUND", "user is not a member of this tenant", http.StatusNotFound)
)

// Denied builds the 403 authorization error naming the deficient tier.
func Denied(requiredTier string) *Error {
	return &Error{
		Code:    "PERMISSION_DENIED",
		Message: fmt.Sprintf("Your user doesn't have the required %q role for this tenant. Please, contact admin", requiredTier),
		Status:  http.StatusForbidden,
	}
}

// BadRequest builds a 400 with a request-specific message. It shares
// ErrInvalidRequest's code, so errors.Is matches it against the sentinel.
func BadRequest(message string) *Error {
	return &Error{Code: ErrInvalidRequest.Code, Message: message, Status: ErrInvalidRequest.Status}
}

// FromError extracts the typed error, or nil for unexpected internal errors.
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
