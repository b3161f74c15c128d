// Package permission evaluates whether a user holds a required role tier
// within a tenant. Tiers form a strict dominance chain (owner > manager >
// admin > member): holding a higher tier always satisfies a check for a
// lower one. A superuser bypasses tenant roles entirely.
package permission

import (
	"identity-service/internal/apperr"
	"identity-service/internal/model"
)

// Evaluator is a pure decision component. It reads preloaded membership
// state and never touches the database.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate checks that user holds at least the required tier in tenant.
// Missing subjects are resolution failures, distinct from an authenticated
// member who simply lacks the tier.
func (e *Evaluator) Evaluate(user *model.AppUser, tenant *model.Tenant, required model.Role) error {
	if tenant == nil {
		return apperr.ErrTenantNotFound
	}
	if user == nil {
		return apperr.ErrUserNotFound
	}
	if user.IsSuperuser {
		return nil
	}

	role := user.TenantRole(tenant.ID)

	var ok bool
	switch required {
	case model.RoleOwner:
		ok = isOwner(role)
	case model.RoleManager:
		ok = isManager(role)
	case model.RoleAdmin:
		ok = isAdmin(role)
	case model.RoleMember:
		ok = isMember(role)
	}
	if !ok {
		return apperr.Denied(string(required))
	}
	return nil
}

// Superuser checks the global superuser flag, for operations outside any
// tenant scope.
func (e *Evaluator) Superuser(user *model.AppUser) error {
	if user == nil {
		return apperr.ErrUserNotFound
	}
	if !user.IsSuperuser {
		return apperr.Denied("superuser")
	}
	return nil
}

// Each predicate delegates to the strictly higher tiers first, so the
// dominance chain lives in the structure rather than in a numeric ranking.

func isOwner(role model.Role) bool {
	return role == model.RoleOwner
}

func isManager(role model.Role) bool {
	return isOwner(role) || role == model.RoleManager
}

func isAdmin(role model.Role) bool {
	return isManager(role) || role == model.RoleAdmin
}

func isMember(role model.Role) bool {
	return isAdmin(role) || role == model.RoleMember
}
