package permission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/apperr"
	"identity-service/internal/model"
)

func userWithRole(tenantID uint, role model.Role) *model.AppUser {
	return &model.AppUser{
		ID: 1,
		Memberships: []model.UserTenant{
			{UserID: 1, TenantID: tenantID, Role: role},
		},
	}
}

func TestEvaluateDominance(t *testing.T) {
	e := NewEvaluator()
	tn := &model.Tenant{ID: 7}

	cases := []struct {
		held     model.Role
		required model.Role
		allowed  bool
	}{
		{model.RoleOwner, model.RoleOwner, true},
		{model.RoleOwner, model.RoleManager, true},
		{model.RoleOwner, model.RoleAdmin, true},
		{model.RoleOwner, model.RoleMember, true},

		{model.RoleManager, model.RoleOwner, false},
		{model.RoleManager, model.RoleManager, true},
		{model.RoleManager, model.RoleAdmin, true},
		{model.RoleManager, model.RoleMember, true},

		{model.RoleAdmin, model.RoleOwner, false},
		{model.RoleAdmin, model.RoleManager, false},
		{model.RoleAdmin, model.RoleAdmin, true},
		{model.RoleAdmin, model.RoleMember, true},

		{model.RoleMember, model.RoleOwner, false},
		{model.RoleMember, model.RoleManager, false},
		{model.RoleMember, model.RoleAdmin, false},
		{model.RoleMember, model.RoleMember, true},
	}

	for _, tc := range cases {
		err := e.Evaluate(userWithRole(tn.ID, tc.held), tn, tc.required)
		if tc.allowed {
			assert.NoError(t, err, "%s should satisfy %s", tc.held, tc.required)
		} else {
			assert.Error(t, err, "%s should not satisfy %s", tc.held, tc.required)
		}
	}
}

func TestEvaluateDeniedNamesTier(t *testing.T) {
	e := NewEvaluator()
	tn := &model.Tenant{ID: 7}

	err := e.Evaluate(userWithRole(tn.ID, model.RoleMember), tn, model.RoleManager)
	require.Error(t, err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "PERMISSION_DENIED", appErr.Code)
	assert.Contains(t, appErr.Message, "manager")
}

func TestEvaluateNoMembership(t *testing.T) {
	e := NewEvaluator()

	// Membership in tenant 7 grants nothing in tenant 8.
	user := userWithRole(7, model.RoleOwner)
	err := e.Evaluate(user, &model.Tenant{ID: 8}, model.RoleMember)
	assert.Error(t, err)
}

func TestEvaluateSuperuserBypass(t *testing.T) {
	e := NewEvaluator()
	su := &model.AppUser{ID: 2, IsSuperuser: true}

	// No membership anywhere, still passes every tier.
	for _, required := range []model.Role{model.RoleOwner, model.RoleManager, model.RoleAdmin, model.RoleMember} {
		assert.NoError(t, e.Evaluate(su, &model.Tenant{ID: 9}, required))
	}
}

func TestEvaluateMissingSubjects(t *testing.T) {
	e := NewEvaluator()

	err := e.Evaluate(userWithRole(1, model.RoleOwner), nil, model.RoleMember)
	assert.True(t, errors.Is(err, apperr.ErrTenantNotFound))

	err = e.Evaluate(nil, &model.Tenant{ID: 1}, model.RoleMember)
	assert.True(t, errors.Is(err, apperr.ErrUserNotFound))
}

func TestSuperuserCheck(t *testing.T) {
	e := NewEvaluator()

	assert.NoError(t, e.Superuser(&model.AppUser{IsSuperuser: true}))
	assert.Error(t, e.Superuser(&model.AppUser{}))
	assert.True(t, errors.Is(e.Superuser(nil), apperr.ErrUserNotFound))
}
