package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"identity-service/internal/model"
)

func TestMemberOfTenant(t *testing.T) {
	tn := &model.Tenant{ID: 3}
	member := &model.AppUser{
		ID: 1,
		Memberships: []model.UserTenant{
			{UserID: 1, TenantID: tn.ID, Role: model.RoleMember},
		},
	}

	assert.True(t, memberOfTenant(member, tn))

	// A membership elsewhere does not count here, so a cross-tenant login
	// leaves no trace in the resolved tenant's audit trail.
	assert.False(t, memberOfTenant(member, &model.Tenant{ID: 4}))

	su := &model.AppUser{ID: 2, IsSuperuser: true}
	assert.True(t, memberOfTenant(su, tn))

	assert.False(t, memberOfTenant(member, nil))
}
