package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the tier a user holds within one tenant. Tiers form a strict
// dominance hierarchy: owner > manager > admin > member. The superuser flag
// on AppUser is orthogonal and bypasses tenant roles entirely.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
)

// Valid reports whether r is one of the known role tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// UserTenant binds one user to one tenant with exactly one role.
// At most one membership exists per (user, tenant) pair.
type UserTenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:uq_user_tenant"`
	TenantID  uint           `json:"tenant_id" gorm:"not null;uniqueIndex:uq_user_tenant"`
	Role      Role           `json:"role" gorm:"type:varchar(50);not null;default:'member'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User   AppUser `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Tenant Tenant  `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (UserTenant) TableName() string   { return "public.user_tenants" }
func (UserTenant) IsSharedModel() bool { return true }
