package model

import (
	"time"

	"gorm.io/gorm"
)

// AppUser represents a global identity stored in the core schema. A user may
// belong to any number of tenants, each membership carrying its own role.
type AppUser struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Email               string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash        []byte         `json:"-" gorm:"type:bytea;not null"`
	Salt                []byte         `json:"-" gorm:"type:bytea;not null"`
	IsActive            bool           `json:"is_active" gorm:"default:true"`
	IsSuperuser         bool           `json:"is_superuser" gorm:"default:false"`
	FailedLoginAttempts int            `json:"-" gorm:"default:0"`
	LastLogin           *time.Time     `json:"last_login,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Memberships []UserTenant `json:"memberships,omitempty" gorm:"foreignKey:UserID"`
}

func (AppUser) TableName() string   { return "public.app_users" }
func (AppUser) IsSharedModel() bool { return true }

// TenantRole returns the user's role for the given tenant, or empty string
// when the user holds no membership there. Memberships must be preloaded.
func (u *AppUser) TenantRole(tenantID uint) Role {
	for _, m := range u.Memberships {
		if m.TenantID == tenantID {
			return m.Role
		}
	}
	return ""
}
