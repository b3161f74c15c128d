package model

import (
	"time"

	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"
)

// Tenant represents one isolated customer boundary. Every tenant owns a
// private database schema named after its slug; the shared tenant record
// itself lives in the public core schema.
type Tenant struct {
	multitenancy.TenantModel

	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(255);uniqueIndex"`
	Slug        string         `json:"slug" gorm:"type:varchar(63);uniqueIndex"`
	Default     bool           `json:"default" gorm:"column:is_default;default:false"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Memberships []UserTenant `json:"memberships,omitempty" gorm:"foreignKey:TenantID"`
}

func (Tenant) TableName() string   { return "public.tenants" }
func (Tenant) IsSharedModel() bool { return true }
