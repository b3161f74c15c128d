package model

import "time"

// AuditEvent records an identity-related action inside a tenant's private
// schema. Unlike the core models it is not shared: each tenant sees only its
// own trail.
type AuditEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Actor     string    `json:"actor" gorm:"type:varchar(255);index"`
	Action    string    `json:"action" gorm:"type:varchar(100);not null"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditEvent) TableName() string   { return "audit_events" }
func (AuditEvent) IsSharedModel() bool { return false }
