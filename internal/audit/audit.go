// Package audit records security-relevant events into the tenant's private
// schema. Each tenant sees only its own trail; there is no cross-tenant
// audit surface.
package audit

import (
	"identity-service/internal/model"
	"identity-service/pkg/database"
)

// Record appends an event to the tenant's audit trail through the request's
// schema-scoped session. The write commits or rolls back together with the
// rest of the request's tenant-scoped work.
func Record(s *database.Session, actor, action, detail string) error {
	if s == nil {
		return nil
	}
	return s.Tx.Create(&model.AuditEvent{
		Actor:  actor,
		Action: action,
		Detail: detail,
	}).Error
}

// List returns the tenant's audit trail, newest first.
func List(s *database.Session, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []model.AuditEvent
	err := s.Tx.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
