// Package tenant implements tenant lifecycle management: resolution,
// creation with schema provisioning, rename with slug and schema
// regeneration, deletion, and membership administration.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/model"
	"identity-service/pkg/database"
	"identity-service/pkg/logger"
)

// Service manages tenant records and their private schemas.
type Service struct {
	db          *multitenancy.DB
	sessions    *database.SessionProvider
	defaultSlug string
}

// NewService creates a tenant service.
func NewService(db *multitenancy.DB, sessions *database.SessionProvider, defaultSlug string) *Service {
	return &Service{db: db, sessions: sessions, defaultSlug: defaultSlug}
}

// Create provisions a new tenant: the shared record, the private schema with
// its tenant tables, and an owner membership for the creating user.
func (s *Service) Create(ctx context.Context, name, description string, owner *model.AppUser) (*model.Tenant, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, apperr.BadRequest("name is required")
	}

	var existing model.Tenant
	err := s.db.WithContext(ctx).Where("name = ? OR slug = ?", name, slug).First(&existing).Error
	if err == nil {
		return nil, apperr.ErrDuplicateTenant
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t := &model.Tenant{
		Name:        name,
		Slug:        slug,
		Description: description,
	}
	t.SchemaName = s.sessions.SchemaName(slug)
	t.DomainURL = slug

	err = s.db.WithContext(ctx).Transaction(func(tx *multitenancy.DB) error {
		if err := tx.Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrDuplicateTenant
			}
			return err
		}

		if owner == nil {
			return nil
		}
		return tx.Create(&model.UserTenant{
			UserID:   owner.ID,
			TenantID: t.ID,
			Role:     model.RoleOwner,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	// Schema migration happens after the record commit: a failure here
	// leaves a tenant whose resolution yields SchemaNotProvisioned until
	// an administrator re-runs provisioning.
	if err := s.db.MigrateTenantModels(ctx, t.SchemaName); err != nil {
		return nil, err
	}

	logger.GetLogger().Info("Tenant created",
		zap.String("name", t.Name),
		zap.String("slug", t.Slug),
		zap.String("schema", t.SchemaName))

	return t, nil
}

// GetByID returns a tenant by its id.
func (s *Service) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetDefault returns the single default-flagged tenant.
func (s *Service) GetDefault(ctx context.Context) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).Order("id").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// Update renames or re-describes a tenant. A name change regenerates the
// slug and renames the private schema in the same transaction, so slug and
// schema never diverge.
func (s *Service) Update(ctx context.Context, id uint, name, description string) (*model.Tenant, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"description": description}

	newSchema := t.SchemaName
	if name != "" && name != t.Name {
		slug := Slugify(name)
		if slug == "" {
			return nil, apperr.BadRequest("name is required")
		}

		var existing model.Tenant
		err = s.db.WithContext(ctx).
			Where("(name = ? OR slug = ?) AND id <> ?", name, slug, id).
			First(&existing).Error
		if err == nil {
			return nil, apperr.ErrDuplicateTenant
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		newSchema = s.sessions.SchemaName(slug)
		updates["name"] = name
		updates["slug"] = slug
		updates["schema_name"] = newSchema
		updates["domain_url"] = slug
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *multitenancy.DB) error {
		if newSchema != t.SchemaName {
			provisioned, provErr := s.sessions.Provisioned(ctx, t.SchemaName)
			if provErr != nil {
				return provErr
			}
			if provisioned {
				rename := fmt.Sprintf(`ALTER SCHEMA %q RENAME TO %q`, t.SchemaName, newSchema)
				if execErr := tx.Exec(rename).Error; execErr != nil {
					return execErr
				}
			}
		}
		return tx.Model(&model.Tenant{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Delete removes the tenant record, its memberships, and drops its schema.
func (s *Service) Delete(ctx context.Context, id uint) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *multitenancy.DB) error {
		if err := tx.Unscoped().Where("tenant_id = ?", id).Delete(&model.UserTenant{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&model.Tenant{}, id).Error; err != nil {
			return err
		}

		drop := fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, t.SchemaName)
		return tx.Exec(drop).Error
	})
	if err != nil {
		return err
	}

	logger.GetLogger().Info("Tenant deleted",
		zap.Uint("id", id),
		zap.String("slug", t.Slug))
	return nil
}

// AddMember creates a membership, or updates the role when the user already
// belongs to the tenant. At most one membership exists per (user, tenant).
func (s *Service) AddMember(ctx context.Context, t *model.Tenant, user *model.AppUser, role model.Role) (*model.UserTenant, error) {
	if !role.Valid() {
		return nil, apperr.BadRequest("unknown role")
	}

	var membership model.UserTenant
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", user.ID, t.ID).
		First(&membership).Error

	switch {
	case err == nil:
		if membership.Role == role {
			return &membership, nil
		}
		membership.Role = role
		if err := s.db.WithContext(ctx).Save(&membership).Error; err != nil {
			return nil, err
		}
		return &membership, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		membership = model.UserTenant{
			UserID:   user.ID,
			TenantID: t.ID,
			Role:     role,
		}
		if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
			return nil, err
		}
		return &membership, nil

	default:
		return nil, err
	}
}

// RemoveMember deletes a user's membership. The tenant owner cannot be
// removed.
func (s *Service) RemoveMember(ctx context.Context, t *model.Tenant, userID uint) error {
	var membership model.UserTenant
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, t.ID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrMembershipNotFound
	}
	if err != nil {
		return err
	}

	if membership.Role == model.RoleOwner {
		return apperr.ErrOwnerNotRemovable
	}

	return s.db.WithContext(ctx).Unscoped().Delete(&membership).Error
}

// EnsureDefault bootstraps the default tenant and its schema at startup.
func (s *Service) EnsureDefault(ctx context.Context) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", s.defaultSlug).First(&t).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		t = model.Tenant{
			Name:        s.defaultSlug,
			Slug:        s.defaultSlug,
			Default:     true,
			Description: "Default tenant",
		}
		t.SchemaName = s.sessions.SchemaName(s.defaultSlug)
		t.DomainURL = s.defaultSlug

		if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
			return nil, err
		}

	case err != nil:
		return nil, err
	}

	if err := s.db.MigrateTenantModels(ctx, t.SchemaName); err != nil {
		return nil, err
	}
	return &t, nil
}
