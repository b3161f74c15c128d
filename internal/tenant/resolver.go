package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/model"
	"identity-service/pkg/database"
)

// Resolver maps an inbound tenant slug to a validated, existing tenant.
// Resolution is a read-only lookup; schema provisioning is an administrative
// side effect of tenant creation, never of resolution.
type Resolver struct {
	db          *multitenancy.DB
	sessions    *database.SessionProvider
	defaultSlug string
}

// NewResolver creates a resolver with the configured default tenant slug.
func NewResolver(db *multitenancy.DB, sessions *database.SessionProvider, defaultSlug string) *Resolver {
	return &Resolver{db: db, sessions: sessions, defaultSlug: defaultSlug}
}

// Resolve returns the tenant for slug. An empty or unknown slug is an error,
// never a silent fallback.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*model.Tenant, error) {
	if slug == "" {
		return nil, apperr.ErrTenantNotFound
	}

	var t model.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResolveOrDefault resolves slug, falling back to the default tenant when
// slug is empty. Callers opt into this behavior explicitly.
func (r *Resolver) ResolveOrDefault(ctx context.Context, slug string) (*model.Tenant, error) {
	if slug == "" {
		slug = r.defaultSlug
	}
	return r.Resolve(ctx, slug)
}

// EnsureProvisioned verifies the tenant's private schema exists in the
// catalog. A tenant row without a schema is a partially-failed provisioning
// and surfaces as SchemaNotProvisioned, distinct from TenantNotFound.
func (r *Resolver) EnsureProvisioned(ctx context.Context, t *model.Tenant) error {
	ok, err := r.sessions.Provisioned(ctx, t.SchemaName)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrSchemaNotProvisioned
	}
	return nil
}
