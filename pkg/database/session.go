package database

import (
	"context"
	"fmt"

	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/apperr"
	"identity-service/internal/model"
)

// Session is a database session bound to one tenant's schema and one
// request's lifetime. It exists only inside a SessionProvider.WithTenant
// callback and is torn down before the response is returned.
type Session struct {
	// Tx is the schema-scoped transaction. Queries against unqualified
	// table names target the tenant's private schema; core models keep
	// their public-qualified names.
	Tx *multitenancy.DB
	// RequestID is the correlation token keying this session, so that
	// concurrently in-flight requests never share a session.
	RequestID string
	// Schema is the tenant schema the session is pinned to.
	Schema string
}

// SessionProvider opens request-scoped sessions pinned to a tenant schema.
// The underlying connection pool is shared process-wide; each session is
// exclusively owned by the request that acquired it until release.
type SessionProvider struct {
	db           *multitenancy.DB
	schemaPrefix string
}

// NewSessionProvider creates a provider using the given schema name prefix.
func NewSessionProvider(db *multitenancy.DB, schemaPrefix string) *SessionProvider {
	return &SessionProvider{db: db, schemaPrefix: schemaPrefix}
}

// SchemaName derives the private schema name for a tenant slug.
func (p *SessionProvider) SchemaName(slug string) string {
	return fmt.Sprintf("%s_%s", p.schemaPrefix, slug)
}

// Provisioned reports whether the schema exists in the database catalog.
func (p *SessionProvider) Provisioned(ctx context.Context, schemaName string) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Raw("SELECT count(*) FROM information_schema.schemata WHERE schema_name = ?", schemaName).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// WithTenant runs fn inside a transaction scoped to the tenant's schema.
// The transaction commits when fn returns nil and rolls back on any error,
// including context cancellation; the connection is released in all cases.
// If the tenant's schema was never provisioned the provider fails fast with
// SchemaNotProvisioned before any query executes.
func (p *SessionProvider) WithTenant(
	ctx context.Context,
	tenant *model.Tenant,
	requestID string,
	fn func(s *Session) error,
) error {
	if tenant == nil {
		return apperr.ErrTenantNotFound
	}

	ok, err := p.Provisioned(ctx, tenant.SchemaName)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrSchemaNotProvisioned
	}

	return p.db.WithTenant(ctx, tenant.SchemaName, func(tx *multitenancy.DB) error {
		return fn(&Session{
			Tx:        tx,
			RequestID: requestID,
			Schema:    tenant.SchemaName,
		})
	})
}
