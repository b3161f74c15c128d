// Package database owns the schema-per-tenant database connection. Shared
// (core) models live in the public schema; every tenant additionally owns a
// private schema holding its tenant-scoped tables.
package database

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pg "github.com/bartventer/gorm-multitenancy/postgres/v8"
	multitenancy "github.com/bartventer/gorm-multitenancy/v8"

	"identity-service/internal/model"
	"identity-service/pkg/config"
)

// Open connects to Postgres through the multitenancy dialector and applies
// the pool settings from configuration.
func Open(cfg *config.DBConfig) (*multitenancy.DB, error) {
	// PreferSimpleProtocol disables prepared statement caching, which
	// prevents "cached plan must not change result type" errors when the
	// search_path switches between tenant schemas.
	dialector := pg.New(pg.Config{
		Config: postgres.Config{
			DSN:                  cfg.GetDSN(),
			PreferSimpleProtocol: true,
		},
	})

	db, err := multitenancy.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Migrate registers the model set and migrates the shared core tables.
// Tenant schemas are migrated individually when a tenant is provisioned.
func Migrate(ctx context.Context, db *multitenancy.DB) error {
	err := db.RegisterModels(ctx,
		&model.Tenant{},
		&model.AppUser{},
		&model.UserTenant{},
		&model.AuditEvent{},
	)
	if err != nil {
		return err
	}

	return db.MigrateSharedModels(ctx)
}
