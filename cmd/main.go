package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"identity-service/internal/apperr"
	"identity-service/internal/authn"
	"identity-service/internal/handler"
	"identity-service/internal/middleware"
	"identity-service/internal/model"
	"identity-service/internal/permission"
	"identity-service/internal/tenant"
	"identity-service/pkg/config"
	"identity-service/pkg/database"
	"identity-service/pkg/jwtutil"
	"identity-service/pkg/logger"
	"identity-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("identity-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting identity service...", cfg.LogConfig()...)

	ctx := context.Background()

	// Initialize database and migrate the shared core tables
	db, err := database.Open(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	sessions := database.NewSessionProvider(db, cfg.Tenancy.SchemaPrefix)
	resolver := tenant.NewResolver(db, sessions, cfg.Tenancy.DefaultTenantSlug)
	tenants := tenant.NewService(db, sessions, cfg.Tenancy.DefaultTenantSlug)
	evaluator := permission.NewEvaluator()

	// Bootstrap the default tenant and its schema
	if _, err := tenants.EnsureDefault(ctx); err != nil {
		log.Fatal("Failed to bootstrap default tenant", zap.Error(err))
	}
	log.Info("Default tenant ready", zap.String("slug", cfg.Tenancy.DefaultTenantSlug))

	// Token issuance and identity verification
	tokens := jwtutil.NewTokenService(cfg.JWT.SigningKey)
	authn.Register(authn.NewLocalVerifier(tokens))
	if cfg.Auth.JWKSURL != "" {
		authn.Register(authn.NewOIDCVerifier(jwtutil.NewKeySetValidator(jwtutil.KeySetConfig{
			JWKSURL:  cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			CacheTTL: cfg.Auth.JWKSCacheTTL,
		})))
	}

	verifier, err := authn.Lookup(cfg.Auth.Provider)
	if err != nil {
		log.Fatal("Failed to select auth provider", zap.Error(err))
	}
	log.Info("Auth provider selected", zap.String("provider", verifier.Name()))

	// Handlers
	authHandler := handler.NewAuthHandler(db, tenants, tokens, cfg.Auth.MaxLoginAttempts, cfg.JWT.TTL())
	tenantHandler := handler.NewTenantHandler(db, tenants, evaluator)
	userHandler := handler.NewUserHandler(db)
	auditHandler := handler.NewAuditHandler()

	authenticate := middleware.NewAuthenticator(verifier, db).Middleware
	tenancy := middleware.NewTenantContext(resolver, sessions)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.POST("/auth/register", authHandler.RegisterDefault)

	// Tenant-scoped routes - the :tenant slug is resolved first, then every
	// request runs inside a session pinned to that tenant's schema
	scoped := e.Group("/:tenant", tenancy.Resolve, tenancy.Session)
	scoped.POST("/auth/login", authHandler.Login)
	scoped.POST("/auth/register", authHandler.Register)

	authed := scoped.Group("", authenticate)
	authed.GET("/users", userHandler.List, middleware.RequireTier(evaluator, model.RoleOwner))
	authed.GET("/users/me", userHandler.Me, middleware.RequireTier(evaluator, model.RoleMember))
	authed.POST("/members", tenantHandler.AddMember, middleware.RequireTier(evaluator, model.RoleManager))
	authed.DELETE("/members/:user_id", tenantHandler.RemoveMember, middleware.RequireTier(evaluator, model.RoleManager))
	authed.GET("/audit", auditHandler.List, middleware.RequireTier(evaluator, model.RoleAdmin))

	// Tenant administration - addressed by id, tier checks inside the handler
	admin := e.Group("/tenants", authenticate)
	admin.GET("", tenantHandler.List, middleware.RequireSuperuser(evaluator))
	admin.POST("", tenantHandler.Create)
	admin.GET("/:id", tenantHandler.Get)
	admin.PUT("/:id", tenantHandler.Update)
	admin.DELETE("/:id", tenantHandler.Delete)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
