package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/siplan/siplan-skills/docs"
	"github.com/siplan/siplan-skills/internal/api/handler"
	"github.com/siplan/siplan-skills/internal/api/middleware"
	"github.com/siplan/siplan-skills/internal/core/service"
	"github.com/siplan/siplan-skills/internal/infrastructure/config"
	mongodb "github.com/siplan/siplan-skills/internal/infrastructure/db/mongo"
	redisdb "github.com/siplan/siplan-skills/internal/infrastructure/db/redis"
	"github.com/siplan/siplan-skills/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the completion-event dispatcher (started by the caller).
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) (*echo.Echo, *queue.Dispatcher) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("siplan_skills"))

	// --- Repositories ---
	cartorioRepo := mongodb.NewCartorioRepository(db)
	userRepo := mongodb.NewTenantUserRepository(db)
	tokenRepo := mongodb.NewLoginTokenRepository(db)
	identityRepo := mongodb.NewIdentityRepository(db)
	adminRepo := mongodb.NewAdminRepository(db)
	catalogRepo := mongodb.NewCatalogRepository(db)
	grantRepo := mongodb.NewGrantRepository(db)
	progressRepo := mongodb.NewProgressRepository(db)

	refreshStore := redisdb.NewRefreshTokenStore(rdb)
	statusCache := redisdb.NewAdminStatusCache(rdb)
	dedup := redisdb.NewCompletionDedup(rdb)

	// --- Services ---
	exchangeService := service.NewExchangeService(
		userRepo, cartorioRepo, tokenRepo, identityRepo, refreshStore,
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	sessionService := service.NewSessionService(
		identityRepo, refreshStore, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	adminService := service.NewAdminService(
		cartorioRepo, userRepo, tokenRepo, grantRepo, adminRepo, statusCache, log)
	catalogService := service.NewCatalogService(catalogRepo, grantRepo, log)
	progressService := service.NewProgressService(progressRepo, catalogRepo, dedup, log)

	dispatcher := queue.NewDispatcher(cfg.DispatcherWorkers, progressService, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(sessionService, adminService)
	exchangeHandler := handler.NewExchangeHandler(exchangeService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	progressHandler := handler.NewProgressHandler(dispatcher, progressService)
	adminHandler := handler.NewAdminHandler(adminService)

	authMW := middleware.Auth(cfg.JWTSecret)
	adminMW := middleware.AdminOnly(adminService)
	tenantMW := middleware.TenantSession(cfg.JWTSecret)

	// --- Backend-native session (admin identity path) ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/admins/:email", authHandler.RosterCheck, authMW)

	// --- Trusted tenant functions ---
	e.POST("/functions/cartorio-login", exchangeHandler.Exchange)
	fn := e.Group("/functions", tenantMW)
	fn.GET("/catalog", catalogHandler.Scoped)
	fn.PUT("/progress/lessons/:lessonID", progressHandler.ToggleLesson)
	fn.GET("/progress/summary", progressHandler.Summary)

	// --- Administrative surface ---
	admin := e.Group("/admin", authMW, adminMW)
	admin.POST("/cartorios", adminHandler.CreateCartorio)
	admin.GET("/cartorios", adminHandler.ListCartorios)
	admin.PUT("/cartorios/:id/active", adminHandler.SetCartorioActive)
	admin.GET("/cartorios/:cartorioID/grants", adminHandler.ListGrants)
	admin.POST("/users", adminHandler.CreateTenantUser)
	admin.POST("/login-tokens", adminHandler.IssueLoginToken)
	admin.DELETE("/login-tokens/:id", adminHandler.RevokeLoginToken)
	admin.POST("/grants", adminHandler.GrantAccess)
	admin.DELETE("/grants/:id", adminHandler.RevokeGrant)
	admin.POST("/roster", adminHandler.AddAdmin)
	admin.DELETE("/roster/:email", adminHandler.RemoveAdmin)

	catalog := e.Group("/catalog", authMW, adminMW)
	catalog.GET("", catalogHandler.Full)
	catalog.POST("/systems", catalogHandler.CreateSystem)
	catalog.POST("/products", catalogHandler.CreateProduct)
	catalog.POST("/lessons", catalogHandler.CreateLesson)
	catalog.POST("/trilhas", catalogHandler.CreateTrilha)
	catalog.GET("/trilhas", catalogHandler.ListTrilhas)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, dispatcher
}
