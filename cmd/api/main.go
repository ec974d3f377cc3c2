package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/warehq/varpay-api/api/swagger"
	"github.com/warehq/varpay-api/internal/handler"
	"github.com/warehq/varpay-api/internal/middleware"
	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/repository"
	"github.com/warehq/varpay-api/internal/service"
	"github.com/warehq/varpay-api/pkg/cache"
	"github.com/warehq/varpay-api/pkg/config"
	"github.com/warehq/varpay-api/pkg/database"
	"github.com/warehq/varpay-api/pkg/logger"
	corsmiddleware "github.com/warehq/varpay-api/pkg/middleware/cors"
	reqidmiddleware "github.com/warehq/varpay-api/pkg/middleware/requestid"
)

// @title Varpay API
// @version 0.1.0
// @description Warehouse variable-compensation API
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	tierRepo := repository.NewActivityTierRepository(db)
	kpiRepo := repository.NewKPIRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cached *repository.CachedReferenceRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, reference cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cached = repository.NewCachedReferenceRepository(tierRepo, kpiRepo, redisClient, cfg.Cache.ReferenceTTL, metricsSvc, logr)
		}
	}

	var calcSvc *service.CalculationService
	var refSvc *service.ReferenceService
	if cached != nil {
		calcSvc = service.NewCalculationService(cached, cached, cfg.Compensation, validate, logr)
		refSvc = service.NewReferenceService(tierRepo, kpiRepo, cached, validate, logr)
	} else {
		calcSvc = service.NewCalculationService(tierRepo, kpiRepo, cfg.Compensation, validate, logr)
		refSvc = service.NewReferenceService(tierRepo, kpiRepo, nil, validate, logr)
	}

	entrySvc := service.NewEntryService(entryRepo, workerRepo, userRepo, auditRepo, calcSvc, cfg.Compensation, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)

	calcHandler := handler.NewCalculationHandler(calcSvc, metricsSvc)
	entryHandler := handler.NewEntryHandler(entrySvc, metricsSvc)
	refHandler := handler.NewReferenceHandler(refSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/calculate", calcHandler.Calculate)
		api.POST("/entries", entryHandler.Create)

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.GET("/entries", entryHandler.List)
			protected.GET("/entries/:id", entryHandler.Get)
			protected.GET("/entries/:id/revisions", entryHandler.Revisions)
			protected.POST("/entries/:id/validate", entryHandler.Validate)

			admin := protected.Group("")
			admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
			{
				admin.GET("/tiers", refHandler.ListTiers)
				admin.POST("/tiers", refHandler.CreateTier)
				admin.PUT("/tiers/:id", refHandler.UpdateTier)
				admin.GET("/kpis", refHandler.ListKPIs)
				admin.POST("/kpis", refHandler.CreateKPI)
				admin.PUT("/kpis/:id", refHandler.UpdateKPI)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
