package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tripdesk/tour-booking-api/api/swagger"
	"github.com/tripdesk/tour-booking-api/internal/handler"
	"github.com/tripdesk/tour-booking-api/internal/middleware"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	"github.com/tripdesk/tour-booking-api/internal/service"
	"github.com/tripdesk/tour-booking-api/pkg/cache"
	"github.com/tripdesk/tour-booking-api/pkg/config"
	"github.com/tripdesk/tour-booking-api/pkg/database"
	"github.com/tripdesk/tour-booking-api/pkg/jobs"
	"github.com/tripdesk/tour-booking-api/pkg/logger"
	corsmiddleware "github.com/tripdesk/tour-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tripdesk/tour-booking-api/pkg/middleware/requestid"
	"github.com/tripdesk/tour-booking-api/pkg/storage"
)

// @title Tour Booking API
// @version 1.0.0
// @description Registrations, payment reconciliation and tour operations
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(ctx, db, cfg.Database.MigrationsDir); err != nil {
			logr.Sugar().Fatalw("failed to apply migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	registrationRepo := repository.NewRegistrationRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	dashboardSvc := service.NewDashboardService(registrationRepo, transactionRepo, expenseRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:       cfg.Dashboard.CacheTTL,
		RefreshChannel: cfg.Dashboard.RefreshChannel,
		Currency:       cfg.Booking.Currency,
	})

	registrationSvc := service.NewRegistrationService(registrationRepo, dashboardSvc, validate, logr, cfg.Booking.PackagePrice)
	transactionSvc := service.NewTransactionService(transactionRepo, registrationRepo, adminRepo, dashboardSvc, metricsSvc, validate, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, dashboardSvc, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, validate, logr)

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(registrationRepo, transactionRepo, expenseRepo, store, signer, service.ExportConfig{
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportJobRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportSvc = service.NewReportService(reportJobRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)
	expenseHandler := handler.NewExpenseHandler(expenseSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	healthHandler := handler.NewHealthHandler(db, redisClient)
	r.GET("/health", healthHandler.Live)
	r.GET("/ready", healthHandler.Ready)

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(authSvc)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authRequired, authHandler.Logout)
	auth.GET("/me", authRequired, authHandler.Me)

	// Public booking surface: anyone can register and browse the itinerary.
	api.POST("/registrations", registrationHandler.Create)
	api.GET("/activities", activityHandler.List)

	admin := api.Group("", authRequired)
	admin.GET("/registrations", registrationHandler.List)
	admin.GET("/registrations/:id", registrationHandler.Get)
	admin.PATCH("/registrations/:id", registrationHandler.Update)

	admin.GET("/transactions", transactionHandler.ListPending)
	admin.POST("/transactions", transactionHandler.Create)
	admin.POST("/transactions/approve", transactionHandler.Resolve)

	admin.POST("/expenses", expenseHandler.Create)
	admin.GET("/expenses", expenseHandler.List)

	admin.POST("/activities", activityHandler.Create)
	admin.PATCH("/activities/:id", activityHandler.UpdateStatus)

	admin.GET("/dashboard/summary", dashboardHandler.Summary)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		admin.POST("/reports", reportHandler.Create)
		admin.GET("/reports/:id", reportHandler.Status)
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
