package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unirooms/timetable-api/api/swagger"
	"github.com/unirooms/timetable-api/internal/handler"
	"github.com/unirooms/timetable-api/internal/middleware"
	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/repository"
	"github.com/unirooms/timetable-api/internal/service"
	"github.com/unirooms/timetable-api/pkg/cache"
	"github.com/unirooms/timetable-api/pkg/config"
	"github.com/unirooms/timetable-api/pkg/database"
	"github.com/unirooms/timetable-api/pkg/jobs"
	"github.com/unirooms/timetable-api/pkg/logger"
	corsmiddleware "github.com/unirooms/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unirooms/timetable-api/pkg/middleware/requestid"
	"github.com/unirooms/timetable-api/pkg/storage"
)

// @title UniRooms Timetable API
// @version 1.0.0
// @description Timetable conflict detection and room occupancy engine
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Report.Dir)
	if err != nil {
		logr.Fatal("failed to prepare export directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Report.ResultTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	blockRepo := repository.NewTimeBlockRepository(db)
	jobRepo := repository.NewReportJobRepository(db)

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	roomService := service.NewRoomService(roomRepo, validate, logr)
	scheduleService := service.NewScheduleService(blockRepo, cacheService, metricsService, validate, logr)
	occupancyService := service.NewOccupancyService(roomRepo, blockRepo, cacheService, metricsService, cfg.Occupancy, logr)
	exportService := service.NewExportService(occupancyService, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Report.ResultTTL,
	}, logr, nil, nil)

	reportWorker := service.NewReportWorker(jobRepo, exportService, cfg.Report.MaxRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Report.Workers,
		MaxRetries: cfg.Report.MaxRetries,
		Logger:     logr,
	})
	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	reportService := service.NewReportService(jobRepo, reportQueue, exportService, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Report.ResultTTL,
		CleanupInterval: cfg.Report.CleanupInterval,
		MaxRetries:      cfg.Report.MaxRetries,
	})
	reportService.RecoverPendingJobs(ctx)
	reportService.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	occupancyHandler := handler.NewOccupancyHandler(occupancyService)
	reportHandler := handler.NewReportHandler(reportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	editors := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)

	rooms := api.Group("/rooms")
	rooms.GET("", roomHandler.List)
	rooms.GET("/:id", roomHandler.Get)
	rooms.POST("", middleware.JWT(authService), editors, roomHandler.Create)
	rooms.PUT("/:id", middleware.JWT(authService), editors, roomHandler.Update)
	rooms.DELETE("/:id", middleware.JWT(authService), editors, roomHandler.Deactivate)

	blocks := api.Group("/blocks")
	blocks.GET("", scheduleHandler.List)
	blocks.GET("/:id", scheduleHandler.Get)
	blocks.POST("", middleware.JWT(authService), editors, scheduleHandler.Create)
	blocks.POST("/validate", scheduleHandler.Validate)
	blocks.PUT("/:id", middleware.JWT(authService), editors, scheduleHandler.Update)
	blocks.DELETE("/:id", middleware.JWT(authService), editors, scheduleHandler.Delete)

	api.DELETE("/groups/:id/blocks", middleware.JWT(authService), editors, scheduleHandler.DeleteGroupBlocks)
	api.GET("/grid", scheduleHandler.Grid)

	occupancy := api.Group("/occupancy")
	occupancy.GET("/rooms/:id", occupancyHandler.Room)
	occupancy.GET("/summary", occupancyHandler.Summary)
	occupancy.GET("/metrics", occupancyHandler.Metrics)

	reports := api.Group("/reports", middleware.JWT(authService))
	reports.POST("", reportHandler.Create)
	reports.GET("/:id", reportHandler.Status)

	api.GET("/export/:token", reportHandler.Download)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
