package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pyreportal/kiosk-agent/api/swagger"
	"github.com/pyreportal/kiosk-agent/internal/client"
	"github.com/pyreportal/kiosk-agent/internal/handler"
	"github.com/pyreportal/kiosk-agent/internal/middleware"
	"github.com/pyreportal/kiosk-agent/internal/repository"
	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/internal/service"
	"github.com/pyreportal/kiosk-agent/pkg/cache"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	"github.com/pyreportal/kiosk-agent/pkg/database"
	"github.com/pyreportal/kiosk-agent/pkg/logger"
	corsmiddleware "github.com/pyreportal/kiosk-agent/pkg/middleware/cors"
	reqidmiddleware "github.com/pyreportal/kiosk-agent/pkg/middleware/requestid"
)

// @title Kiosk Agent API
// @version 0.1.0
// @description Local agent driving the RFID tag assignment workflow
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

	// The agent degrades rather than refuses to start: without Redis the
	// roster is fetched per request and offline scans fail loudly, without
	// Postgres the scan log is disabled.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and offline queue disabled", "error", err)
		redisClient = nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Warnw("postgres unavailable, scan log disabled", "error", err)
		db = nil
	}

	assignmentClient := client.NewAssignmentClient(cfg.Assignment)

	var bridge scanner.Bridge
	if cfg.Scanner.BridgeURL != "" {
		bridge = scanner.NewHTTPBridge(cfg.Scanner.BridgeURL)
	}
	adapter := scanner.Select(ctx, cfg.Scanner, bridge, logr)

	authSvc := service.NewAuthService(logr)

	var rosterCache service.RosterCache
	var pendingQueue service.PendingScanQueue
	if redisClient != nil {
		rosterCache = repository.NewCacheRepository(redisClient, logr)
		pendingQueue = repository.NewPendingScanRepository(redisClient, cfg.Offline.QueueKey)
	}
	rosterSvc := service.NewRosterService(assignmentClient, authSvc, rosterCache, cfg.Roster.CacheTTL, cfg.Roster.PageSize, logr)

	var scanStore service.ScanEventStore
	if db != nil {
		scanStore = repository.NewScanEventRepository(db)
	}
	auditSvc := service.NewAuditService(scanStore, logr)

	checkinSvc := service.NewCheckinService(assignmentClient, authSvc, pendingQueue, cfg.Offline, cfg.TerminalID, logr)
	checkinSvc.Start(ctx)
	defer checkinSvc.Stop()

	metricsSvc := service.NewMetricsService()

	sessionRepo := repository.NewSessionRepository()
	sessionSvc := service.NewSessionService(sessionRepo, adapter, assignmentClient, authSvc, auditSvc, cfg.Modal, logr)
	sessionSvc.StartPruning(ctx, 10*time.Minute, time.Hour)

	workflowHandler := handler.NewWorkflowHandler(sessionSvc, rosterSvc, metricsSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	scannerHandler := handler.NewScannerHandler(adapter)
	checkinHandler := handler.NewCheckinHandler(checkinSvc, metricsSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	adminHandler := handler.NewAdminHandler(metricsSvc, checkinSvc, rosterSvc, assignmentClient)
	healthHandler := handler.NewHealthHandler(adapter)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)
		api.GET("/scanner/status", scannerHandler.Status)

		api.PUT("/auth/session", authHandler.Set)
		api.GET("/auth/session", authHandler.Get)
		api.DELETE("/auth/session", authHandler.Clear)

		api.POST("/sessions", workflowHandler.Create)
		api.GET("/sessions/:id", workflowHandler.Get)
		api.DELETE("/sessions/:id", workflowHandler.Delete)
		api.POST("/sessions/:id/scan", workflowHandler.StartScan)
		api.POST("/sessions/:id/scan/cancel", workflowHandler.CancelScan)
		api.POST("/sessions/:id/selection", workflowHandler.EnterSelection)
		api.PUT("/sessions/:id/selection", workflowHandler.Select)
		api.POST("/sessions/:id/commit", workflowHandler.Commit)
		api.POST("/sessions/:id/reset", workflowHandler.Reset)
		api.GET("/sessions/:id/handoff", workflowHandler.Handoff)
		api.POST("/sessions/:id/restore", workflowHandler.Restore)
		api.GET("/sessions/:id/roster", workflowHandler.Roster)

		api.POST("/checkin", checkinHandler.Checkin)
		api.GET("/checkin/pending", checkinHandler.Pending)
		api.POST("/checkin/flush", checkinHandler.Flush)

		api.GET("/scan-log", auditHandler.List)

		admin := api.Group("/admin", middleware.AdminPIN(cfg.Admin.PINHash))
		{
			admin.GET("/metrics", adminHandler.Metrics)
			admin.GET("/upstream", adminHandler.Upstream)
			admin.GET("/scan-log/export", auditHandler.Export)
			admin.DELETE("/roster/cache", adminHandler.InvalidateRoster)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("kiosk agent starting",
		"addr", addr,
		"env", cfg.Env,
		"terminal_id", cfg.TerminalID,
		"scanner", adapter.Status(ctx).Platform)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
