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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/velesoft/lineplan-api/api/swagger"
	"github.com/velesoft/lineplan-api/internal/handler"
	"github.com/velesoft/lineplan-api/internal/middleware"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/repository"
	"github.com/velesoft/lineplan-api/internal/service"
	"github.com/velesoft/lineplan-api/pkg/cache"
	"github.com/velesoft/lineplan-api/pkg/config"
	"github.com/velesoft/lineplan-api/pkg/database"
	"github.com/velesoft/lineplan-api/pkg/jobs"
	"github.com/velesoft/lineplan-api/pkg/logger"
	corsmiddleware "github.com/velesoft/lineplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/velesoft/lineplan-api/pkg/middleware/requestid"
	"github.com/velesoft/lineplan-api/pkg/storage"
)

// @title LinePlan Scheduler API
// @version 1.0.0
// @description Production line scheduling: daily plans, changeover rules, proposal builds and signed exports.
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
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	rulesRepo := repository.NewRulesRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	metricsService := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.ScheduleTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	planService := service.NewPlanService(planRepo, nil, logr)
	rulesService := service.NewRulesService(rulesRepo, cacheService, nil, logr, service.RulesServiceConfig{
		SnapshotTTL: cfg.Cache.RulesTTL,
	})

	// The queue handler closes over the schedule service, which in turn
	// dispatches onto the queue. Bind the service after the queue exists.
	var scheduleService *service.ScheduleService
	buildQueue := jobs.NewQueue("schedule-builds", func(ctx context.Context, job jobs.Job) error {
		return scheduleService.ProcessBuild(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	scheduleService = service.NewScheduleService(
		planService,
		rulesService,
		scheduleRepo,
		cacheService,
		metricsService,
		buildQueue,
		db,
		nil,
		logr,
		service.ScheduleServiceConfig{
			ProposalTTL:        cfg.Scheduler.ProposalTTL,
			AppliedCacheTTL:    cfg.Cache.ScheduleTTL,
			OptimizerEnabled:   cfg.Scheduler.OptimizerEnabled,
			OptimizerWorkers:   cfg.Scheduler.OptimizerWorkers,
			OptimizerTimeLimit: cfg.Scheduler.OptimizerTimeLimit,
			LockedPriorities:   cfg.Scheduler.LockedPriorities,
		},
	)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "dir", cfg.Exports.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(scheduleService, exportStorage, signer, nil, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authService)
	planHandler := handler.NewPlanHandler(planService)
	rulesHandler := handler.NewRulesHandler(rulesService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(authService)
	requirePlanner := middleware.RequireRoles(models.RoleAdmin, models.RolePlanner)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", requireAuth, authHandler.Me)

	plan := api.Group("/plan")
	plan.GET("", planHandler.Get)
	plan.PUT("", requireAuth, requirePlanner, planHandler.Replace)

	rules := api.Group("/rules")
	rules.GET("/cip", rulesHandler.ListCIP)
	rules.GET("/eviction", rulesHandler.ListEviction)
	rules.GET("/norms", rulesHandler.ListNorms)
	rules.GET("/auto-clean", rulesHandler.ListAutoClean)
	rules.GET("/densities", rulesHandler.ListDensities)
	rules.GET("/line-links", rulesHandler.ListLineLinks)

	rulesEdit := rules.Group("")
	rulesEdit.Use(requireAuth, requirePlanner)
	rulesEdit.PUT("/cip", rulesHandler.ReplaceCIP)
	rulesEdit.PUT("/eviction", rulesHandler.ReplaceEviction)
	rulesEdit.PUT("/norms", rulesHandler.ReplaceNorms)
	rulesEdit.PUT("/auto-clean", rulesHandler.ReplaceAutoClean)
	rulesEdit.PUT("/densities", rulesHandler.ReplaceDensities)
	rulesEdit.PUT("/line-links", rulesHandler.ReplaceLineLinks)

	sched := api.Group("/schedule")
	sched.GET("", scheduleHandler.GetApplied)
	sched.GET("/proposals/:id", scheduleHandler.GetProposal)
	sched.POST("/proposals", requireAuth, requirePlanner, scheduleHandler.BuildProposal)
	sched.POST("/proposals/:id/apply", requireAuth, requirePlanner, scheduleHandler.Apply)
	sched.POST("/export", requireAuth, exportHandler.Export)
	// The signed token is the credential; no JWT on downloads.
	sched.GET("/export/:token", exportHandler.Download)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buildQueue.Start(ctx)
	go exportCleanupLoop(ctx, exportService, cfg.Exports, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	buildQueue.Stop()
}

func exportCleanupLoop(ctx context.Context, exports *service.ExportService, cfg config.ExportsConfig, logr *zap.Logger) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
		}
	}
}
