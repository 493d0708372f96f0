package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-saas/meridian/internal/app"
	jobmetrics "github.com/meridian-saas/meridian/internal/jobs"
	"github.com/meridian-saas/meridian/internal/nav/catalog"
	navconfig "github.com/meridian-saas/meridian/internal/nav/config"
	"github.com/meridian-saas/meridian/internal/nav/resolve"
	"github.com/meridian-saas/meridian/internal/platform/cache"
	"github.com/meridian-saas/meridian/internal/platform/db"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/internal/users"
	"github.com/meridian-saas/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	userService := users.NewService(users.NewRepository(pool))
	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, userService)
	tenantRepo := tenant.NewRepository(pool)
	catalogService := catalog.NewService(catalog.NewRepository(pool))
	configRepo := navconfig.NewRepository(pool)
	navCache := resolve.NewCache(redisClient, cfg.NavTTL)
	engine := resolve.NewEngine(logger, configRepo, catalogService, rbacService, userService, tenantRepo, navCache, nil)

	metrics := jobmetrics.NewMetrics(nil)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeArtifactCleanup, Handler: jobs.ArtifactCleanupHandler(pool, redisClient, metrics, logger)},
			{Type: jobs.TaskTypeCacheWarmup, Handler: jobs.CacheWarmupHandler(engine, userService, metrics, logger)},
			{Type: jobs.TaskTypeCacheWarmupSweep, Handler: jobs.CacheWarmupSweepHandler(tenantRepo, jobsClient, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 4 * * *", Task: jobs.NewCacheWarmupSweepTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
