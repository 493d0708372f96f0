package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-saas/meridian/internal/app"
	"github.com/meridian-saas/meridian/internal/nav/catalog"
	navconfig "github.com/meridian-saas/meridian/internal/nav/config"
	navhttp "github.com/meridian-saas/meridian/internal/nav/http"
	"github.com/meridian-saas/meridian/internal/nav/resolve"
	"github.com/meridian-saas/meridian/internal/observability"
	"github.com/meridian-saas/meridian/internal/platform/cache"
	"github.com/meridian-saas/meridian/internal/platform/db"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/internal/users"
	"github.com/meridian-saas/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, userService)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	tenantRepo := tenant.NewRepository(dbpool)
	tenantService := tenant.NewService(tenantRepo, rbacService)
	lifecycle := tenant.NewLifecycleManager(dbpool, logger)
	tenantHandler := tenant.NewHandler(logger, tenantService, lifecycle, rbacMiddleware)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

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

	navCache := resolve.NewCache(redisClient, cfg.NavTTL)

	configRepo := navconfig.NewRepository(dbpool)
	configService := navconfig.NewService(logger, configRepo, rbacRepo, jobsClient, navCache)

	metrics := observability.NewMetrics()

	engine := resolve.NewEngine(logger, configRepo, catalogService, rbacService, userService, tenantRepo, navCache, metrics)
	navHandler := navhttp.NewHandler(logger, engine, configService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		TenantHandler:  tenantHandler,
		RBACHandler:    rbacHandler,
		CatalogHandler: catalogHandler,
		NavHandler:     navHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
