package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-saas/meridian/internal/jobs"
	"github.com/meridian-saas/meridian/internal/nav/resolve"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/internal/users"
)

// UserLister supplies the tenant's users for warmup.
type UserLister interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]users.User, error)
}

// TenantLister supplies tenants for the periodic sweep.
type TenantLister interface {
	List(ctx context.Context) ([]tenant.Tenant, error)
}

// CacheWarmupHandler resolves navigation for every active user of the
// tenant so the first page load after an invalidation hits the cache.
// Per-user failures are logged and skipped.
func CacheWarmupHandler(engine *resolve.Engine, userLister UserLister, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CacheWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if engine == nil || userLister == nil {
			return nil
		}
		tracker := metrics.Track("cache_warmup")
		return tracker.End(warmTenant(ctx, engine, userLister, logger, payload))
	}
}

// CacheWarmupSweepHandler enqueues a warmup task for every active
// tenant. Registered on the scheduler so caches stay warm overnight.
func CacheWarmupSweepHandler(tenants TenantLister, client *Client, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if tenants == nil || client == nil {
			return nil
		}
		tracker := metrics.Track("cache_warmup_sweep")
		return tracker.End(sweepTenants(ctx, tenants, client, logger))
	}
}

func sweepTenants(ctx context.Context, tenants TenantLister, client *Client, logger *slog.Logger) error {
	all, err := tenants.List(ctx)
	if err != nil {
		return err
	}
	enqueued := 0
	for _, tn := range all {
		if tn.Status != tenant.StatusActive {
			continue
		}
		if err := client.EnqueueCacheWarmup(ctx, tn.ID); err != nil {
			if logger != nil {
				logger.Warn("enqueue warmup", slog.Int64("tenant_id", tn.ID), slog.Any("error", err))
			}
			continue
		}
		enqueued++
	}
	if logger != nil {
		logger.Info("scheduled navigation warmups",
			slog.String("job", "cache_warmup_sweep"),
			slog.Int("tenants", enqueued))
	}
	return nil
}

func warmTenant(ctx context.Context, engine *resolve.Engine, userLister UserLister, logger *slog.Logger, payload CacheWarmupPayload) error {
	tenantUsers, err := userLister.ListByTenant(ctx, payload.TenantID)
	if err != nil {
		return err
	}
	warmed := 0
	for _, u := range tenantUsers {
		if !u.IsActive {
			continue
		}
		if _, err := engine.Resolve(ctx, payload.TenantID, u.ID); err != nil {
			if logger != nil {
				logger.Warn("warmup resolve", slog.Int64("user_id", u.ID), slog.Any("error", err))
			}
			continue
		}
		warmed++
	}
	if logger != nil {
		logger.Info("warmed navigation cache",
			slog.String("job", "cache_warmup"),
			slog.Int64("tenant_id", payload.TenantID),
			slog.Int("users", warmed))
	}
	return nil
}
