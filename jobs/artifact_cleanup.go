package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/meridian-saas/meridian/internal/jobs"
)

// ArtifactCleanupHandler removes the page artifacts generated for a
// configuration: the rows in nav_page_artifacts plus any cached render
// keys in Redis.
func ArtifactCleanupHandler(pool *pgxpool.Pool, rdb *redis.Client, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ArtifactCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track("artifact_cleanup")
		return tracker.End(cleanupArtifacts(ctx, pool, rdb, logger, payload))
	}
}

func cleanupArtifacts(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger, payload ArtifactCleanupPayload) error {
	if pool != nil {
		if _, err := pool.Exec(ctx, `DELETE FROM nav_page_artifacts WHERE config_id = $1`, payload.ConfigID); err != nil {
			if logger != nil {
				logger.Error("delete page artifacts", slog.String("config_id", payload.ConfigID.String()), slog.Any("error", err))
			}
			return err
		}
	}
	if rdb != nil {
		pattern := fmt.Sprintf("nav:artifact:%d:%s:*", payload.TenantID, payload.ConfigID)
		iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	if logger != nil {
		logger.Info("cleaned configuration artifacts",
			slog.String("job", "artifact_cleanup"),
			slog.String("config_id", payload.ConfigID.String()),
			slog.Int64("tenant_id", payload.TenantID))
	}
	return nil
}
