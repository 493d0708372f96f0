// Package jobs holds the background task definitions and the Asynq
// worker that processes them.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeArtifactCleanup removes UI artifacts generated for a
	// deleted navigation configuration.
	TaskTypeArtifactCleanup = "nav:artifact_cleanup"
	// TaskTypeCacheWarmup pre-resolves navigation for a tenant's users.
	TaskTypeCacheWarmup = "nav:cache_warmup"
	// TaskTypeCacheWarmupSweep fans out a warmup task per active tenant.
	TaskTypeCacheWarmupSweep = "nav:cache_warmup_sweep"
)

// ArtifactCleanupPayload identifies the configuration whose artifacts
// should be removed.
type ArtifactCleanupPayload struct {
	ConfigID uuid.UUID `json:"config_id"`
	TenantID int64     `json:"tenant_id"`
}

// NewArtifactCleanupTask constructs an Asynq task.
func NewArtifactCleanupTask(payload ArtifactCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeArtifactCleanup, data), nil
}

// CacheWarmupPayload identifies the tenant whose resolutions to warm.
type CacheWarmupPayload struct {
	TenantID int64 `json:"tenant_id"`
}

// NewCacheWarmupTask constructs an Asynq task.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCacheWarmup, data), nil
}

// NewCacheWarmupSweepTask constructs the scheduler's periodic sweep task.
func NewCacheWarmupSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCacheWarmupSweep, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueCleanup schedules artifact cleanup for a deleted configuration.
func (c *Client) EnqueueCleanup(ctx context.Context, configID uuid.UUID, tenantID int64) error {
	task, err := NewArtifactCleanupTask(ArtifactCleanupPayload{ConfigID: configID, TenantID: tenantID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueCacheWarmup schedules navigation warmup for a tenant.
func (c *Client) EnqueueCacheWarmup(ctx context.Context, tenantID int64) error {
	task, err := NewCacheWarmupTask(CacheWarmupPayload{TenantID: tenantID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
