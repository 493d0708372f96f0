package tenant

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-saas/meridian/internal/platform/db"
	"github.com/meridian-saas/meridian/internal/shared"
)

// LifecycleManager owns destructive tenant operations. Deletion is an
// explicit orchestration rather than cascading model hooks: everything
// scoped to the tenant goes away inside a single transaction.
type LifecycleManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLifecycleManager constructs a LifecycleManager.
func NewLifecycleManager(pool *pgxpool.Pool, logger *slog.Logger) *LifecycleManager {
	return &LifecycleManager{pool: pool, logger: logger}
}

// purgeStatements remove everything scoped to one tenant, ordered so no
// step trips a foreign key of a later one: configurations first, then
// assignments (both the tenant's own and any held elsewhere by its
// users, which reference the users rows), then roles, then the users
// themselves. The tenant row itself goes last.
var purgeStatements = []string{
	`DELETE FROM nav_configurations WHERE tenant_id = $1`,
	`DELETE FROM role_assignments WHERE tenant_id = $1
		OR user_id IN (SELECT id FROM users WHERE tenant_id = $1)`,
	`DELETE FROM roles WHERE tenant_id = $1`,
	`DELETE FROM users WHERE tenant_id = $1`,
}

// DeleteTenant removes the tenant's navigation configurations, role
// assignments, role instances, and users before removing the tenant
// row. Returns ErrNotFound when the tenant does not exist.
func (m *LifecycleManager) DeleteTenant(ctx context.Context, tenantID int64) error {
	err := db.WithTx(ctx, m.pool, func(tx pgx.Tx) error {
		for _, stmt := range purgeStatements {
			if _, err := tx.Exec(ctx, stmt, tenantID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("tenant deleted", slog.Int64("tenant_id", tenantID))
	return nil
}
