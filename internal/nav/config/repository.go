package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-saas/meridian/internal/nav"
	"github.com/meridian-saas/meridian/internal/platform/db"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `id, tenant_id, role_id, user_id, name, payload, schema_version, active, created_by, updated_by, created_at, updated_at`

// Create inserts a configuration row. New rows always start inactive.
func (r *Repository) Create(ctx context.Context, c Configuration) (Configuration, error) {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return Configuration{}, fmt.Errorf("nav/config: marshal payload: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO nav_configurations (id, tenant_id, role_id, user_id, name, payload, schema_version, active, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8, now(), now())
		RETURNING `+configColumns,
		c.ID, c.TenantID, c.RoleID, c.UserID, c.Name, payload, c.SchemaVersion, c.CreatedBy)
	return scanConfiguration(row)
}

// Get fetches a configuration by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Configuration, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+configColumns+` FROM nav_configurations WHERE id = $1`, id)
	return scanConfiguration(row)
}

// Update rewrites payload and name; scope never changes after save.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, payload nav.Payload, name string, updatedBy int64) (Configuration, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Configuration{}, fmt.Errorf("nav/config: marshal payload: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE nav_configurations
		SET payload = $2, schema_version = $3, name = $4, updated_by = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+configColumns, id, raw, payload.Version, name, updatedBy)
	return scanConfiguration(row)
}

// Activate flips the active flag to the target configuration within a
// serializable transaction: every sibling in the same scope tuple is
// deactivated first, so concurrent activations for one scope leave
// exactly one active row.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var tenantID int64
		var roleID, userID pgtype.Int8
		err := tx.QueryRow(ctx, `
			SELECT tenant_id, role_id, user_id FROM nav_configurations WHERE id = $1 FOR UPDATE`, id).
			Scan(&tenantID, &roleID, &userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE nav_configurations SET active = false, updated_at = now()
			WHERE tenant_id = $1
			  AND role_id IS NOT DISTINCT FROM $2
			  AND user_id IS NOT DISTINCT FROM $3
			  AND active AND id <> $4`, tenantID, roleID, userID, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE nav_configurations SET active = true, updated_at = now() WHERE id = $1`, id)
		return err
	})
}

// Deactivate clears the active flag.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE nav_configurations SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM nav_configurations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByTenant returns all of the tenant's configurations.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64) ([]Configuration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+configColumns+` FROM nav_configurations
		WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Configuration
	for rows.Next() {
		c, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindActiveForUser returns the active user-scoped configuration, if any.
func (r *Repository) FindActiveForUser(ctx context.Context, tenantID, userID int64) (Configuration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+configColumns+` FROM nav_configurations
		WHERE tenant_id = $1 AND user_id = $2 AND active`, tenantID, userID)
	return scanConfiguration(row)
}

// FindActiveForRole returns the active role-scoped configuration, if any.
func (r *Repository) FindActiveForRole(ctx context.Context, tenantID, roleID int64) (Configuration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+configColumns+` FROM nav_configurations
		WHERE tenant_id = $1 AND role_id = $2 AND active`, tenantID, roleID)
	return scanConfiguration(row)
}

// FindActiveDefault returns the active tenant-wide configuration, if any.
func (r *Repository) FindActiveDefault(ctx context.Context, tenantID int64) (Configuration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+configColumns+` FROM nav_configurations
		WHERE tenant_id = $1 AND role_id IS NULL AND user_id IS NULL AND active`, tenantID)
	return scanConfiguration(row)
}

func scanConfiguration(row pgx.Row) (Configuration, error) {
	var c Configuration
	var roleID, userID pgtype.Int8
	var raw []byte
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&c.ID, &c.TenantID, &roleID, &userID, &c.Name, &raw,
		&c.SchemaVersion, &c.Active, &c.CreatedBy, &c.UpdatedBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Configuration{}, shared.ErrNotFound
		}
		return Configuration{}, err
	}
	if roleID.Valid {
		c.RoleID = &roleID.Int64
	}
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Payload); err != nil {
			return Configuration{}, fmt.Errorf("nav/config: unmarshal payload: %w", err)
		}
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return c, nil
}
