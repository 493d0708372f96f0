package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

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

// Create inserts a tenant.
func (r *Repository) Create(ctx context.Context, name, plan string) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (name, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, plan, status, created_at, updated_at`, name, plan, StatusActive)
	return scanTenant(row)
}

// Get fetches a tenant by id.
func (r *Repository) Get(ctx context.Context, id int64) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, plan, status, created_at, updated_at FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// List returns all tenants ordered by name.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, plan, status, created_at, updated_at FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatus changes a tenant's status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, shared.ErrNotFound
		}
		return Tenant{}, err
	}
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return t, nil
}
