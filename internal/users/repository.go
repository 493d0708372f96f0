package users

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

// Get fetches a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, email, name, central_admin, is_active, created_at, updated_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListByTenant returns active users belonging to one tenant.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, email, name, central_admin, is_active, created_at, updated_at
		FROM users WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var tenantID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&u.ID, &tenantID, &u.Email, &u.Name, &u.CentralAdmin, &u.IsActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	if tenantID.Valid {
		u.TenantID = &tenantID.Int64
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return u, nil
}
