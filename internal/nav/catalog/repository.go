package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const itemColumns = `id, item_key, label, icon, route, permission, category, sort_order, is_active, created_at, updated_at`

// ListActive returns active items ordered by category then sort order.
func (r *Repository) ListActive(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM nav_catalog_items
		WHERE is_active ORDER BY category, sort_order, item_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// Get fetches an item by id.
func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM nav_catalog_items WHERE id = $1`, id)
	return scanItem(row)
}

// Create inserts an item. A unique index on item_key turns key
// collisions into shared.ErrConflict for the service to disambiguate.
func (r *Repository) Create(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO nav_catalog_items (item_key, label, icon, route, permission, category, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+itemColumns,
		item.Key, item.Label, item.Icon, item.Route, nullIfEmpty(item.Permission),
		item.Category, item.SortOrder, item.IsActive)
	created, err := scanItem(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Item{}, shared.ErrConflict
		}
		return Item{}, err
	}
	return created, nil
}

// Update rewrites an item's mutable fields.
func (r *Repository) Update(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE nav_catalog_items
		SET label = $2, icon = $3, route = $4, permission = $5, category = $6,
		    sort_order = $7, is_active = $8, updated_at = now()
		WHERE id = $1`,
		item.ID, item.Label, item.Icon, item.Route, nullIfEmpty(item.Permission),
		item.Category, item.SortOrder, item.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an item by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM nav_catalog_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var permission pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&item.ID, &item.Key, &item.Label, &item.Icon, &item.Route,
		&permission, &item.Category, &item.SortOrder, &item.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	if permission.Valid {
		item.Permission = permission.String
	}
	if createdAt.Valid {
		item.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		item.UpdatedAt = updatedAt.Time
	}
	return item, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
