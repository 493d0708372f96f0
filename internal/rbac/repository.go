package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles and
// role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, tenant_id, template_id, name, display_name, description, role_type, permissions, created_at, updated_at`

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

// ListTemplates returns tenant-less templates of the given type.
func (r *Repository) ListTemplates(ctx context.Context, roleType RoleType) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE tenant_id IS NULL AND role_type = $1 ORDER BY name`, roleType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

// ListByTenant returns the tenant's role instances.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

// FindByNameAndTenant looks up a role by name; pass nil for central roles.
func (r *Repository) FindByNameAndTenant(ctx context.Context, name string, tenantID *int64) (Role, error) {
	var row pgx.Row
	if tenantID == nil {
		row = r.pool.QueryRow(ctx, `
			SELECT `+roleColumns+` FROM roles WHERE name = $1 AND tenant_id IS NULL`, name)
	} else {
		row = r.pool.QueryRow(ctx, `
			SELECT `+roleColumns+` FROM roles WHERE name = $1 AND tenant_id = $2`, name, *tenantID)
	}
	return scanRole(row)
}

// CreateInstance clones a template into a tenant. The unique index on
// (template_id, tenant_id) makes repeated clone calls idempotent.
func (r *Repository) CreateInstance(ctx context.Context, template Role, tenantID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (tenant_id, template_id, name, display_name, description, role_type, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (template_id, tenant_id) DO NOTHING`,
		tenantID, template.ID, template.Name, template.DisplayName, template.Description, RoleTypeTenant, template.Permissions)
	return err
}

// UpdatePermissions replaces the role's permission set.
func (r *Repository) UpdatePermissions(ctx context.Context, roleID int64, permissions []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE roles SET permissions = $2, updated_at = now() WHERE id = $1`, roleID, permissions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateAssignment records a user-role association under a tenant context.
func (r *Repository) CreateAssignment(ctx context.Context, userID, roleID int64, tenantID *int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO role_assignments (user_id, role_id, tenant_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, user_id, role_id, tenant_id, created_at`, userID, roleID, tenantID)
	return scanAssignment(row)
}

// DeleteAssignments removes all of a user's assignments under one tenant.
func (r *Repository) DeleteAssignments(ctx context.Context, userID, tenantID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_assignments WHERE user_id = $1 AND tenant_id = $2`, userID, tenantID)
	return err
}

// ListAssignments returns a user's assignments under one tenant in
// creation order. Creation order is the documented role tie-break for
// navigation resolution.
func (r *Repository) ListAssignments(ctx context.Context, userID, tenantID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, role_id, tenant_id, created_at
		FROM role_assignments
		WHERE user_id = $1 AND tenant_id = $2
		ORDER BY created_at, id`, userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAssignedRoles returns the roles a user holds under one tenant,
// in assignment creation order.
func (r *Repository) ListAssignedRoles(ctx context.Context, userID, tenantID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.tenant_id, r.template_id, r.name, r.display_name, r.description, r.role_type, r.permissions, r.created_at, r.updated_at
		FROM role_assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.user_id = $1 AND a.tenant_id = $2
		ORDER BY a.created_at, a.id`, userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	var out []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	var tenantID, templateID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&role.ID, &tenantID, &templateID, &role.Name, &role.DisplayName,
		&role.Description, &role.Type, &role.Permissions, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	if tenantID.Valid {
		role.TenantID = &tenantID.Int64
	}
	if templateID.Valid {
		role.TemplateID = &templateID.Int64
	}
	if createdAt.Valid {
		role.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		role.UpdatedAt = updatedAt.Time
	}
	return role, nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var tenantID pgtype.Int8
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &tenantID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	if tenantID.Valid {
		a.TenantID = &tenantID.Int64
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return a, nil
}
