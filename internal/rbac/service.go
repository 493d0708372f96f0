package rbac

import (
	"context"
	"fmt"
	"sort"

	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/users"
)

// RepositoryPort defines data access methods for roles and assignments.
type RepositoryPort interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	ListTemplates(ctx context.Context, roleType RoleType) ([]Role, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]Role, error)
	FindByNameAndTenant(ctx context.Context, name string, tenantID *int64) (Role, error)
	CreateInstance(ctx context.Context, template Role, tenantID int64) error
	UpdatePermissions(ctx context.Context, roleID int64, permissions []string) error
	CreateAssignment(ctx context.Context, userID, roleID int64, tenantID *int64) (Assignment, error)
	DeleteAssignments(ctx context.Context, userID, tenantID int64) error
	ListAssignments(ctx context.Context, userID, tenantID int64) ([]Assignment, error)
	ListAssignedRoles(ctx context.Context, userID, tenantID int64) ([]Role, error)
}

// UserDirectory supplies user records, including the central-admin flag.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// Service orchestrates the role store and the assignment store.
type Service struct {
	repo  RepositoryPort
	users UserDirectory
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// CloneTemplatesForTenant creates one role instance per tenant-type
// template, snapshotting each template's current permission set. The
// operation is idempotent per (template, tenant) pair.
func (s *Service) CloneTemplatesForTenant(ctx context.Context, tenantID int64) error {
	templates, err := s.repo.ListTemplates(ctx, RoleTypeTenant)
	if err != nil {
		return err
	}
	for _, template := range templates {
		if err := s.repo.CreateInstance(ctx, template, tenantID); err != nil {
			return fmt.Errorf("rbac: clone template %q for tenant %d: %w", template.Name, tenantID, err)
		}
	}
	return nil
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// ListByTenant returns the tenant's role instances.
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]Role, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// FindByNameAndTenant looks up a role; a nil tenant finds central roles.
func (s *Service) FindByNameAndTenant(ctx context.Context, name string, tenantID *int64) (Role, error) {
	return s.repo.FindByNameAndTenant(ctx, name, tenantID)
}

// UpdatePermissions replaces the role's permission set. Unknown
// permission identifiers are rejected; an unchanged set is a no-op.
func (s *Service) UpdatePermissions(ctx context.Context, roleID int64, permissions []string) error {
	for _, p := range permissions {
		if !shared.KnownPermission(p) {
			return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, p)
		}
	}
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if samePermissionSet(role.Permissions, permissions) {
		return nil
	}
	return s.repo.UpdatePermissions(ctx, roleID, dedupe(permissions))
}

// Assign records a role assignment, enforcing tenant ownership: a
// tenant-owned role may only be assigned under its own tenant and a
// central role only with an absent tenant context.
func (s *Service) Assign(ctx context.Context, userID, roleID int64, tenantID *int64) (Assignment, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return Assignment{}, err
	}
	switch {
	case role.TenantID == nil && role.Type == RoleTypeCentral:
		if tenantID != nil {
			return Assignment{}, fmt.Errorf("%w: central role %q cannot be assigned under a tenant", shared.ErrInvalidScope, role.Name)
		}
	case role.TenantID != nil:
		if tenantID == nil || *tenantID != *role.TenantID {
			return Assignment{}, fmt.Errorf("%w: role %q belongs to tenant %d", shared.ErrInvalidScope, role.Name, *role.TenantID)
		}
	default:
		// Tenant-type templates are patterns, never directly assignable.
		return Assignment{}, fmt.Errorf("%w: role template %q cannot be assigned", shared.ErrInvalidScope, role.Name)
	}
	return s.repo.CreateAssignment(ctx, userID, roleID, tenantID)
}

// UnassignAll removes all of a user's assignments under one tenant,
// used when replacing a user's role.
func (s *Service) UnassignAll(ctx context.Context, userID, tenantID int64) error {
	return s.repo.DeleteAssignments(ctx, userID, tenantID)
}

// AssignedRoles returns the roles a user holds under one tenant in
// assignment creation order.
func (s *Service) AssignedRoles(ctx context.Context, userID, tenantID int64) ([]Role, error) {
	return s.repo.ListAssignedRoles(ctx, userID, tenantID)
}

// EffectivePermissions unions the permission sets of every role the
// user holds under the tenant. Central admins receive the full catalog
// regardless of assignments, independent of tenant.
func (s *Service) EffectivePermissions(ctx context.Context, userID, tenantID int64) ([]string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CentralAdmin {
		return sorted(shared.AllPermissions()), nil
	}
	roles, err := s.repo.ListAssignedRoles(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	union := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range role.Permissions {
			union[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	return sorted(out), nil
}

// GroupedPermissions exposes the catalog grouped by category. The
// tenant-scoped listing excludes system-level permissions.
func (s *Service) GroupedPermissions(tenantScoped bool) map[string]map[string]string {
	return shared.GroupedPermissions(tenantScoped)
}

func samePermissionSet(a, b []string) bool {
	if len(dedupe(a)) != len(dedupe(b)) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

func dedupe(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func sorted(perms []string) []string {
	sort.Strings(perms)
	return perms
}
