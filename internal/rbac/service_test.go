package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/users"
)

type memoryRoleRepo struct {
	roles       map[int64]Role
	assignments []Assignment
	nextID      int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[int64]Role)}
}

func (r *memoryRoleRepo) addRole(role Role) Role {
	r.nextID++
	role.ID = r.nextID
	r.roles[role.ID] = role
	return role
}

func (r *memoryRoleRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) ListTemplates(ctx context.Context, roleType RoleType) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		if role.TenantID == nil && role.TemplateID == nil && role.Type == roleType {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRoleRepo) ListByTenant(ctx context.Context, tenantID int64) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		if role.TenantID != nil && *role.TenantID == tenantID {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRoleRepo) FindByNameAndTenant(ctx context.Context, name string, tenantID *int64) (Role, error) {
	for _, role := range r.roles {
		if role.Name != name {
			continue
		}
		if tenantID == nil && role.TenantID == nil {
			return role, nil
		}
		if tenantID != nil && role.TenantID != nil && *role.TenantID == *tenantID {
			return role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (r *memoryRoleRepo) CreateInstance(ctx context.Context, template Role, tenantID int64) error {
	for _, role := range r.roles {
		if role.TemplateID != nil && *role.TemplateID == template.ID &&
			role.TenantID != nil && *role.TenantID == tenantID {
			return nil
		}
	}
	templateID := template.ID
	perms := append([]string(nil), template.Permissions...)
	r.addRole(Role{
		TenantID:    &tenantID,
		TemplateID:  &templateID,
		Name:        template.Name,
		DisplayName: template.DisplayName,
		Description: template.Description,
		Type:        template.Type,
		Permissions: perms,
	})
	return nil
}

func (r *memoryRoleRepo) UpdatePermissions(ctx context.Context, roleID int64, permissions []string) error {
	role, ok := r.roles[roleID]
	if !ok {
		return shared.ErrNotFound
	}
	role.Permissions = append([]string(nil), permissions...)
	r.roles[roleID] = role
	return nil
}

func (r *memoryRoleRepo) CreateAssignment(ctx context.Context, userID, roleID int64, tenantID *int64) (Assignment, error) {
	r.nextID++
	a := Assignment{ID: r.nextID, UserID: userID, RoleID: roleID, TenantID: tenantID, CreatedAt: time.Now()}
	r.assignments = append(r.assignments, a)
	return a, nil
}

func (r *memoryRoleRepo) DeleteAssignments(ctx context.Context, userID, tenantID int64) error {
	kept := r.assignments[:0]
	for _, a := range r.assignments {
		if a.UserID == userID && a.TenantID != nil && *a.TenantID == tenantID {
			continue
		}
		kept = append(kept, a)
	}
	r.assignments = kept
	return nil
}

func (r *memoryRoleRepo) ListAssignments(ctx context.Context, userID, tenantID int64) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.assignments {
		if a.UserID == userID && a.TenantID != nil && *a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRoleRepo) ListAssignedRoles(ctx context.Context, userID, tenantID int64) ([]Role, error) {
	var out []Role
	for _, a := range r.assignments {
		if a.UserID == userID && a.TenantID != nil && *a.TenantID == tenantID {
			out = append(out, r.roles[a.RoleID])
		}
	}
	return out, nil
}

type memoryUserDir struct {
	users map[int64]users.User
}

func (d memoryUserDir) Get(ctx context.Context, id int64) (users.User, error) {
	u, ok := d.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func newTestService() (*Service, *memoryRoleRepo, memoryUserDir) {
	repo := newMemoryRoleRepo()
	dir := memoryUserDir{users: map[int64]users.User{
		1: {ID: 1, CentralAdmin: true, IsActive: true},
		2: {ID: 2, IsActive: true},
	}}
	return NewService(repo, dir), repo, dir
}

func TestCloneTemplatesForTenantSnapshotsPermissions(t *testing.T) {
	svc, repo, _ := newTestService()
	tpl := repo.addRole(Role{Name: "editor", DisplayName: "Editor", Type: RoleTypeTenant,
		Permissions: []string{shared.PermManageContent}})

	require.NoError(t, svc.CloneTemplatesForTenant(context.Background(), 7))

	instances, err := svc.ListByTenant(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.Equal(t, "editor", instances[0].Name)
	require.Equal(t, []string{shared.PermManageContent}, instances[0].Permissions)

	// Later template edits never propagate to existing instances.
	require.NoError(t, svc.UpdatePermissions(context.Background(), tpl.ID,
		[]string{shared.PermManageContent, shared.PermPublishContent}))
	instances, err = svc.ListByTenant(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []string{shared.PermManageContent}, instances[0].Permissions)
}

func TestCloneTemplatesForTenantIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addRole(Role{Name: "viewer", Type: RoleTypeTenant, Permissions: []string{shared.PermViewDashboard}})

	require.NoError(t, svc.CloneTemplatesForTenant(context.Background(), 3))
	require.NoError(t, svc.CloneTemplatesForTenant(context.Background(), 3))

	instances, err := svc.ListByTenant(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, instances, 1)
}

func TestUpdatePermissionsRejectsUnknownIdentifier(t *testing.T) {
	svc, repo, _ := newTestService()
	role := repo.addRole(Role{Name: "viewer", Type: RoleTypeTenant})

	err := svc.UpdatePermissions(context.Background(), role.ID, []string{"fly_to_the_moon"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAssignEnforcesTenantOwnership(t *testing.T) {
	svc, repo, _ := newTestService()
	tenantA, tenantB := int64(1), int64(2)
	tplID := repo.addRole(Role{Name: "editor", Type: RoleTypeTenant}).ID
	instance := repo.addRole(Role{Name: "editor", Type: RoleTypeTenant, TenantID: &tenantA, TemplateID: &tplID})
	central := repo.addRole(Role{Name: "super_admin", Type: RoleTypeCentral, Permissions: []string{shared.PermCreateTenants}})

	// Instance under the wrong tenant.
	_, err := svc.Assign(context.Background(), 2, instance.ID, &tenantB)
	require.ErrorIs(t, err, shared.ErrInvalidScope)

	// Central role under any tenant.
	_, err = svc.Assign(context.Background(), 2, central.ID, &tenantA)
	require.ErrorIs(t, err, shared.ErrInvalidScope)

	// Templates are never assignable.
	_, err = svc.Assign(context.Background(), 2, tplID, &tenantA)
	require.ErrorIs(t, err, shared.ErrInvalidScope)

	// Matching tenant works.
	a, err := svc.Assign(context.Background(), 2, instance.ID, &tenantA)
	require.NoError(t, err)
	require.Equal(t, instance.ID, a.RoleID)

	// Central role without tenant context works.
	_, err = svc.Assign(context.Background(), 1, central.ID, nil)
	require.NoError(t, err)
}

func TestEffectivePermissionsUnionsAssignedRoles(t *testing.T) {
	svc, repo, _ := newTestService()
	tenantID := int64(4)
	tplID := repo.addRole(Role{Name: "t", Type: RoleTypeTenant}).ID
	editor := repo.addRole(Role{Name: "editor", Type: RoleTypeTenant, TenantID: &tenantID, TemplateID: &tplID,
		Permissions: []string{shared.PermManageContent, shared.PermViewDashboard}})
	viewer := repo.addRole(Role{Name: "viewer", Type: RoleTypeTenant, TenantID: &tenantID, TemplateID: &tplID,
		Permissions: []string{shared.PermViewDashboard, shared.PermViewReports}})

	_, err := svc.Assign(context.Background(), 2, editor.ID, &tenantID)
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), 2, viewer.ID, &tenantID)
	require.NoError(t, err)

	perms, err := svc.EffectivePermissions(context.Background(), 2, tenantID)
	require.NoError(t, err)
	require.Equal(t, []string{shared.PermManageContent, shared.PermViewDashboard, shared.PermViewReports}, perms)
}

func TestEffectivePermissionsCentralAdminGetsFullCatalog(t *testing.T) {
	svc, _, _ := newTestService()

	perms, err := svc.EffectivePermissions(context.Background(), 1, 99)
	require.NoError(t, err)
	require.ElementsMatch(t, shared.AllPermissions(), perms)
}

func TestUnassignAllClearsTenantAssignments(t *testing.T) {
	svc, repo, _ := newTestService()
	tenantID := int64(5)
	tplID := repo.addRole(Role{Name: "t", Type: RoleTypeTenant}).ID
	role := repo.addRole(Role{Name: "viewer", Type: RoleTypeTenant, TenantID: &tenantID, TemplateID: &tplID})

	_, err := svc.Assign(context.Background(), 2, role.ID, &tenantID)
	require.NoError(t, err)
	require.NoError(t, svc.UnassignAll(context.Background(), 2, tenantID))

	roles, err := svc.AssignedRoles(context.Background(), 2, tenantID)
	require.NoError(t, err)
	require.Empty(t, roles)
}
