package config

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-saas/meridian/internal/nav"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/shared"
)

type memoryConfigRepo struct {
	configs map[uuid.UUID]Configuration
}

func newMemoryConfigRepo() *memoryConfigRepo {
	return &memoryConfigRepo{configs: make(map[uuid.UUID]Configuration)}
}

func (r *memoryConfigRepo) Create(ctx context.Context, c Configuration) (Configuration, error) {
	r.configs[c.ID] = c
	return c, nil
}

func (r *memoryConfigRepo) Get(ctx context.Context, id uuid.UUID) (Configuration, error) {
	c, ok := r.configs[id]
	if !ok {
		return Configuration{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryConfigRepo) Update(ctx context.Context, id uuid.UUID, payload nav.Payload, name string, updatedBy int64) (Configuration, error) {
	c, ok := r.configs[id]
	if !ok {
		return Configuration{}, shared.ErrNotFound
	}
	c.Payload = payload
	c.SchemaVersion = payload.Version
	c.Name = name
	c.UpdatedBy = updatedBy
	r.configs[id] = c
	return c, nil
}

func (r *memoryConfigRepo) Activate(ctx context.Context, id uuid.UUID) error {
	target, ok := r.configs[id]
	if !ok {
		return shared.ErrNotFound
	}
	for otherID, other := range r.configs {
		if otherID != id && other.TenantID == target.TenantID && other.Scope() == target.Scope() &&
			equalTarget(other, target) {
			other.Active = false
			r.configs[otherID] = other
		}
	}
	target.Active = true
	r.configs[id] = target
	return nil
}

func equalTarget(a, b Configuration) bool {
	switch {
	case a.UserID != nil && b.UserID != nil:
		return *a.UserID == *b.UserID
	case a.RoleID != nil && b.RoleID != nil:
		return *a.RoleID == *b.RoleID
	default:
		return a.UserID == nil && b.UserID == nil && a.RoleID == nil && b.RoleID == nil
	}
}

func (r *memoryConfigRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	c, ok := r.configs[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Active = false
	r.configs[id] = c
	return nil
}

func (r *memoryConfigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.configs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.configs, id)
	return nil
}

func (r *memoryConfigRepo) ListByTenant(ctx context.Context, tenantID int64) ([]Configuration, error) {
	var out []Configuration
	for _, c := range r.configs {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

type staticRoleDir struct {
	roles map[int64]rbac.Role
}

func (d staticRoleDir) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := d.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

type recordingCleaner struct {
	calls []uuid.UUID
}

func (c *recordingCleaner) EnqueueCleanup(ctx context.Context, configID uuid.UUID, tenantID int64) error {
	c.calls = append(c.calls, configID)
	return nil
}

type countingInvalidator struct {
	bumps int
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func testPayload() nav.Payload {
	return nav.Payload{
		Version: nav.SchemaVersion,
		Items: []nav.Node{
			{Type: nav.NodeLink, Label: "Dashboard", Route: "/dashboard", Visible: true},
		},
	}
}

func newConfigService(repo *memoryConfigRepo, dir staticRoleDir, cleaner ArtifactCleaner, cache CacheInvalidator) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, dir, cleaner, cache)
}

func tenantRole(id, tenantID int64) (int64, rbac.Role) {
	return id, rbac.Role{ID: id, TenantID: &tenantID, Type: rbac.RoleTypeTenant}
}

func TestSaveRejectsDualScope(t *testing.T) {
	svc := newConfigService(newMemoryConfigRepo(), staticRoleDir{}, nil, nil)
	userID, roleID := int64(1), int64(2)

	_, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "bad", Payload: testPayload(),
		UserID: &userID, RoleID: &roleID,
	})
	require.ErrorIs(t, err, shared.ErrInvalidScope)
}

func TestSaveRejectsForeignRole(t *testing.T) {
	roleID, role := tenantRole(10, 2)
	svc := newConfigService(newMemoryConfigRepo(), staticRoleDir{roles: map[int64]rbac.Role{roleID: role}}, nil, nil)

	_, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "bad", Payload: testPayload(), RoleID: &roleID,
	})
	require.ErrorIs(t, err, shared.ErrInvalidScope)
}

func TestSaveRequiresName(t *testing.T) {
	svc := newConfigService(newMemoryConfigRepo(), staticRoleDir{}, nil, nil)

	_, err := svc.Save(context.Background(), SaveParams{TenantID: 1, Name: "   ", Payload: testPayload()})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSaveStartsInactiveByDefault(t *testing.T) {
	repo := newMemoryConfigRepo()
	svc := newConfigService(repo, staticRoleDir{}, nil, nil)

	created, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Draft", Payload: testPayload(), Creator: 7,
	})
	require.NoError(t, err)
	require.False(t, created.Active)
	require.Equal(t, ScopeDefault, created.Scope())
	require.NotEmpty(t, created.Payload.Items[0].ID)
}

func TestSaveWithActivateDisplacesPrevious(t *testing.T) {
	repo := newMemoryConfigRepo()
	cache := &countingInvalidator{}
	svc := newConfigService(repo, staticRoleDir{}, nil, cache)

	first, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "First", Payload: testPayload(), Activate: true,
	})
	require.NoError(t, err)
	require.True(t, first.Active)

	second, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Second", Payload: testPayload(), Activate: true,
	})
	require.NoError(t, err)
	require.True(t, second.Active)

	stored, err := repo.Get(context.Background(), first.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)
	require.Equal(t, 2, cache.bumps)
}

func TestActivatePerScopeTupleIsIndependent(t *testing.T) {
	repo := newMemoryConfigRepo()
	roleID, role := tenantRole(10, 1)
	svc := newConfigService(repo, staticRoleDir{roles: map[int64]rbac.Role{roleID: role}}, nil, nil)

	def, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Default", Payload: testPayload(), Activate: true,
	})
	require.NoError(t, err)

	scoped, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Editors", Payload: testPayload(), RoleID: &roleID, Activate: true,
	})
	require.NoError(t, err)
	require.True(t, scoped.Active)

	stored, err := repo.Get(context.Background(), def.ID)
	require.NoError(t, err)
	require.True(t, stored.Active)
}

func TestDeleteSchedulesArtifactCleanup(t *testing.T) {
	repo := newMemoryConfigRepo()
	cleaner := &recordingCleaner{}
	cache := &countingInvalidator{}
	svc := newConfigService(repo, staticRoleDir{}, cleaner, cache)

	created, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Doomed", Payload: testPayload(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.Equal(t, []uuid.UUID{created.ID}, cleaner.calls)
	require.Equal(t, 1, cache.bumps)

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDuplicateStartsInactive(t *testing.T) {
	repo := newMemoryConfigRepo()
	svc := newConfigService(repo, staticRoleDir{}, nil, nil)

	source, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Original", Payload: testPayload(), Activate: true,
	})
	require.NoError(t, err)

	userID := int64(42)
	copy, err := svc.Duplicate(context.Background(), source.ID, "Personal Copy", &userID, nil, 7)
	require.NoError(t, err)
	require.False(t, copy.Active)
	require.Equal(t, ScopeUser, copy.Scope())
	require.Equal(t, source.TenantID, copy.TenantID)
	require.Len(t, copy.Payload.Items, len(source.Payload.Items))
}

func TestUpdateNormalizesPayload(t *testing.T) {
	repo := newMemoryConfigRepo()
	cache := &countingInvalidator{}
	svc := newConfigService(repo, staticRoleDir{}, nil, cache)

	created, err := svc.Save(context.Background(), SaveParams{
		TenantID: 1, Name: "Draft", Payload: testPayload(),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, nav.Payload{
		Version: nav.SchemaVersion,
		Items:   []nav.Node{{Type: nav.NodeLink, Label: "Reports", Route: "/reports", Visible: true}},
	}, "Renamed", 9)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, int64(9), updated.UpdatedBy)
	require.NotEmpty(t, updated.Payload.Items[0].ID)
	require.Equal(t, 1, cache.bumps)

	_, err = svc.Update(context.Background(), created.ID, nav.Payload{Version: 99}, "Renamed", 9)
	require.ErrorIs(t, err, shared.ErrValidation)
}
