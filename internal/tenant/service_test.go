package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-saas/meridian/internal/shared"
)

type memoryTenantRepo struct {
	tenants map[int64]Tenant
	nextID  int64
}

func newMemoryTenantRepo() *memoryTenantRepo {
	return &memoryTenantRepo{tenants: make(map[int64]Tenant)}
}

func (r *memoryTenantRepo) Create(ctx context.Context, name, plan string) (Tenant, error) {
	r.nextID++
	t := Tenant{ID: r.nextID, Name: name, Plan: plan, Status: StatusActive}
	r.tenants[t.ID] = t
	return t, nil
}

func (r *memoryTenantRepo) Get(ctx context.Context, id int64) (Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *memoryTenantRepo) List(ctx context.Context) ([]Tenant, error) {
	out := make([]Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryTenantRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	t, ok := r.tenants[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	r.tenants[id] = t
	return nil
}

type recordingCloner struct {
	tenantIDs []int64
}

func (c *recordingCloner) CloneTemplatesForTenant(ctx context.Context, tenantID int64) error {
	c.tenantIDs = append(c.tenantIDs, tenantID)
	return nil
}

func TestCreateClonesRoleTemplates(t *testing.T) {
	repo := newMemoryTenantRepo()
	cloner := &recordingCloner{}
	svc := NewService(repo, cloner)

	created, err := svc.Create(context.Background(), "Acme Industries", "enterprise")
	require.NoError(t, err)
	require.Equal(t, "Acme Industries", created.Name)
	require.Equal(t, StatusActive, created.Status)
	require.Equal(t, []int64{created.ID}, cloner.tenantIDs)
}

func TestCreateDefaultsPlanAndTrimsName(t *testing.T) {
	svc := NewService(newMemoryTenantRepo(), &recordingCloner{})

	created, err := svc.Create(context.Background(), "  Borealis Labs  ", "")
	require.NoError(t, err)
	require.Equal(t, "Borealis Labs", created.Name)
	require.Equal(t, "standard", created.Plan)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryTenantRepo(), &recordingCloner{})

	_, err := svc.Create(context.Background(), "   ", "standard")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSuspendAndReactivate(t *testing.T) {
	repo := newMemoryTenantRepo()
	svc := NewService(repo, &recordingCloner{})

	created, err := svc.Create(context.Background(), "Acme", "standard")
	require.NoError(t, err)

	require.NoError(t, svc.Suspend(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, got.Status)

	require.NoError(t, svc.Reactivate(context.Background(), created.ID))
	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newMemoryTenantRepo(), &recordingCloner{})

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}
