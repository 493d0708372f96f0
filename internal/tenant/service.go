package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-saas/meridian/internal/shared"
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	Create(ctx context.Context, name, plan string) (Tenant, error)
	Get(ctx context.Context, id int64) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// TemplateCloner clones tenant-type role templates into a new tenant.
type TemplateCloner interface {
	CloneTemplatesForTenant(ctx context.Context, tenantID int64) error
}

// Service handles tenant business logic.
type Service struct {
	repo   RepositoryPort
	cloner TemplateCloner
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cloner TemplateCloner) *Service {
	return &Service{repo: repo, cloner: cloner}
}

// Create provisions a tenant and clones the role templates into it.
func (s *Service) Create(ctx context.Context, name, plan string) (Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tenant{}, fmt.Errorf("%w: tenant name is required", shared.ErrValidation)
	}
	if plan == "" {
		plan = "standard"
	}
	created, err := s.repo.Create(ctx, name, plan)
	if err != nil {
		return Tenant{}, err
	}
	if err := s.cloner.CloneTemplatesForTenant(ctx, created.ID); err != nil {
		return Tenant{}, err
	}
	return created, nil
}

// Get fetches a tenant by id.
func (s *Service) Get(ctx context.Context, id int64) (Tenant, error) {
	if id <= 0 {
		return Tenant{}, fmt.Errorf("%w: invalid tenant id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Suspend marks a tenant suspended.
func (s *Service) Suspend(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, StatusSuspended)
}

// Reactivate marks a tenant active again.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, StatusActive)
}
