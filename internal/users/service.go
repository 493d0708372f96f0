package users

import (
	"context"
	"fmt"

	"github.com/meridian-saas/meridian/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]User, error)
}

// Service handles user lookups for the navigation engine.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// ListByTenant returns users for one tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]User, error) {
	if tenantID <= 0 {
		return nil, fmt.Errorf("%w: invalid tenant id", shared.ErrValidation)
	}
	return s.repo.ListByTenant(ctx, tenantID)
}
