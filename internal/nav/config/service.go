package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-saas/meridian/internal/nav"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/shared"
)

// RepositoryPort defines data access methods for configurations.
type RepositoryPort interface {
	Create(ctx context.Context, c Configuration) (Configuration, error)
	Get(ctx context.Context, id uuid.UUID) (Configuration, error)
	Update(ctx context.Context, id uuid.UUID, payload nav.Payload, name string, updatedBy int64) (Configuration, error)
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTenant(ctx context.Context, tenantID int64) ([]Configuration, error)
}

// RoleDirectory supplies role records for scope validation.
type RoleDirectory interface {
	GetRole(ctx context.Context, id int64) (rbac.Role, error)
}

// ArtifactCleaner schedules cleanup of UI artifacts generated for a
// configuration by the page-generation collaborator.
type ArtifactCleaner interface {
	EnqueueCleanup(ctx context.Context, configID uuid.UUID, tenantID int64) error
}

// CacheInvalidator drops cached resolutions after a mutation.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// SaveParams carries the inputs of a save operation.
type SaveParams struct {
	TenantID int64
	Payload  nav.Payload
	Name     string
	Creator  int64
	UserID   *int64
	RoleID   *int64
	Activate bool
}

// Service owns the configuration lifecycle.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	roles   RoleDirectory
	cleaner ArtifactCleaner
	cache   CacheInvalidator
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, roles RoleDirectory, cleaner ArtifactCleaner, cache CacheInvalidator) *Service {
	return &Service{logger: logger, repo: repo, roles: roles, cleaner: cleaner, cache: cache}
}

// Save validates scope and payload, then persists a new configuration.
// The row starts inactive unless Activate is requested.
func (s *Service) Save(ctx context.Context, params SaveParams) (Configuration, error) {
	if params.UserID != nil && params.RoleID != nil {
		return Configuration{}, fmt.Errorf("%w: role and user scope are mutually exclusive", shared.ErrInvalidScope)
	}
	if strings.TrimSpace(params.Name) == "" {
		return Configuration{}, fmt.Errorf("%w: configuration name is required", shared.ErrValidation)
	}
	if err := s.checkRoleScope(ctx, params.TenantID, params.RoleID); err != nil {
		return Configuration{}, err
	}
	payload, err := nav.Normalize(params.Payload)
	if err != nil {
		return Configuration{}, err
	}
	created, err := s.repo.Create(ctx, Configuration{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		RoleID:        params.RoleID,
		UserID:        params.UserID,
		Name:          strings.TrimSpace(params.Name),
		Payload:       payload,
		SchemaVersion: payload.Version,
		CreatedBy:     params.Creator,
	})
	if err != nil {
		return Configuration{}, err
	}
	if params.Activate {
		if err := s.Activate(ctx, created.ID); err != nil {
			return Configuration{}, err
		}
		created.Active = true
	}
	return created, nil
}

// Update replaces payload and name of an existing configuration. Scope
// is immutable after save.
func (s *Service) Update(ctx context.Context, id uuid.UUID, payload nav.Payload, name string, updater int64) (Configuration, error) {
	if strings.TrimSpace(name) == "" {
		return Configuration{}, fmt.Errorf("%w: configuration name is required", shared.ErrValidation)
	}
	normalized, err := nav.Normalize(payload)
	if err != nil {
		return Configuration{}, err
	}
	updated, err := s.repo.Update(ctx, id, normalized, strings.TrimSpace(name), updater)
	if err != nil {
		return Configuration{}, err
	}
	s.bumpCache(ctx)
	return updated, nil
}

// Activate makes the configuration the single active one in its scope
// tuple.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Activate(ctx, id); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// Deactivate clears the active flag without activating a replacement.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// Delete removes the configuration and schedules cleanup of any
// generated UI artifacts. Cleanup scheduling failures are logged, never
// surfaced: the deletion itself has already happened.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cleaner != nil {
		if err := s.cleaner.EnqueueCleanup(ctx, c.ID, c.TenantID); err != nil {
			s.logger.Warn("enqueue artifact cleanup", slog.String("config_id", c.ID.String()), slog.Any("error", err))
		}
	}
	s.bumpCache(ctx)
	return nil
}

// Duplicate copies a configuration's payload under a new name and
// scope. The duplicate always starts inactive.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, newName string, userID, roleID *int64, creator int64) (Configuration, error) {
	source, err := s.repo.Get(ctx, id)
	if err != nil {
		return Configuration{}, err
	}
	return s.Save(ctx, SaveParams{
		TenantID: source.TenantID,
		Payload:  source.Payload,
		Name:     newName,
		Creator:  creator,
		UserID:   userID,
		RoleID:   roleID,
	})
}

// Get fetches a configuration by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Configuration, error) {
	return s.repo.Get(ctx, id)
}

// ListByTenant returns the tenant's configurations.
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]Configuration, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// checkRoleScope verifies that a role-scoped configuration targets a
// role instance owned by the same tenant.
func (s *Service) checkRoleScope(ctx context.Context, tenantID int64, roleID *int64) error {
	if roleID == nil {
		return nil
	}
	role, err := s.roles.GetRole(ctx, *roleID)
	if err != nil {
		return err
	}
	if role.TenantID == nil || *role.TenantID != tenantID {
		return fmt.Errorf("%w: role %d does not belong to tenant %d", shared.ErrInvalidScope, *roleID, tenantID)
	}
	return nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump navigation cache", slog.Any("error", err))
	}
}
