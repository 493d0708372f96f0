// Package resolve computes the navigation tree a user actually sees:
// the best-matching active configuration by scope precedence, filtered
// down to the user's effective permissions.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-saas/meridian/internal/nav"
	"github.com/meridian-saas/meridian/internal/nav/catalog"
	"github.com/meridian-saas/meridian/internal/nav/config"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/internal/users"
)

// Source names where a resolved tree came from.
type Source string

const (
	SourceUser    Source = "user"
	SourceRole    Source = "role"
	SourceDefault Source = "default"
	SourceCatalog Source = "catalog"
)

// Resolution is the filtered tree plus provenance metadata.
type Resolution struct {
	Items    []nav.Node        `json:"items"`
	Layout   string            `json:"layout,omitempty"`
	Theme    string            `json:"theme,omitempty"`
	Branding map[string]string `json:"branding,omitempty"`
	Version  int               `json:"version"`

	Source     Source     `json:"source"`
	ConfigID   *uuid.UUID `json:"config_id,omitempty"`
	ConfigName string     `json:"config_name,omitempty"`
}

// ConfigurationSource exposes the active-configuration lookups of the
// configuration store.
type ConfigurationSource interface {
	FindActiveForUser(ctx context.Context, tenantID, userID int64) (config.Configuration, error)
	FindActiveForRole(ctx context.Context, tenantID, roleID int64) (config.Configuration, error)
	FindActiveDefault(ctx context.Context, tenantID int64) (config.Configuration, error)
}

// CatalogSource supplies active catalog items for the fallback tree.
type CatalogSource interface {
	ListActive(ctx context.Context) ([]catalog.Item, error)
}

// AccessSource supplies permission facts and role assignments.
type AccessSource interface {
	EffectivePermissions(ctx context.Context, userID, tenantID int64) ([]string, error)
	AssignedRoles(ctx context.Context, userID, tenantID int64) ([]rbac.Role, error)
}

// UserDirectory supplies user records.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// TenantDirectory supplies tenant records.
type TenantDirectory interface {
	Get(ctx context.Context, id int64) (tenant.Tenant, error)
}

// MetricsRecorder counts resolutions by source. Nil disables counting.
type MetricsRecorder interface {
	ObserveResolution(source string)
}

// Engine is the resolution engine.
type Engine struct {
	logger  *slog.Logger
	configs ConfigurationSource
	catalog CatalogSource
	access  AccessSource
	users   UserDirectory
	tenants TenantDirectory
	cache   *Cache
	metrics MetricsRecorder
	sf      singleflight.Group
}

// NewEngine constructs the Engine.
func NewEngine(logger *slog.Logger, configs ConfigurationSource, catalogSource CatalogSource, access AccessSource, userDir UserDirectory, tenantDir TenantDirectory, cache *Cache, metrics MetricsRecorder) *Engine {
	return &Engine{
		logger:  logger,
		configs: configs,
		catalog: catalogSource,
		access:  access,
		users:   userDir,
		tenants: tenantDir,
		cache:   cache,
		metrics: metrics,
	}
}

// Resolve returns the navigation tree for one user in one tenant.
// Missing configurations are never an error: resolution degrades to
// the catalog fallback. Results are cached per (tenant, user) and
// concurrent cache misses for one key are collapsed.
func (e *Engine) Resolve(ctx context.Context, tenantID, userID int64) (Resolution, error) {
	res, err := e.resolve(ctx, tenantID, userID)
	if err == nil && e.metrics != nil {
		e.metrics.ObserveResolution(string(res.Source))
	}
	return res, err
}

func (e *Engine) resolve(ctx context.Context, tenantID, userID int64) (Resolution, error) {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}

	// Central admins have no tenant; configurations are always
	// tenant-scoped, so their navigation comes straight from the
	// catalog and skips configuration lookup entirely.
	if user.CentralAdmin {
		return e.catalogFallback(ctx, nav.AllowAll)
	}

	if _, err := e.tenants.Get(ctx, tenantID); err != nil {
		return Resolution{}, err
	}

	key, err := e.cacheKey(ctx, tenantID, userID)
	if err != nil {
		e.logger.Warn("navigation cache key", slog.Any("error", err))
		return e.resolveUncached(ctx, tenantID, user)
	}

	result, err, _ := e.singleflightResolve(ctx, key, func(ctx context.Context) (Resolution, error) {
		var cached Resolution
		loadErr := e.cache.FetchJSON(ctx, key, &cached, func(ctx context.Context) (interface{}, error) {
			return e.resolveUncached(ctx, tenantID, user)
		})
		return cached, loadErr
	})
	return result, err
}

// Preview applies permission filtering to an unsaved payload so the
// builder can show a draft as one user would see it. Nothing is
// persisted or activated.
func (e *Engine) Preview(ctx context.Context, tenantID, userID int64, payload nav.Payload) (Resolution, error) {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}
	normalized, err := nav.Normalize(payload)
	if err != nil {
		return Resolution{}, err
	}
	checker, err := e.checkerFor(ctx, user, tenantID)
	if err != nil {
		return Resolution{}, err
	}
	filtered := nav.Filter(normalized, checker)
	return Resolution{
		Items:    filtered.Items,
		Layout:   filtered.Layout,
		Theme:    filtered.Theme,
		Branding: filtered.Branding,
		Version:  filtered.Version,
		Source:   SourceUser,
	}, nil
}

func (e *Engine) resolveUncached(ctx context.Context, tenantID int64, user users.User) (Resolution, error) {
	checker, err := e.checkerFor(ctx, user, tenantID)
	if err != nil {
		return Resolution{}, err
	}

	chosen, source, found, err := e.pickConfiguration(ctx, tenantID, user)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		return e.catalogFallback(ctx, checker)
	}

	payload, err := nav.Upgrade(chosen.Payload)
	if err != nil {
		return Resolution{}, err
	}
	filtered := nav.Filter(payload, checker)
	id := chosen.ID
	return Resolution{
		Items:      filtered.Items,
		Layout:     filtered.Layout,
		Theme:      filtered.Theme,
		Branding:   filtered.Branding,
		Version:    filtered.Version,
		Source:     source,
		ConfigID:   &id,
		ConfigName: chosen.Name,
	}, nil
}

// pickConfiguration walks the precedence chain: user-specific first,
// then role-specific in assignment creation order, then the tenant
// default.
func (e *Engine) pickConfiguration(ctx context.Context, tenantID int64, user users.User) (config.Configuration, Source, bool, error) {
	cfg, err := e.configs.FindActiveForUser(ctx, tenantID, user.ID)
	switch {
	case err == nil:
		return cfg, SourceUser, true, nil
	case !errors.Is(err, shared.ErrNotFound):
		return config.Configuration{}, "", false, err
	}

	roles, err := e.access.AssignedRoles(ctx, user.ID, tenantID)
	if err != nil {
		return config.Configuration{}, "", false, err
	}
	for _, role := range roles {
		if role.TenantID == nil || *role.TenantID != tenantID {
			return config.Configuration{}, "", false,
				fmt.Errorf("%w: role %d does not belong to tenant %d", shared.ErrInvalidScope, role.ID, tenantID)
		}
		cfg, err := e.configs.FindActiveForRole(ctx, tenantID, role.ID)
		if err == nil {
			return cfg, SourceRole, true, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return config.Configuration{}, "", false, err
		}
	}

	cfg, err = e.configs.FindActiveDefault(ctx, tenantID)
	switch {
	case err == nil:
		return cfg, SourceDefault, true, nil
	case errors.Is(err, shared.ErrNotFound):
		return config.Configuration{}, "", false, nil
	default:
		return config.Configuration{}, "", false, err
	}
}

// catalogFallback synthesizes a tree from active catalog items, already
// ordered by category then sort order.
func (e *Engine) catalogFallback(ctx context.Context, checker nav.PermissionChecker) (Resolution, error) {
	items, err := e.catalog.ListActive(ctx)
	if err != nil {
		return Resolution{}, err
	}
	nodes := make([]nav.Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, nav.Node{
			ID:         fmt.Sprintf("catalog-%d", item.ID),
			Type:       nav.NodeLink,
			Label:      item.Label,
			Icon:       item.Icon,
			Route:      item.Route,
			Permission: item.Permission,
			Visible:    true,
		})
	}
	payload := nav.Filter(nav.Payload{Items: nodes, Version: nav.SchemaVersion}, checker)
	return Resolution{
		Items:   payload.Items,
		Version: payload.Version,
		Source:  SourceCatalog,
	}, nil
}

func (e *Engine) checkerFor(ctx context.Context, user users.User, tenantID int64) (nav.PermissionChecker, error) {
	if user.CentralAdmin {
		return nav.AllowAll, nil
	}
	perms, err := e.access.EffectivePermissions(ctx, user.ID, tenantID)
	if err != nil {
		return nil, err
	}
	return nav.SetChecker(perms), nil
}

func (e *Engine) cacheKey(ctx context.Context, tenantID, userID int64) (string, error) {
	if e.cache == nil {
		return fmt.Sprintf("nav:resolved:%d:%d", tenantID, userID), nil
	}
	return e.cache.Key(ctx, tenantID, userID)
}

func (e *Engine) singleflightResolve(ctx context.Context, key string, fn func(context.Context) (Resolution, error)) (Resolution, error, bool) {
	resultChan := e.sf.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err(), false
	case res := <-resultChan:
		resolution, _ := res.Val.(Resolution)
		return resolution, res.Err, res.Shared
	}
}
