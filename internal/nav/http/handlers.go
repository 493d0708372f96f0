// Package http exposes the navigation engine over JSON endpoints.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-saas/meridian/internal/nav"
	"github.com/meridian-saas/meridian/internal/nav/config"
	"github.com/meridian-saas/meridian/internal/nav/resolve"
	"github.com/meridian-saas/meridian/internal/platform/httpx"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Handler serves navigation resolution and configuration lifecycle
// endpoints.
type Handler struct {
	logger   *slog.Logger
	engine   *resolve.Engine
	configs  *config.Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, engine *resolve.Engine, configs *config.Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, engine: engine, configs: configs, validate: validator.New(), rbac: rbac}
}

// MountTenantRoutes registers tenant-scoped navigation routes.
func (h *Handler) MountTenantRoutes(r chi.Router) {
	r.Get("/navigation", h.getNavigation)
	r.Post("/navigation/preview", h.previewConfiguration)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermManageNavigation))
		r.Get("/configurations", h.listConfigurations)
		r.Post("/configurations", h.saveConfiguration)
	})
}

// MountConfigRoutes registers configuration lifecycle routes addressed
// by configuration id.
func (h *Handler) MountConfigRoutes(r chi.Router) {
	r.Get("/{configID}", h.getConfiguration)
	r.Put("/{configID}", h.updateConfiguration)
	r.Post("/{configID}/activate", h.activateConfiguration)
	r.Post("/{configID}/deactivate", h.deactivateConfiguration)
	r.Post("/{configID}/duplicate", h.duplicateConfiguration)
	r.Delete("/{configID}", h.deleteConfiguration)
}

// getNavigation resolves the effective navigation tree for the current
// user, used both for live rendering and the builder's initial load.
func (h *Handler) getNavigation(w http.ResponseWriter, r *http.Request) {
	tenantID, principal, ok := h.tenantAndPrincipal(w, r)
	if !ok {
		return
	}
	resolution, err := h.engine.Resolve(r.Context(), tenantID, principal.UserID)
	if err != nil {
		h.logger.Error("resolve navigation", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resolution)
}

type saveConfigurationRequest struct {
	Name     string      `json:"name" validate:"required"`
	Payload  nav.Payload `json:"payload" validate:"required"`
	UserID   *int64      `json:"user_id"`
	RoleID   *int64      `json:"role_id"`
	Activate bool        `json:"activate"`
}

func (h *Handler) saveConfiguration(w http.ResponseWriter, r *http.Request) {
	tenantID, principal, ok := h.tenantAndPrincipal(w, r)
	if !ok {
		return
	}
	var req saveConfigurationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.configs.Save(r.Context(), config.SaveParams{
		TenantID: tenantID,
		Payload:  req.Payload,
		Name:     req.Name,
		Creator:  principal.UserID,
		UserID:   req.UserID,
		RoleID:   req.RoleID,
		Activate: req.Activate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"configuration": created})
}

func (h *Handler) listConfigurations(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.tenantAndPrincipal(w, r)
	if !ok {
		return
	}
	configs, err := h.configs.ListByTenant(r.Context(), tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"configurations": configs})
}

type previewRequest struct {
	Payload nav.Payload `json:"payload" validate:"required"`
	UserID  *int64      `json:"user_id"`
}

// previewConfiguration filters an unsaved payload as the target user
// would see it. Defaults to the caller when no user is given.
func (h *Handler) previewConfiguration(w http.ResponseWriter, r *http.Request) {
	tenantID, principal, ok := h.tenantAndPrincipal(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	userID := principal.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	resolution, err := h.engine.Preview(r.Context(), tenantID, userID, req.Payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resolution)
}

func (h *Handler) getConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	c, err := h.configs.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"configuration": c})
}

type updateConfigurationRequest struct {
	Name    string      `json:"name" validate:"required"`
	Payload nav.Payload `json:"payload" validate:"required"`
}

func (h *Handler) updateConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing principal")
		return
	}
	var req updateConfigurationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.configs.Update(r.Context(), id, req.Payload, req.Name, principal.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"configuration": updated})
}

func (h *Handler) activateConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	if err := h.configs.Activate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "active"})
}

func (h *Handler) deactivateConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	if err := h.configs.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "inactive"})
}

type duplicateRequest struct {
	Name   string `json:"name" validate:"required"`
	UserID *int64 `json:"user_id"`
	RoleID *int64 `json:"role_id"`
}

func (h *Handler) duplicateConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing principal")
		return
	}
	var req duplicateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	duplicated, err := h.configs.Duplicate(r.Context(), id, req.Name, req.UserID, req.RoleID, principal.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"configuration": duplicated})
}

func (h *Handler) deleteConfiguration(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	if err := h.configs.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tenantAndPrincipal(w http.ResponseWriter, r *http.Request) (int64, shared.Principal, bool) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return 0, shared.Principal{}, false
	}
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing principal")
		return 0, shared.Principal{}, false
	}
	return tenantID, principal, true
}

func configID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "configID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid configuration id")
		return uuid.Nil, false
	}
	return id, true
}
