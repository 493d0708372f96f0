package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-saas/meridian/internal/platform/httpx"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Handler exposes role and permission management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbac}
}

// MountPermissionRoutes registers the grouped permission listing.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Get("/", h.listGroupedPermissions)
}

// MountTenantRoutes registers tenant-scoped role routes.
func (h *Handler) MountTenantRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermManageTenantRoles))
		r.Get("/roles", h.listRoles)
		r.Put("/roles/{roleID}/permissions", h.updateRolePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermManageTenantUsers))
		r.Put("/users/{userID}/role", h.replaceUserRole)
	})
}

func (h *Handler) listGroupedPermissions(w http.ResponseWriter, r *http.Request) {
	tenantScoped := r.URL.Query().Get("tenant_scoped") == "true"
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions": h.service.GroupedPermissions(tenantScoped),
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	tenantID, err := urlInt64(r, "tenantID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	roles, err := h.service.ListByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

type updatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

func (h *Handler) updateRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := urlInt64(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	var req updatePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdatePermissions(r.Context(), roleID, req.Permissions); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type replaceRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

// replaceUserRole swaps a user's role within the tenant: all existing
// assignments under the tenant are removed before the new one is added.
func (h *Handler) replaceUserRole(w http.ResponseWriter, r *http.Request) {
	tenantID, err := urlInt64(r, "tenantID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	userID, err := urlInt64(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req replaceRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UnassignAll(r.Context(), userID, tenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	assignment, err := h.service.Assign(r.Context(), userID, req.RoleID, &tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignment": assignment})
}

func urlInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
