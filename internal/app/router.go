package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-saas/meridian/internal/nav/catalog"
	navhttp "github.com/meridian-saas/meridian/internal/nav/http"
	"github.com/meridian-saas/meridian/internal/observability"
	"github.com/meridian-saas/meridian/internal/rbac"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	TenantHandler  *tenant.Handler
	RBACHandler    *rbac.Handler
	CatalogHandler *catalog.Handler
	NavHandler     *navhttp.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
		r.Route("/configurations", params.NavHandler.MountConfigRoutes)
		r.Route("/tenants", func(r chi.Router) {
			params.TenantHandler.MountRoutes(r)
			r.Route("/{tenantID}", func(r chi.Router) {
				params.TenantHandler.MountItemRoutes(r)
				params.RBACHandler.MountTenantRoutes(r)
				params.NavHandler.MountTenantRoutes(r)
			})
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
