package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdesk/opsdesk/internal/analytics"
	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/billing"
	"github.com/opsdesk/opsdesk/internal/complaints"
	"github.com/opsdesk/opsdesk/internal/masterdata/items"
	"github.com/opsdesk/opsdesk/internal/masterdata/vendors"
	"github.com/opsdesk/opsdesk/internal/procurement"
	"github.com/opsdesk/opsdesk/jobs"
)

// Handlers aggregates every mounted HTTP surface.
type Handlers struct {
	Auth        *auth.Handler
	AuthService *auth.Service
	Vendors     *vendors.Handler
	Items       *items.Handler
	Bills       *billing.Handler
	Orders      *procurement.Handler
	Complaints  *complaints.Handler
	Analytics   *analytics.Handler
	Jobs        *jobs.Handler
}

// NewRouter assembles the API router. Everything under /api/v1 except
// login sits behind bearer-token auth.
func NewRouter(cfg MiddlewareConfig, h Handlers) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		h.Auth.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthService.RequireAuth)
			vendors.MountRoutes(r, h.Vendors)
			items.MountRoutes(r, h.Items)
			billing.MountRoutes(r, h.Bills)
			procurement.MountRoutes(r, h.Orders)
			complaints.MountRoutes(r, h.Complaints)
			analytics.MountRoutes(r, h.Analytics)
			if h.Jobs != nil {
				r.Route("/jobs", h.Jobs.MountRoutes)
			}
		})
	})

	return r
}
