package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/amnabbouti/launchpad-api-sub000/internal/auth"
	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/items"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/observability"
	"github.com/amnabbouti/launchpad-api-sub000/internal/organizations"
	"github.com/amnabbouti/launchpad-api-sub000/internal/roles"
	"github.com/amnabbouti/launchpad-api-sub000/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AuthMW       *auth.Middleware
	AuthzMW      *authz.Middleware
	AuthHandler  *auth.Handler
	RolesHandler *roles.Handler
	UsersHandler *users.Handler
	OrgsHandler  *organizations.Handler
	LicHandler   *licenses.Handler
	ItemsHandler *items.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with Launchpad defaults.
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(params.AuthMW.Principal)
		r.Use(params.AuthzMW.Handle)

		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.RolesHandler.MountRoutes(r)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.UsersHandler.MountRoutes(r)
		})
		r.Route("/organizations", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.OrgsHandler.MountRoutes(r)
		})
		r.Route("/userlicenses", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.LicHandler.MountRoutes(r)
		})
		r.Route("/plans", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.LicHandler.MountPlanRoutes(r)
		})
		r.Route("/items", func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			params.ItemsHandler.MountRoutes(r)
		})
	})

	return r
}
