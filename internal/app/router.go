package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/andes-erp/andes-erp/internal/asistente"
	"github.com/andes-erp/andes-erp/internal/auth"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/productos"
	"github.com/andes-erp/andes-erp/internal/rbac"
	"github.com/andes-erp/andes-erp/internal/shared"
	"github.com/andes-erp/andes-erp/internal/users"
	"github.com/andes-erp/andes-erp/internal/ventas"
	"github.com/andes-erp/andes-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthMiddleware auth.Middleware
	AuthHandler    *auth.Handler

	RolesHandler       *rbac.Handler
	PermissionsHandler *rbac.PermissionsHandler
	UsersHandler       *users.Handler
	ProductosHandler   *productos.Handler
	VentasHandler      *ventas.Handler
	AsistenteHandler   *asistente.Handler
	JobsHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.AuthMiddleware.WithPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.ProductosHandler != nil {
		r.Route("/productos", params.ProductosHandler.MountRoutes)
	}
	if params.VentasHandler != nil {
		r.Route("/ventas", params.VentasHandler.MountRoutes)
	}
	if params.AsistenteHandler != nil {
		r.Route("/asistente", params.AsistenteHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
