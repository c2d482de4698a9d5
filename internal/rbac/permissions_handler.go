package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// PermissionsHandler serves the permission catalog: the static registry
// grouped by module, plus the persisted rows with their ids for binding
// administration.
type PermissionsHandler struct {
	logger   *slog.Logger
	service  *Service
	registry *authz.PermissionRegistry
	guard    PermissionGuard
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, registry *authz.PermissionRegistry, guard PermissionGuard) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, registry: registry, guard: guard}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermPermisosView))
		r.Get("/", h.listPermissions)
		r.Get("/catalog", h.listCatalog)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

type catalogModule struct {
	Module      string   `json:"module"`
	Permissions []string `json:"permissions"`
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	modules := h.registry.Modules()
	out := make([]catalogModule, 0, len(modules))
	for _, m := range modules {
		out = append(out, catalogModule{Module: m, Permissions: h.registry.ModulePermissions(m)})
	}
	httpx.JSON(w, http.StatusOK, out)
}
