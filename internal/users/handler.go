package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
	"github.com/andes-erp/andes-erp/internal/rbac"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// EngineSource yields the current policy engine snapshot.
type EngineSource interface {
	Engine() *authz.PolicyEngine
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	provider  EngineSource
	guard     rbac.PermissionGuard
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, provider EngineSource, guard rbac.PermissionGuard, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		provider:  provider,
		guard:     guard,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermUsuariosIndex))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermUsuariosStore))
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermUsuariosUpdate))
		r.Put("/{id}/active", h.setActive)
	})
}

type userRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,max=200"`
	Password  string `json:"password" validate:"required,min=8"`
	CompanyID *int64 `json:"company_id"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	filter := h.provider.Engine().Scope().Filter(principal)

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.fetchAuthorized(w, r, shared.PermUsuariosIndex)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision, companyID := h.provider.Engine().AuthorizeForCreate(principal, shared.PermUsuariosStore, req.CompanyID)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return
	}
	user, err := h.service.CreateUser(r.Context(), User{
		Email:     req.Email,
		Name:      req.Name,
		CompanyID: companyID,
	}, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.fetchAuthorized(w, r, shared.PermUsuariosUpdate)
	if !ok {
		return
	}
	var req activeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.service.SetActive(r.Context(), user.ID, req.Active); err != nil {
		h.logger.Error("set user active", slog.Int64("id", user.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fetchAuthorized(w http.ResponseWriter, r *http.Request, permission string) (*User, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return nil, false
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return nil, false
		}
		h.logger.Error("get user", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision := h.provider.Engine().Authorize(principal, permission, user)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return nil, false
	}
	return user, true
}
