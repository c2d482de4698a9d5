package asistente

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/andes-erp/andes-erp/internal/auth"
	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
	"github.com/andes-erp/andes-erp/internal/quota"
	"github.com/andes-erp/andes-erp/internal/rbac"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// Handler exposes the assistant chat endpoint. The permission guard runs
// first; the quota gate is consulted only for requests that already passed
// it, so an exhausted budget never masks a missing grant.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *quota.Gate
	guard     rbac.PermissionGuard
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *quota.Gate, guard rbac.PermissionGuard, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		guard:     guard,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermAsistenteChat))
		r.Post("/chat", h.chat)
	})
}

type chatRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal := authz.PrincipalFromContext(r.Context())
	pc := auth.PrincipalContextFromContext(r.Context())

	// Principals without a tenant (the bypass role) are unmetered.
	if principal.TenantID != nil && pc != nil && pc.Quota != nil {
		decision := h.gate.Check(*principal.TenantID, *pc.Quota)
		h.metrics.ObserveQuotaCheck(decision.Allowed)
		if !decision.Allowed {
			h.logger.Warn("assistant quota exhausted",
				slog.Int64("user_id", principal.ID),
				slog.Int64("company_id", *principal.TenantID),
				slog.String("period", pc.Quota.PeriodKey))
			httpx.RespondDecision(w, decision)
			return
		}
	}

	reply, err := h.service.Chat(r.Context(), principal.ID, principal.TenantID, req.Prompt)
	if err != nil {
		h.logger.Error("assistant chat", slog.Int64("user_id", principal.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, chatResponse{Reply: reply})
}
