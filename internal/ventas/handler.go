package ventas

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

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

// Handler exposes the sales endpoints.
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

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermVentasIndex))
		r.Get("/", h.listVentas)
		r.Get("/{id}", h.getVenta)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermVentasStore))
		r.Post("/", h.createVenta)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermVentasUpdate))
		r.Put("/{id}", h.updateVenta)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermVentasDestroy))
		r.Delete("/{id}", h.deleteVenta)
	})
}

type ventaItemRequest struct {
	ProductoID     int64  `json:"producto_id" validate:"required"`
	Cantidad       int64  `json:"cantidad" validate:"required,gt=0"`
	PrecioUnitario string `json:"precio_unitario" validate:"required"`
}

type ventaRequest struct {
	Folio     string             `json:"folio" validate:"required,max=60"`
	Cliente   string             `json:"cliente" validate:"required,max=200"`
	Items     []ventaItemRequest `json:"items" validate:"required,min=1,dive"`
	CompanyID *int64             `json:"company_id"`
}

type listMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Data []Venta  `json:"data"`
	Meta listMeta `json:"meta"`
}

func (h *Handler) listVentas(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	filter := h.provider.Engine().Scope().Filter(principal)

	q := ListQuery{Folio: r.URL.Query().Get("folio")}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	// Soft-deleted rows are an administrative view only.
	q.IncludeDeleted = filter.Mode() == authz.FilterAcceptAll && r.URL.Query().Get("include_deleted") == "true"

	ventas, total, err := h.service.List(r.Context(), filter, q)
	if err != nil {
		h.logger.Error("list ventas", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if ventas == nil {
		ventas = []Venta{}
	}
	page := shared.NewPagination(q.Page, q.PerPage, total)
	httpx.JSON(w, http.StatusOK, listResponse{
		Data: ventas,
		Meta: listMeta{Page: page.Page, PerPage: page.PerPage, Total: page.Total, TotalPages: page.TotalPages},
	})
}

func (h *Handler) getVenta(w http.ResponseWriter, r *http.Request) {
	venta, principal, ok := h.fetchAuthorized(w, r, shared.PermVentasIndex)
	if !ok {
		return
	}
	if venta.Deleted() && !h.provider.Engine().Resolver().IsBypass(principal) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
		return
	}
	httpx.JSON(w, http.StatusOK, venta)
}

func (h *Handler) createVenta(w http.ResponseWriter, r *http.Request) {
	req, items, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision, companyID := h.provider.Engine().AuthorizeForCreate(principal, shared.PermVentasStore, req.CompanyID)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return
	}
	venta, err := h.service.Create(r.Context(), r.Header.Get("Idempotency-Key"), Venta{
		CompanyID: companyID,
		Folio:     req.Folio,
		Cliente:   req.Cliente,
		Items:     items,
		CreatedBy: principal.ID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, venta)
}

func (h *Handler) updateVenta(w http.ResponseWriter, r *http.Request) {
	venta, principal, ok := h.fetchAuthorized(w, r, shared.PermVentasUpdate)
	if !ok {
		return
	}
	if venta.Deleted() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
		return
	}
	req, items, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	venta.Cliente = req.Cliente
	venta.Items = items

	updated, err := h.service.Update(r.Context(), principal.ID, *venta)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteVenta(w http.ResponseWriter, r *http.Request) {
	venta, principal, ok := h.fetchAuthorized(w, r, shared.PermVentasDestroy)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal.ID, venta.ID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fetchAuthorized(w http.ResponseWriter, r *http.Request, permission string) (*Venta, *authz.Principal, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sale id")
		return nil, nil, false
	}
	venta, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
			return nil, nil, false
		}
		h.logger.Error("get venta", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, nil, false
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision := h.provider.Engine().Authorize(principal, permission, venta)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return nil, nil, false
	}
	return venta, principal, true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (ventaRequest, []VentaItem, bool) {
	var req ventaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return req, nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, nil, false
	}
	items := make([]VentaItem, 0, len(req.Items))
	for _, it := range req.Items {
		precio, err := decimal.NewFromString(it.PrecioUnitario)
		if err != nil || precio.IsNegative() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid unit price")
			return req, nil, false
		}
		items = append(items, VentaItem{ProductoID: it.ProductoID, Cantidad: it.Cantidad, PrecioUnitario: precio})
	}
	return req, items, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
	case errors.Is(err, ErrDuplicateFolio):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "folio already in use")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
	case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidItem):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ventas service", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
