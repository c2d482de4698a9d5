package productos

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

// Handler exposes the product catalog endpoints. Route guards cover the
// permission check; the handlers run the entity-level tenant check against
// the fetched row, so a row owned by another company produces the same
// response as a missing grant.
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

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermProductosIndex))
		r.Get("/", h.listProductos)
		r.Get("/{id}", h.getProducto)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermProductosStore))
		r.Post("/", h.createProducto)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermProductosUpdate))
		r.Put("/{id}", h.updateProducto)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard(shared.PermProductosDestroy))
		r.Delete("/{id}", h.deleteProducto)
	})
}

type productoRequest struct {
	Codigo      string `json:"codigo" validate:"required,max=60"`
	Nombre      string `json:"nombre" validate:"required,max=200"`
	Descripcion string `json:"descripcion" validate:"max=1000"`
	Precio      string `json:"precio" validate:"required"`
	Stock       int64  `json:"stock" validate:"gte=0"`
	Activo      bool   `json:"activo"`
	CompanyID   *int64 `json:"company_id"`
}

type listMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Data []Producto `json:"data"`
	Meta listMeta   `json:"meta"`
}

func (h *Handler) listProductos(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	filter := h.provider.Engine().Scope().Filter(principal)

	q := ListQuery{Search: r.URL.Query().Get("search")}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	items, total, err := h.service.List(r.Context(), filter, q)
	if err != nil {
		h.logger.Error("list productos", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if items == nil {
		items = []Producto{}
	}
	page := shared.NewPagination(q.Page, q.PerPage, total)
	httpx.JSON(w, http.StatusOK, listResponse{
		Data: items,
		Meta: listMeta{Page: page.Page, PerPage: page.PerPage, Total: page.Total, TotalPages: page.TotalPages},
	})
}

func (h *Handler) getProducto(w http.ResponseWriter, r *http.Request) {
	producto, ok := h.fetchAuthorized(w, r, shared.PermProductosIndex)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, producto)
}

func (h *Handler) createProducto(w http.ResponseWriter, r *http.Request) {
	req, precio, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision, companyID := h.provider.Engine().AuthorizeForCreate(principal, shared.PermProductosStore, req.CompanyID)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return
	}
	producto, err := h.service.Create(r.Context(), Producto{
		CompanyID:   companyID,
		Codigo:      req.Codigo,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Precio:      precio,
		Stock:       req.Stock,
		Activo:      req.Activo,
	})
	if err != nil {
		h.logger.Error("create producto", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, producto)
}

func (h *Handler) updateProducto(w http.ResponseWriter, r *http.Request) {
	producto, ok := h.fetchAuthorized(w, r, shared.PermProductosUpdate)
	if !ok {
		return
	}
	req, precio, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	producto.Codigo = req.Codigo
	producto.Nombre = req.Nombre
	producto.Descripcion = req.Descripcion
	producto.Precio = precio
	producto.Stock = req.Stock
	producto.Activo = req.Activo

	updated, err := h.service.Update(r.Context(), *producto)
	if err != nil {
		h.logger.Error("update producto", slog.Int64("id", producto.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteProducto(w http.ResponseWriter, r *http.Request) {
	producto, ok := h.fetchAuthorized(w, r, shared.PermProductosDestroy)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), producto.ID); err != nil {
		h.logger.Error("delete producto", slog.Int64("id", producto.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchAuthorized loads the row named by the id path parameter and runs the
// entity-level authorization against it. It writes the response itself on
// any failure.
func (h *Handler) fetchAuthorized(w http.ResponseWriter, r *http.Request, permission string) (*Producto, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return nil, false
	}
	producto, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
			return nil, false
		}
		h.logger.Error("get producto", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	principal := authz.PrincipalFromContext(r.Context())
	decision := h.provider.Engine().Authorize(principal, permission, producto)
	h.metrics.ObserveDecision(decision)
	if !decision.Allowed {
		httpx.RespondDecision(w, decision)
		return nil, false
	}
	return producto, true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (productoRequest, decimal.Decimal, bool) {
	var req productoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return req, decimal.Zero, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, decimal.Zero, false
	}
	precio, err := decimal.NewFromString(req.Precio)
	if err != nil || precio.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid price")
		return req, decimal.Zero, false
	}
	return req, precio, true
}
