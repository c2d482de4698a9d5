package productos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
)

type fakeRepo struct {
	items  map[int64]Producto
	nextID int64
}

func newFakeRepo(items ...Producto) *fakeRepo {
	repo := &fakeRepo{items: make(map[int64]Producto)}
	for _, p := range items {
		if p.ID > repo.nextID {
			repo.nextID = p.ID
		}
		repo.items[p.ID] = p
	}
	return repo
}

func (f *fakeRepo) List(_ context.Context, filter authz.TenantFilter, q ListQuery) ([]Producto, int, error) {
	var out []Producto
	for _, p := range f.items {
		p := p
		if !filter.Match(&p) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Producto, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Create(_ context.Context, p Producto) (Producto, error) {
	f.nextID++
	p.ID = f.nextID
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Update(_ context.Context, p Producto) (Producto, error) {
	if _, ok := f.items[p.ID]; !ok {
		return Producto{}, ErrNotFound
	}
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fixedEngine struct {
	engine *authz.PolicyEngine
}

func (f fixedEngine) Engine() *authz.PolicyEngine { return f.engine }

func testEngine() *authz.PolicyEngine {
	resolver := authz.NewRoleResolver("SuperAdmin", map[string][]string{
		"Vendedor":  {"productos.index", "productos.store", "productos.update"},
		"Bodeguero": {"productos.index", "productos.store", "productos.update", "productos.destroy"},
	})
	return authz.NewPolicyEngine(resolver)
}

func testGuard(engine *authz.PolicyEngine) func(permission string) func(http.Handler) http.Handler {
	return func(permission string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				decision := engine.Authorize(authz.PrincipalFromContext(r.Context()), permission, nil)
				if !decision.Allowed {
					httpx.RespondDecision(w, decision)
					return
				}
				next.ServeHTTP(w, r)
			})
		}
	}
}

func newTestRouter(repo *fakeRepo) chi.Router {
	engine := testEngine()
	handler := NewHandler(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewService(repo),
		fixedEngine{engine: engine},
		testGuard(engine),
		nil,
	)
	r := chi.NewRouter()
	r.Route("/productos", handler.MountRoutes)
	return r
}

func tenant(id int64) *int64 { return &id }

func producto(id, company int64, nombre string) Producto {
	return Producto{
		ID:        id,
		CompanyID: tenant(company),
		Codigo:    fmt.Sprintf("SKU-%d", id),
		Nombre:    nombre,
		Precio:    decimal.NewFromInt(100),
		Stock:     5,
		Activo:    true,
	}
}

func request(t *testing.T, principal *authz.Principal, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != nil {
		req = req.WithContext(authz.ContextWithPrincipal(req.Context(), principal))
	}
	return req
}

func TestListScopedToOwnTenant(t *testing.T) {
	repo := newFakeRepo(
		producto(1, 1, "Harina"),
		producto(2, 1, "Azucar"),
		producto(3, 2, "Cafe"),
	)
	router := newTestRouter(repo)

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodGet, "/productos/", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, p := range resp.Data {
		assert.Equal(t, int64(1), *p.CompanyID)
	}
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestListBypassSeesEveryTenant(t *testing.T) {
	repo := newFakeRepo(
		producto(1, 1, "Harina"),
		producto(2, 2, "Cafe"),
	)
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"SuperAdmin"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodGet, "/productos/", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestListWithoutTenantIsEmpty(t *testing.T) {
	repo := newFakeRepo(producto(1, 1, "Harina"))
	router := newTestRouter(repo)

	orphan := &authz.Principal{ID: 20, Roles: []string{"Vendedor"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, orphan, http.MethodGet, "/productos/", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.Meta.Total)
}

func TestGetForeignTenantMatchesMissingPermissionResponse(t *testing.T) {
	repo := newFakeRepo(
		producto(1, 1, "Harina"),
		producto(3, 2, "Cafe"),
	)
	router := newTestRouter(repo)

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}

	foreign := httptest.NewRecorder()
	router.ServeHTTP(foreign, request(t, vendedor, http.MethodGet, "/productos/3", ""))
	require.Equal(t, http.StatusForbidden, foreign.Code)

	// Vendedor lacks productos.destroy; the body must be indistinguishable
	// from the foreign-tenant denial above.
	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, request(t, vendedor, http.MethodDelete, "/productos/1", ""))
	require.Equal(t, http.StatusForbidden, missing.Code)

	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())
}

func TestGetOwnTenant(t *testing.T) {
	repo := newFakeRepo(producto(1, 1, "Harina"))
	router := newTestRouter(repo)

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodGet, "/productos/1", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var got Producto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Harina", got.Nombre)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodGet, "/productos/99", ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePinsOwnerToPrincipalTenant(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	body := `{"codigo":"SKU-9","nombre":"Te","precio":"40.50","stock":3,"activo":true,"company_id":2}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodPost, "/productos/", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got Producto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(1), *got.CompanyID)
}

func TestCreateBypassKeepsRequestedTenant(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"SuperAdmin"}}
	body := `{"codigo":"SKU-9","nombre":"Te","precio":"40.50","stock":3,"activo":true,"company_id":2}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodPost, "/productos/", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got Producto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(2), *got.CompanyID)
}

func TestCreateRejectsInvalidPrice(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	body := `{"codigo":"SKU-9","nombre":"Te","precio":"-5","stock":3}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodPost, "/productos/", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateForeignTenantDenied(t *testing.T) {
	repo := newFakeRepo(producto(3, 2, "Cafe"))
	router := newTestRouter(repo)

	vendedor := &authz.Principal{ID: 10, Roles: []string{"Vendedor"}, TenantID: tenant(1)}
	body := `{"codigo":"SKU-3","nombre":"Cafe Premium","precio":"250","stock":9,"activo":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, vendedor, http.MethodPut, "/productos/3", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Cafe", repo.items[3].Nombre)
}

func TestDeleteRequiresDestroyPermission(t *testing.T) {
	repo := newFakeRepo(producto(1, 1, "Harina"))
	router := newTestRouter(repo)

	bodeguero := &authz.Principal{ID: 11, Roles: []string{"Bodeguero"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, bodeguero, http.MethodDelete, "/productos/1", ""))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.items)
}

func TestUnauthenticatedIsUnauthorized(t *testing.T) {
	router := newTestRouter(newFakeRepo(producto(1, 1, "Harina")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, nil, http.MethodGet, "/productos/", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
