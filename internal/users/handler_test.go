package users

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
)

type fakeRepo struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64
}

func newFakeRepo(users ...User) *fakeRepo {
	repo := &fakeRepo{users: make(map[int64]User), hashes: make(map[int64]string)}
	for _, u := range users {
		if u.ID > repo.nextID {
			repo.nextID = u.ID
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeRepo) ListUsers(_ context.Context, filter authz.TenantFilter) ([]User, error) {
	var out []User
	for _, u := range f.users {
		u := u
		if !filter.Match(&u) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetUser(_ context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, user User, passwordHash string) (User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return User{}, ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	f.hashes[user.ID] = passwordHash
	return user, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	f.users[id] = u
	return nil
}

type fixedEngine struct {
	engine *authz.PolicyEngine
}

func (f fixedEngine) Engine() *authz.PolicyEngine { return f.engine }

func testEngine() *authz.PolicyEngine {
	resolver := authz.NewRoleResolver("SuperAdmin", map[string][]string{
		"Admin": {"usuarios.index", "usuarios.store", "usuarios.update"},
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
	r.Route("/users", handler.MountRoutes)
	return r
}

func tenant(id int64) *int64 { return &id }

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
		User{ID: 1, Email: "ana@uno.test", CompanyID: tenant(1), IsActive: true},
		User{ID: 2, Email: "bob@dos.test", CompanyID: tenant(2), IsActive: true},
		User{ID: 3, Email: "ops@platform.test", IsActive: true},
	)
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"Admin"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodGet, "/users/", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ana@uno.test", got[0].Email)
}

func TestListBypassSeesEveryAccount(t *testing.T) {
	repo := newFakeRepo(
		User{ID: 1, Email: "ana@uno.test", CompanyID: tenant(1)},
		User{ID: 2, Email: "bob@dos.test", CompanyID: tenant(2)},
		User{ID: 3, Email: "ops@platform.test"},
	)
	router := newTestRouter(repo)

	root := &authz.Principal{ID: 9, Roles: []string{"SuperAdmin"}}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, root, http.MethodGet, "/users/", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 3)
}

func TestGetForeignTenantDenied(t *testing.T) {
	repo := newFakeRepo(User{ID: 2, Email: "bob@dos.test", CompanyID: tenant(2)})
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"Admin"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodGet, "/users/2", ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePinsAccountToPrincipalTenant(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"Admin"}, TenantID: tenant(1)}
	body := `{"email":"nuevo@uno.test","name":"Nuevo","password":"secret-pass","company_id":2}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodPost, "/users/", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(1), *got.CompanyID)
	assert.True(t, got.IsActive)

	hash := repo.hashes[got.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret-pass")))
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	repo := newFakeRepo(User{ID: 1, Email: "ana@uno.test", CompanyID: tenant(1)})
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"Admin"}, TenantID: tenant(1)}
	body := `{"email":"ana@uno.test","name":"Ana","password":"secret-pass"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodPost, "/users/", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetActive(t *testing.T) {
	repo := newFakeRepo(User{ID: 1, Email: "ana@uno.test", CompanyID: tenant(1), IsActive: true})
	router := newTestRouter(repo)

	admin := &authz.Principal{ID: 1, Roles: []string{"Admin"}, TenantID: tenant(1)}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(t, admin, http.MethodPut, "/users/1/active", `{"active":false}`))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.users[1].IsActive)
}
