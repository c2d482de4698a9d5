package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/shared"
	_ "github.com/andes-erp/andes-erp/testing"
)

type fixedEngine struct {
	engine *authz.PolicyEngine
}

func (f fixedEngine) Engine() *authz.PolicyEngine {
	return f.engine
}

func newTestMiddleware(t *testing.T, users map[int64]*User, roles map[int64][]string) (Middleware, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	mw := Middleware{
		Provider: fixedEngine{engine: testEngine()},
		Builder:  NewPrincipalBuilder(&stubRepo{users: users}, &stubRoles{roles: roles}, nil),
		Logger:   slog.Default(),
		Metrics:  observability.NewMetrics(),
	}
	return mw, sessions
}

func requestWithSessionUser(t *testing.T, sessions *shared.SessionManager, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequirePermissionAllowed(t *testing.T) {
	mw, sessions := newTestMiddleware(t,
		map[int64]*User{7: {ID: 7, CompanyID: companyID(5), IsActive: true}},
		map[int64][]string{7: {"Vendedor"}},
	)

	var sawPrincipal *authz.Principal
	handler := mw.WithPrincipal(mw.RequirePermission("ventas.index")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawPrincipal = authz.PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSessionUser(t, sessions, "7"))

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, sawPrincipal)
	assert.Equal(t, int64(7), sawPrincipal.ID)
}

func TestRequirePermissionDenied(t *testing.T) {
	mw, sessions := newTestMiddleware(t,
		map[int64]*User{7: {ID: 7, CompanyID: companyID(5), IsActive: true}},
		map[int64][]string{7: {"Vendedor"}},
	)

	handler := mw.WithPrincipal(mw.RequirePermission("ventas.destroy")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSessionUser(t, sessions, "7"))

	require.Equal(t, http.StatusForbidden, res.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	// The body never distinguishes a missing grant from a tenant mismatch.
	assert.Equal(t, "Forbidden", problem["title"])
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	mw, sessions := newTestMiddleware(t, map[int64]*User{}, map[int64][]string{})

	handler := mw.WithPrincipal(mw.RequirePermission("ventas.index")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSessionUser(t, sessions, ""))

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequirePermissionBypassRole(t *testing.T) {
	mw, sessions := newTestMiddleware(t,
		map[int64]*User{1: {ID: 1, IsActive: true}},
		map[int64][]string{1: {"SuperAdmin"}},
	)

	handler := mw.WithPrincipal(mw.RequirePermission("ventas.destroy")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSessionUser(t, sessions, "1"))

	require.Equal(t, http.StatusOK, res.Code)
}
