package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/platform/httpx"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// EngineSource yields the current policy engine snapshot. Implemented by
// rbac.Provider; tests substitute a fixed engine.
type EngineSource interface {
	Engine() *authz.PolicyEngine
}

// Middleware builds the request principal and enforces permissions at the
// router. Decisions come from the policy engine; this layer only maps them
// onto HTTP and logs the internal reason.
type Middleware struct {
	Provider EngineSource
	Builder  *PrincipalBuilder
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// WithPrincipal resolves the session user into a PrincipalContext and
// stores it in the request context. Requests without a logged-in session
// pass through without a principal; permission checks downstream deny them.
func (m Middleware) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.sessionUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		pc, err := m.Builder.Build(r.Context(), m.Provider.Engine(), userID)
		if err != nil {
			m.Logger.Error("build principal", slog.Int64("user_id", userID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if len(pc.UnknownRoles) > 0 {
			m.Logger.Warn("principal has unknown roles",
				slog.Int64("user_id", userID),
				slog.String("roles", strings.Join(pc.UnknownRoles, ",")))
		}
		ctx := ContextWithPrincipalContext(r.Context(), pc)
		ctx = authz.ContextWithPrincipal(ctx, &pc.Principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission denies the request unless the principal may perform
// the named action. Entity-level tenant checks remain with the handlers,
// which hold the entity.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authz.PrincipalFromContext(r.Context())
			decision := m.Provider.Engine().Authorize(principal, permission, nil)
			m.Metrics.ObserveDecision(decision)
			if !decision.Allowed {
				m.logDenial(r, principal, decision)
				httpx.RespondDecision(w, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logDenial(r *http.Request, principal *authz.Principal, decision authz.Decision) {
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("reason", string(decision.Reason)),
		slog.String("permission", decision.Permission),
	}
	if principal != nil {
		attrs = append(attrs, slog.Int64("user_id", principal.ID))
	}
	m.Logger.Warn("authorization denied", attrs...)
}

func (m Middleware) sessionUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.Logger.Error("parse session user id", slog.String("value", raw))
		return 0, false
	}
	return id, true
}
