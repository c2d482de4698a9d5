package httpx

import (
	"net/http"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// RespondDecision maps a denied authorization decision to its HTTP
// response. MissingPermission and WrongTenant produce identical responses;
// a caller probing foreign tenants must not be able to tell a missing
// grant from someone else's data. The distinct internal reason is for the
// caller's logs only. QuotaExhausted is transient, so it carries its own
// status and a retry signal.
func RespondDecision(w http.ResponseWriter, decision authz.Decision) {
	switch decision.Reason {
	case authz.ReasonNotAuthenticated:
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case authz.ReasonQuotaExhausted:
		w.Header().Set("Retry-After", "3600")
		Problem(w, http.StatusTooManyRequests, "Quota Exceeded", "monthly budget exhausted; retry next period or raise the limit")
	default:
		Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
	}
}
