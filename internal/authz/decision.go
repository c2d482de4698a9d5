// Package authz implements the multi-tenant authorization core: role and
// permission evaluation, tenant scoping, and the policy engine combining
// both into a single decision per (principal, permission, entity) triple.
//
// The package is pure: no I/O, no logging, no ambient state. Every function
// is a deterministic function of its inputs and safe for concurrent use.
package authz

// Reason classifies why a decision allowed or denied an action.
type Reason string

const (
	// ReasonNotAuthenticated indicates no principal was supplied.
	ReasonNotAuthenticated Reason = "not_authenticated"
	// ReasonMissingPermission indicates the principal lacks the required permission.
	ReasonMissingPermission Reason = "missing_permission"
	// ReasonWrongTenant indicates the entity belongs to a different tenant.
	ReasonWrongTenant Reason = "wrong_tenant"
	// ReasonQuotaExhausted indicates the tenant spent its metered budget.
	ReasonQuotaExhausted Reason = "quota_exhausted"
	// ReasonAllowed indicates the action may proceed.
	ReasonAllowed Reason = "allowed"
)

// Decision is the structured allow/deny result returned by the core.
// It is a value, never an error: callers inspect it and map the reason
// to their own transport-level response.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Permission carries the token that was evaluated, for caller-side
	// logging. Permission names are not secret.
	Permission string
}

// Allow builds an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

// Deny builds a denying decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
