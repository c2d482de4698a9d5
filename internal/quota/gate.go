// Package quota layers a spend-ceiling check on top of otherwise-approved
// authorization decisions for metered features. The gate only ever reads a
// snapshot taken at decision time; recording usage is the caller's
// responsibility, after the guarded action completes.
package quota

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// Snapshot is the per-tenant, per-period quota state observed at decision
// time. A nil Limit means the tenant is unmetered. Usage may be slightly
// stale under concurrent requests; the resulting bounded overrun is an
// accepted trade-off.
type Snapshot struct {
	Limit     *decimal.Decimal
	Used      decimal.Decimal
	PeriodKey string
}

// Remaining returns the unspent budget. The boolean is false for unmetered
// tenants, whose remaining budget is undefined.
func (s Snapshot) Remaining() (decimal.Decimal, bool) {
	if s.Limit == nil {
		return decimal.Decimal{}, false
	}
	return s.Limit.Sub(s.Used), true
}

// PeriodKeyFor renders the billing period key for a point in time.
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Gate decides whether a tenant may spend against its metered budget.
// Evaluated strictly after a successful authorization: quota is a resource
// concern and must never mask a permission or tenant failure.
type Gate struct{}

// NewGate constructs a Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Check returns QuotaExhausted once the used amount reaches the limit.
// Unmetered tenants are always allowed. The gate has no side effects.
func (g *Gate) Check(tenantID int64, snap Snapshot) authz.Decision {
	if snap.Limit == nil {
		return authz.Allow()
	}
	if snap.Used.GreaterThanOrEqual(*snap.Limit) {
		return authz.Deny(authz.ReasonQuotaExhausted)
	}
	return authz.Allow()
}
