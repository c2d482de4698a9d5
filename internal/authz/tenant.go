package authz

// FilterMode describes the shape of a tenant filter.
type FilterMode int

const (
	// FilterRejectAll matches no entity. The fail-closed default for
	// principals without a tenant.
	FilterRejectAll FilterMode = iota
	// FilterTenant matches entities owned by a single tenant.
	FilterTenant
	// FilterAcceptAll matches every entity. Produced only for the bypass role.
	FilterAcceptAll
)

// TenantFilter is a predicate over tenant-owned entities, produced once per
// request and applied either row by row via Match or pushed down into the
// underlying list query by the repository.
type TenantFilter struct {
	mode     FilterMode
	tenantID int64
}

// AcceptAllFilter matches everything.
func AcceptAllFilter() TenantFilter {
	return TenantFilter{mode: FilterAcceptAll}
}

// RejectAllFilter matches nothing.
func RejectAllFilter() TenantFilter {
	return TenantFilter{mode: FilterRejectAll}
}

// SingleTenantFilter matches entities owned by the given tenant.
func SingleTenantFilter(tenantID int64) TenantFilter {
	return TenantFilter{mode: FilterTenant, tenantID: tenantID}
}

// Mode returns the filter shape.
func (f TenantFilter) Mode() FilterMode {
	return f.mode
}

// TenantID returns the tenant the filter is scoped to. The boolean is false
// unless the mode is FilterTenant.
func (f TenantFilter) TenantID() (int64, bool) {
	if f.mode != FilterTenant {
		return 0, false
	}
	return f.tenantID, true
}

// Match evaluates the predicate against a single entity.
func (f TenantFilter) Match(entity TenantOwned) bool {
	switch f.mode {
	case FilterAcceptAll:
		return true
	case FilterTenant:
		if entity == nil {
			return false
		}
		owner := entity.OwnerTenantID()
		return owner != nil && *owner == f.tenantID
	default:
		return false
	}
}

// TenantScope decides tenant visibility for principals: which rows a
// principal may observe and whether it may touch a specific tenant's data.
type TenantScope struct {
	resolver *RoleResolver
}

// NewTenantScope builds a scope using the resolver's bypass designation.
func NewTenantScope(resolver *RoleResolver) *TenantScope {
	return &TenantScope{resolver: resolver}
}

// Filter produces the visibility predicate for bulk queries. Bypass
// principals see everything; tenant members see their tenant's rows; a
// principal without a tenant sees nothing. The no-tenant case is a defined
// empty result, distinct from "belongs to tenant X".
func (s *TenantScope) Filter(p *Principal) TenantFilter {
	if !p.Authenticated() {
		return RejectAllFilter()
	}
	if s.resolver.IsBypass(p) {
		return AcceptAllFilter()
	}
	if p.TenantID == nil {
		return RejectAllFilter()
	}
	return SingleTenantFilter(*p.TenantID)
}

// AssertAccess checks whether the principal may touch data of the given
// tenant. Equivalent to the tenant step of PolicyEngine.Authorize, usable
// for ad hoc checks such as a tenant id embedded in a nested payload.
func (s *TenantScope) AssertAccess(p *Principal, tenantID int64) Decision {
	if !p.Authenticated() {
		return Deny(ReasonNotAuthenticated)
	}
	if s.resolver.IsBypass(p) {
		return Allow()
	}
	if p.TenantID == nil || *p.TenantID != tenantID {
		return Deny(ReasonWrongTenant)
	}
	return Allow()
}
