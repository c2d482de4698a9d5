package authz

// Principal is an immutable snapshot of the authenticated actor: identity,
// assigned role names, and tenant membership. It is built once per request
// by the caller and passed explicitly into every check; the core never
// resolves the acting user from ambient state.
type Principal struct {
	ID    int64
	Roles []string
	// TenantID is nil for principals without a tenant. Such principals see
	// no tenant-scoped data unless they hold the bypass role.
	TenantID *int64
}

// Authenticated reports whether the principal represents a real identity.
func (p *Principal) Authenticated() bool {
	return p != nil && p.ID != 0
}

// HasRole reports whether the principal carries the named role.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	name = normalizeToken(name)
	for _, r := range p.Roles {
		if normalizeToken(r) == name {
			return true
		}
	}
	return false
}

// TenantOwned is implemented by every business record that belongs to
// exactly one tenant. The owner tenant is set once at creation and never
// changes afterwards.
type TenantOwned interface {
	OwnerTenantID() *int64
}
