package authz

// PolicyEngine is the façade combining role resolution with tenant
// ownership into a single decision. Evaluation order is fixed and
// short-circuits at the first failing step:
//
//  1. unauthenticated principal
//  2. bypass role (allows everything, including other tenants' data)
//  3. permission membership
//  4. tenant ownership of the target entity
//
// Permission is checked before tenant ownership so a caller lacking the
// base permission can never learn tenant membership from the reason or
// from timing.
type PolicyEngine struct {
	resolver *RoleResolver
	scope    *TenantScope
}

// NewPolicyEngine builds an engine around the given resolver.
func NewPolicyEngine(resolver *RoleResolver) *PolicyEngine {
	return &PolicyEngine{
		resolver: resolver,
		scope:    NewTenantScope(resolver),
	}
}

// Scope exposes the engine's tenant scope for bulk-query filtering.
func (e *PolicyEngine) Scope() *TenantScope {
	return e.scope
}

// Resolver exposes the underlying role resolver.
func (e *PolicyEngine) Resolver() *RoleResolver {
	return e.resolver
}

// Authorize decides whether the principal may perform the action named by
// permission against the optional entity. Pass a nil entity for actions
// that do not target a tenant-owned record.
func (e *PolicyEngine) Authorize(p *Principal, permission string, entity TenantOwned) Decision {
	permission = normalizeToken(permission)
	decision := e.authorize(p, permission, entity)
	decision.Permission = permission
	return decision
}

func (e *PolicyEngine) authorize(p *Principal, permission string, entity TenantOwned) Decision {
	if !p.Authenticated() {
		return Deny(ReasonNotAuthenticated)
	}
	if e.resolver.IsBypass(p) {
		return Allow()
	}
	perms, _ := e.resolver.Resolve(p)
	if !perms.Has(permission) {
		return Deny(ReasonMissingPermission)
	}
	if entity != nil {
		if p.TenantID == nil {
			return Deny(ReasonWrongTenant)
		}
		owner := entity.OwnerTenantID()
		if owner == nil || *owner != *p.TenantID {
			return Deny(ReasonWrongTenant)
		}
	}
	return Allow()
}

// AuthorizeForCreate is the creation-path variant of Authorize, used when
// no entity exists yet. It returns the tenant id the new record must be
// created under: non-bypass principals are always pinned to their own
// tenant regardless of the requested value, which closes the
// tenant-spoofing hole on create. The bypass role may request any tenant,
// including none.
func (e *PolicyEngine) AuthorizeForCreate(p *Principal, permission string, requestedTenantID *int64) (Decision, *int64) {
	permission = normalizeToken(permission)
	if !p.Authenticated() {
		return Decision{Reason: ReasonNotAuthenticated, Permission: permission}, nil
	}
	if e.resolver.IsBypass(p) {
		decision := Allow()
		decision.Permission = permission
		return decision, requestedTenantID
	}
	perms, _ := e.resolver.Resolve(p)
	if !perms.Has(permission) {
		return Decision{Reason: ReasonMissingPermission, Permission: permission}, nil
	}
	if p.TenantID == nil {
		return Decision{Reason: ReasonWrongTenant, Permission: permission}, nil
	}
	decision := Allow()
	decision.Permission = permission
	return decision, p.TenantID
}
