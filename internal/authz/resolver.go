package authz

// RoleResolver expands a principal's role names into an effective
// permission set using a static role→permission binding table. The table
// is read-mostly configuration: loaded once at startup and replaced
// wholesale on refresh, never mutated in place.
type RoleResolver struct {
	bypassRole string
	bindings   map[string][]string
}

// NewRoleResolver builds a resolver. bypassRole names the single role that
// implicitly grants every permission; bindings maps role names to the
// permissions they grant. Both are normalized on construction.
func NewRoleResolver(bypassRole string, bindings map[string][]string) *RoleResolver {
	normalized := make(map[string][]string, len(bindings))
	for role, perms := range bindings {
		role = normalizeToken(role)
		if role == "" {
			continue
		}
		normalized[role] = append(normalized[role], perms...)
	}
	return &RoleResolver{
		bypassRole: normalizeToken(bypassRole),
		bindings:   normalized,
	}
}

// BypassRole returns the configured bypass role name.
func (r *RoleResolver) BypassRole() string {
	return r.bypassRole
}

// IsBypass reports whether the principal holds the bypass role.
func (r *RoleResolver) IsBypass(p *Principal) bool {
	if p == nil || r.bypassRole == "" {
		return false
	}
	return p.HasRole(r.bypassRole)
}

// Resolve unions the permission grants of the principal's roles. If any
// assigned role is the bypass role the universal set is returned without
// enumerating grants. Unknown role names contribute no permissions and are
// returned so the caller can log them; they are never a hard error.
func (r *RoleResolver) Resolve(p *Principal) (PermissionSet, []string) {
	if p == nil {
		return NewPermissionSet(), nil
	}
	if r.IsBypass(p) {
		return UniversalSet(), nil
	}
	var unknown []string
	set := PermissionSet{perms: make(map[string]struct{})}
	for _, role := range p.Roles {
		role = normalizeToken(role)
		if role == "" {
			continue
		}
		perms, ok := r.bindings[role]
		if !ok {
			unknown = append(unknown, role)
			continue
		}
		for _, perm := range perms {
			perm = normalizeToken(perm)
			if perm != "" {
				set.perms[perm] = struct{}{}
			}
		}
	}
	return set, unknown
}
