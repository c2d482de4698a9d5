package authz

import (
	"sort"
	"strings"
)

// normalizeToken lower-cases and trims a permission or role token so that
// lookups are case-insensitive at every boundary.
func normalizeToken(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// PermissionSet is the effective set of permissions granted to a principal.
// The zero value is the empty set. A set may be universal, the sentinel
// produced for the bypass role, which contains every token without
// enumerating any.
type PermissionSet struct {
	universal bool
	perms     map[string]struct{}
}

// NewPermissionSet builds a set from the given tokens, deduplicating and
// normalizing as it goes.
func NewPermissionSet(perms ...string) PermissionSet {
	set := PermissionSet{perms: make(map[string]struct{}, len(perms))}
	for _, p := range perms {
		p = normalizeToken(p)
		if p == "" {
			continue
		}
		set.perms[p] = struct{}{}
	}
	return set
}

// UniversalSet returns the sentinel set that grants everything.
func UniversalSet() PermissionSet {
	return PermissionSet{universal: true}
}

// Has reports whether the set grants the permission.
func (s PermissionSet) Has(permission string) bool {
	if s.universal {
		return true
	}
	_, ok := s.perms[normalizeToken(permission)]
	return ok
}

// Universal reports whether the set is the grants-everything sentinel.
func (s PermissionSet) Universal() bool {
	return s.universal
}

// Len returns the number of enumerated permissions. Zero for the universal
// set, whose members are not enumerable.
func (s PermissionSet) Len() int {
	return len(s.perms)
}

// List returns the enumerated permissions in sorted order.
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s.perms))
	for p := range s.perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PermissionRegistry is the static catalog of known permission tokens
// grouped by module. It backs validation and enumeration (admin screens,
// seeding); it takes no part in authorization decisions and never
// interprets token structure.
type PermissionRegistry struct {
	modules map[string][]string
	known   map[string]struct{}
}

// NewPermissionRegistry returns an empty registry.
func NewPermissionRegistry() *PermissionRegistry {
	return &PermissionRegistry{
		modules: make(map[string][]string),
		known:   make(map[string]struct{}),
	}
}

// Register records the permissions of a module. Duplicate tokens are
// ignored; registration order within a module is preserved.
func (r *PermissionRegistry) Register(module string, perms ...string) {
	module = normalizeToken(module)
	for _, p := range perms {
		p = normalizeToken(p)
		if p == "" {
			continue
		}
		if _, ok := r.known[p]; ok {
			continue
		}
		r.known[p] = struct{}{}
		r.modules[module] = append(r.modules[module], p)
	}
}

// Known reports whether the token has been registered.
func (r *PermissionRegistry) Known(permission string) bool {
	_, ok := r.known[normalizeToken(permission)]
	return ok
}

// Modules returns the registered module names in sorted order.
func (r *PermissionRegistry) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for m := range r.modules {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ModulePermissions returns the permissions registered under a module in
// registration order.
func (r *PermissionRegistry) ModulePermissions(module string) []string {
	perms := r.modules[normalizeToken(module)]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// All returns every registered permission, sorted.
func (r *PermissionRegistry) All() []string {
	out := make([]string, 0, len(r.known))
	for p := range r.known {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Validate returns the subset of the given tokens that are not registered.
// An empty result means every token is known.
func (r *PermissionRegistry) Validate(perms ...string) []string {
	var unknown []string
	for _, p := range perms {
		if !r.Known(p) {
			unknown = append(unknown, normalizeToken(p))
		}
	}
	return unknown
}
