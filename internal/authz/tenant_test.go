package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScope() *TenantScope {
	return NewTenantScope(NewRoleResolver(bypassRole, testBindings()))
}

func TestFilterBypassAcceptsEverything(t *testing.T) {
	scope := newTestScope()
	filter := scope.Filter(&Principal{ID: 1, Roles: []string{bypassRole}})

	assert.Equal(t, FilterAcceptAll, filter.Mode())
	assert.True(t, filter.Match(record{companyID: tenant(5)}))
	assert.True(t, filter.Match(record{companyID: tenant(9)}))
	assert.True(t, filter.Match(record{}))
}

func TestFilterTenantMember(t *testing.T) {
	scope := newTestScope()
	filter := scope.Filter(&Principal{ID: 7, Roles: []string{"Vendedor"}, TenantID: tenant(5)})

	id, ok := filter.TenantID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)
	assert.True(t, filter.Match(record{companyID: tenant(5)}))
	assert.False(t, filter.Match(record{companyID: tenant(9)}))
	assert.False(t, filter.Match(record{}))
	assert.False(t, filter.Match(nil))
}

func TestFilterNoTenantRejectsEverything(t *testing.T) {
	scope := newTestScope()
	filter := scope.Filter(&Principal{ID: 3, Roles: []string{"Vendedor"}})

	assert.Equal(t, FilterRejectAll, filter.Mode())
	assert.False(t, filter.Match(record{companyID: tenant(5)}))
	_, ok := filter.TenantID()
	assert.False(t, ok)
}

func TestFilterUnauthenticatedRejectsEverything(t *testing.T) {
	scope := newTestScope()

	assert.Equal(t, FilterRejectAll, scope.Filter(nil).Mode())
	assert.Equal(t, FilterRejectAll, scope.Filter(&Principal{}).Mode())
}

func TestAssertAccess(t *testing.T) {
	scope := newTestScope()
	member := &Principal{ID: 7, Roles: []string{"Vendedor"}, TenantID: tenant(5)}
	super := &Principal{ID: 1, Roles: []string{bypassRole}}
	homeless := &Principal{ID: 3, Roles: []string{"Vendedor"}}

	cases := []struct {
		name      string
		principal *Principal
		tenantID  int64
		allowed   bool
		reason    Reason
	}{
		{"own tenant", member, 5, true, ReasonAllowed},
		{"foreign tenant", member, 9, false, ReasonWrongTenant},
		{"bypass any tenant", super, 9, true, ReasonAllowed},
		{"no tenant assigned", homeless, 5, false, ReasonWrongTenant},
		{"unauthenticated", nil, 5, false, ReasonNotAuthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := scope.AssertAccess(tc.principal, tc.tenantID)
			assert.Equal(t, tc.allowed, decision.Allowed)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}
