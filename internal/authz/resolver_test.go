package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnionsRoleGrants(t *testing.T) {
	resolver := NewRoleResolver(bypassRole, testBindings())
	p := &Principal{ID: 1, Roles: []string{"Vendedor", "Bodeguero"}}

	set, unknown := resolver.Resolve(p)
	require.Empty(t, unknown)
	assert.False(t, set.Universal())
	assert.Equal(t, []string{
		"productos.index", "productos.store", "productos.update",
		"ventas.index", "ventas.store",
	}, set.List())
}

func TestResolveBypassShortCircuits(t *testing.T) {
	resolver := NewRoleResolver(bypassRole, testBindings())
	p := &Principal{ID: 1, Roles: []string{"superadmin", "NoSuchRole"}}

	set, unknown := resolver.Resolve(p)
	require.True(t, set.Universal())
	// Unknown roles are irrelevant once bypass applies; nothing is enumerated.
	assert.Empty(t, unknown)
	assert.Zero(t, set.Len())
	assert.True(t, set.Has("anything.at.all"))
}

func TestResolveUnknownRoleFailsClosed(t *testing.T) {
	resolver := NewRoleResolver(bypassRole, testBindings())
	p := &Principal{ID: 1, Roles: []string{"Vendedor", "Fantasma"}}

	set, unknown := resolver.Resolve(p)
	assert.Equal(t, []string{"fantasma"}, unknown)
	assert.True(t, set.Has("ventas.index"))
	assert.False(t, set.Has("productos.index"))
}

func TestResolveNoRoles(t *testing.T) {
	resolver := NewRoleResolver(bypassRole, testBindings())

	set, unknown := resolver.Resolve(&Principal{ID: 1})
	assert.Empty(t, unknown)
	assert.Zero(t, set.Len())
	assert.False(t, set.Has("ventas.index"))

	set, unknown = resolver.Resolve(nil)
	assert.Empty(t, unknown)
	assert.False(t, set.Has("ventas.index"))
}

func TestResolveDeterministic(t *testing.T) {
	resolver := NewRoleResolver(bypassRole, testBindings())
	p := &Principal{ID: 1, Roles: []string{"Admin", "Vendedor"}}

	first, _ := resolver.Resolve(p)
	second, _ := resolver.Resolve(p)
	assert.Equal(t, first.List(), second.List())
}

func TestPermissionSetNormalization(t *testing.T) {
	set := NewPermissionSet("Ventas.Index", " ventas.store ", "ventas.index", "")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("VENTAS.INDEX"))
	assert.False(t, set.Has(""))
}

func TestPermissionRegistry(t *testing.T) {
	registry := NewPermissionRegistry()
	registry.Register("ventas", "ventas.index", "ventas.store")
	registry.Register("productos", "productos.index")
	registry.Register("ventas", "ventas.index") // duplicate, ignored

	assert.Equal(t, []string{"productos", "ventas"}, registry.Modules())
	assert.Equal(t, []string{"ventas.index", "ventas.store"}, registry.ModulePermissions("ventas"))
	assert.True(t, registry.Known("Ventas.Store"))
	assert.False(t, registry.Known("ventas.destroy"))

	unknown := registry.Validate("ventas.index", "ventas.destroy", "otro.token")
	assert.Equal(t, []string{"ventas.destroy", "otro.token"}, unknown)
	assert.Empty(t, registry.Validate("productos.index"))
}
