package shared

import "github.com/andes-erp/andes-erp/internal/authz"

// NewPermissionRegistry builds the catalog of every permission the
// application knows about, grouped by module. The registry backs token
// validation and the admin permission listing; decisions never consult it.
func NewPermissionRegistry() *authz.PermissionRegistry {
	registry := authz.NewPermissionRegistry()
	registry.Register("core", CoreScopes()...)
	registry.Register("productos", ProductosScopes()...)
	registry.Register("ventas", VentasScopes()...)
	registry.Register("compras", ComprasScopes()...)
	registry.Register("clientes", ClientesScopes()...)
	registry.Register("asistente", AsistenteScopes()...)
	return registry
}
