package shared

// Sales permissions.
const (
	PermVentasIndex   = "ventas.index"
	PermVentasStore   = "ventas.store"
	PermVentasUpdate  = "ventas.update"
	PermVentasDestroy = "ventas.destroy"
)

// Purchasing permissions.
const (
	PermComprasIndex   = "compras.index"
	PermComprasStore   = "compras.store"
	PermComprasUpdate  = "compras.update"
	PermComprasDestroy = "compras.destroy"
)

// Customer permissions.
const (
	PermClientesIndex   = "clientes.index"
	PermClientesStore   = "clientes.store"
	PermClientesUpdate  = "clientes.update"
	PermClientesDestroy = "clientes.destroy"
)

// VentasScopes lists all permissions related to the sales module.
func VentasScopes() []string {
	return []string{
		PermVentasIndex,
		PermVentasStore,
		PermVentasUpdate,
		PermVentasDestroy,
	}
}

// ComprasScopes lists all permissions related to the purchasing module.
func ComprasScopes() []string {
	return []string{
		PermComprasIndex,
		PermComprasStore,
		PermComprasUpdate,
		PermComprasDestroy,
	}
}

// ClientesScopes lists all permissions related to the customer module.
func ClientesScopes() []string {
	return []string{
		PermClientesIndex,
		PermClientesStore,
		PermClientesUpdate,
		PermClientesDestroy,
	}
}
