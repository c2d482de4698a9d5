package shared

// Product catalog permissions.
const (
	PermProductosIndex   = "productos.index"
	PermProductosStore   = "productos.store"
	PermProductosUpdate  = "productos.update"
	PermProductosDestroy = "productos.destroy"
)

// ProductosScopes lists all permissions related to the product module.
func ProductosScopes() []string {
	return []string{
		PermProductosIndex,
		PermProductosStore,
		PermProductosUpdate,
		PermProductosDestroy,
	}
}
