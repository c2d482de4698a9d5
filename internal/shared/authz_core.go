package shared

// Core platform permissions.
const (
	PermUsuariosIndex   = "usuarios.index"
	PermUsuariosStore   = "usuarios.store"
	PermUsuariosUpdate  = "usuarios.update"
	PermUsuariosDestroy = "usuarios.destroy"

	PermRolesIndex   = "roles.index"
	PermRolesStore   = "roles.store"
	PermRolesUpdate  = "roles.update"
	PermRolesDestroy = "roles.destroy"

	PermPermisosView = "permisos.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsuariosIndex,
		PermUsuariosStore,
		PermUsuariosUpdate,
		PermUsuariosDestroy,
		PermRolesIndex,
		PermRolesStore,
		PermRolesUpdate,
		PermRolesDestroy,
		PermPermisosView,
	}
}
