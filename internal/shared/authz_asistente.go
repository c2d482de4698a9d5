package shared

// Metered assistant permissions.
const (
	PermAsistenteChat = "asistente.chat"
)

// AsistenteScopes lists all permissions related to the assistant module.
func AsistenteScopes() []string {
	return []string{
		PermAsistenteChat,
	}
}
