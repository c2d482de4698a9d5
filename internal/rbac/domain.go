package rbac

import "time"

// Role represents a high-level permission grouping. Roles are data, not
// code: nothing in the application branches on a role name except the
// configured bypass role, and that designation lives in configuration.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability token of the form
// <module>.<action>.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
