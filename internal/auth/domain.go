package auth

import "time"

// User represents an authenticated user account. CompanyID is nil for
// accounts that exist outside any tenant; such users see no tenant-scoped
// data unless a bypass role is assigned.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CompanyID    *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
