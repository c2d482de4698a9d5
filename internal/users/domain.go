package users

import "time"

// User represents a user account for management. CompanyID is nil for
// platform operators that exist outside any tenant.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CompanyID *int64    `json:"company_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerTenantID implements authz.TenantOwned.
func (u *User) OwnerTenantID() *int64 {
	return u.CompanyID
}
