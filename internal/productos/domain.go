package productos

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto represents a catalog item. Every product belongs to exactly one
// company; the owner is fixed at creation and never reassigned.
type Producto struct {
	ID          int64           `json:"id"`
	CompanyID   *int64          `json:"company_id"`
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int64           `json:"stock"`
	Activo      bool            `json:"activo"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OwnerTenantID implements authz.TenantOwned.
func (p *Producto) OwnerTenantID() *int64 {
	return p.CompanyID
}
