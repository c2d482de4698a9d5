package ventas

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venta is a sales document. The folio is unique within the owning company.
// Deleted sales are kept as soft-deleted rows for audit trails.
type Venta struct {
	ID        int64           `json:"id"`
	CompanyID *int64          `json:"company_id"`
	Folio     string          `json:"folio"`
	Cliente   string          `json:"cliente"`
	Items     []VentaItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedBy int64           `json:"created_by"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VentaItem is a single line of a sale.
type VentaItem struct {
	ID             int64           `json:"id"`
	VentaID        int64           `json:"venta_id"`
	ProductoID     int64           `json:"producto_id"`
	Cantidad       int64           `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// OwnerTenantID implements authz.TenantOwned.
func (v *Venta) OwnerTenantID() *int64 {
	return v.CompanyID
}

// Deleted reports whether the sale is soft-deleted.
func (v *Venta) Deleted() bool {
	return v.DeletedAt != nil
}
