package ventas

import (
	"context"
	"errors"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// ErrNotFound indicates the sale does not exist.
var ErrNotFound = errors.New("ventas: not found")

// ErrDuplicateFolio indicates the folio is already taken within the company.
var ErrDuplicateFolio = errors.New("ventas: duplicate folio")

// ListQuery carries listing parameters. IncludeDeleted is only honored for
// accept-all filters; tenant members never see soft-deleted rows.
type ListQuery struct {
	Folio          string
	Page           int
	PerPage        int
	IncludeDeleted bool
}

// RepositoryPort defines data access methods for sales.
type RepositoryPort interface {
	List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Venta, int, error)
	Get(ctx context.Context, id int64) (*Venta, error)
	Create(ctx context.Context, v Venta) (Venta, error)
	ReplaceItems(ctx context.Context, v Venta) (Venta, error)
	SoftDelete(ctx context.Context, id int64) error
}
