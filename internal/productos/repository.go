package productos

import (
	"context"
	"errors"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("productos: not found")

// ListQuery carries listing parameters. Search matches the folded name so
// accented and unaccented spellings find the same rows.
type ListQuery struct {
	Search  string
	Page    int
	PerPage int
}

// RepositoryPort defines data access methods for products.
type RepositoryPort interface {
	List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Producto, int, error)
	Get(ctx context.Context, id int64) (*Producto, error)
	Create(ctx context.Context, p Producto) (Producto, error)
	Update(ctx context.Context, p Producto) (Producto, error)
	Delete(ctx context.Context, id int64) error
}
