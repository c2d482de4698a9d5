package productos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productoColumns = `id, company_id, codigo, nombre, descripcion, precio, stock, activo, created_at, updated_at`

// List returns products visible through the tenant filter. The filter is
// pushed down into the query; a reject-all filter never reaches the
// database.
func (r *Repository) List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Producto, int, error) {
	if filter.Mode() == authz.FilterRejectAll {
		return nil, 0, nil
	}

	where := ``
	args := []any{}
	if tenantID, ok := filter.TenantID(); ok {
		args = append(args, tenantID)
		where = `WHERE company_id = $1`
	}
	if q.Search != "" {
		args = append(args, "%"+shared.FoldSearchTerm(q.Search)+"%")
		clause := fmt.Sprintf("nombre_fold LIKE $%d", len(args))
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM productos `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(q.Page, q.PerPage, total)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM productos %s ORDER BY nombre LIMIT $%d OFFSET $%d`,
		productoColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Producto
	for rows.Next() {
		var p Producto
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Codigo, &p.Nombre, &p.Descripcion,
			&p.Precio, &p.Stock, &p.Activo, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Get fetches a product by ID regardless of tenant; the caller authorizes
// against the returned row.
func (r *Repository) Get(ctx context.Context, id int64) (*Producto, error) {
	var p Producto
	err := r.pool.QueryRow(ctx, `SELECT `+productoColumns+` FROM productos WHERE id = $1`, id).
		Scan(&p.ID, &p.CompanyID, &p.Codigo, &p.Nombre, &p.Descripcion,
			&p.Precio, &p.Stock, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p Producto) (Producto, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO productos (company_id, codigo, nombre, nombre_fold, descripcion, precio, stock, activo, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING id, created_at, updated_at`,
		p.CompanyID, p.Codigo, p.Nombre, shared.FoldSearchTerm(p.Nombre), p.Descripcion,
		p.Precio, p.Stock, p.Activo, now).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Producto{}, err
	}
	return p, nil
}

// Update rewrites the mutable columns. The company_id column is absent
// from the statement: ownership never changes.
func (r *Repository) Update(ctx context.Context, p Producto) (Producto, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE productos
		 SET codigo = $2, nombre = $3, nombre_fold = $4, descripcion = $5, precio = $6, stock = $7, activo = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.Codigo, p.Nombre, shared.FoldSearchTerm(p.Nombre), p.Descripcion,
		p.Precio, p.Stock, p.Activo).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Producto{}, ErrNotFound
		}
		return Producto{}, err
	}
	return p, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
