package ventas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ventaColumns = `id, company_id, folio, cliente, total, created_by, deleted_at, created_at, updated_at`

// List returns sales visible through the tenant filter. Soft-deleted rows
// stay hidden unless the query asks for them.
func (r *Repository) List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Venta, int, error) {
	if filter.Mode() == authz.FilterRejectAll {
		return nil, 0, nil
	}

	where := ""
	args := []any{}
	addClause := func(clause string) {
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	if tenantID, ok := filter.TenantID(); ok {
		args = append(args, tenantID)
		addClause(fmt.Sprintf("company_id = $%d", len(args)))
	}
	if !q.IncludeDeleted {
		addClause("deleted_at IS NULL")
	}
	if q.Folio != "" {
		args = append(args, q.Folio)
		addClause(fmt.Sprintf("folio = $%d", len(args)))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ventas `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM ventas %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		ventaColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ventas []Venta
	for rows.Next() {
		var v Venta
		if err := scanVenta(rows, &v); err != nil {
			return nil, 0, err
		}
		ventas = append(ventas, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range ventas {
		items, err := r.loadItems(ctx, ventas[i].ID)
		if err != nil {
			return nil, 0, err
		}
		ventas[i].Items = items
	}
	return ventas, total, nil
}

// Get fetches a sale with its lines, soft-deleted or not. The caller decides
// what deleted rows mean for its response.
func (r *Repository) Get(ctx context.Context, id int64) (*Venta, error) {
	var v Venta
	row := r.pool.QueryRow(ctx, `SELECT `+ventaColumns+` FROM ventas WHERE id = $1`, id)
	if err := scanVenta(row, &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.loadItems(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	v.Items = items
	return &v, nil
}

// Create stores the sale and its lines in one transaction.
func (r *Repository) Create(ctx context.Context, v Venta) (Venta, error) {
	now := time.Now().UTC()
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO ventas (company_id, folio, cliente, total, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)
			 RETURNING id, created_at, updated_at`,
			v.CompanyID, v.Folio, v.Cliente, v.Total, v.CreatedBy, now).
			Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_ventas_company_folio" {
				return ErrDuplicateFolio
			}
			return err
		}
		return insertItems(ctx, tx, v.ID, v.Items)
	})
	if err != nil {
		return Venta{}, err
	}
	items, err := r.loadItems(ctx, v.ID)
	if err != nil {
		return Venta{}, err
	}
	v.Items = items
	return v, nil
}

// ReplaceItems rewrites the sale's lines and header totals.
func (r *Repository) ReplaceItems(ctx context.Context, v Venta) (Venta, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE ventas SET cliente = $2, total = $3, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL
			 RETURNING updated_at`,
			v.ID, v.Cliente, v.Total).
			Scan(&v.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM venta_items WHERE venta_id = $1`, v.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, v.ID, v.Items)
	})
	if err != nil {
		return Venta{}, err
	}
	items, err := r.loadItems(ctx, v.ID)
	if err != nil {
		return Venta{}, err
	}
	v.Items = items
	return v, nil
}

// SoftDelete marks the sale as deleted without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ventas SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) loadItems(ctx context.Context, ventaID int64) ([]VentaItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, venta_id, producto_id, cantidad, precio_unitario, subtotal
		 FROM venta_items WHERE venta_id = $1 ORDER BY id`, ventaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []VentaItem
	for rows.Next() {
		var it VentaItem
		if err := rows.Scan(&it.ID, &it.VentaID, &it.ProductoID, &it.Cantidad, &it.PrecioUnitario, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, ventaID int64, items []VentaItem) error {
	for _, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO venta_items (venta_id, producto_id, cantidad, precio_unitario, subtotal)
			 VALUES ($1, $2, $3, $4, $5)`,
			ventaID, it.ProductoID, it.Cantidad, it.PrecioUnitario, it.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanVenta(row pgx.Row, v *Venta) error {
	return row.Scan(&v.ID, &v.CompanyID, &v.Folio, &v.Cliente, &v.Total, &v.CreatedBy,
		&v.DeletedAt, &v.CreatedAt, &v.UpdatedAt)
}

var _ RepositoryPort = (*Repository)(nil)
