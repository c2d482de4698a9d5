package ventas

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// ErrNoItems indicates a sale without lines.
var ErrNoItems = errors.New("ventas: at least one item required")

// ErrInvalidItem indicates a line with a non-positive quantity or a negative
// unit price.
var ErrInvalidItem = errors.New("ventas: invalid item")

// Service handles sales business logic. Idempotency and the audit trail are
// optional collaborators; a nil store skips the duplicate-suppression step.
type Service struct {
	repo        RepositoryPort
	idempotency *shared.IdempotencyStore
	audit       *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, idempotency *shared.IdempotencyStore, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, idempotency: idempotency, audit: audit}
}

// List returns the sales visible through the filter plus the total count.
func (s *Service) List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Venta, int, error) {
	return s.repo.List(ctx, filter, q)
}

// Get fetches a single sale.
func (s *Service) Get(ctx context.Context, id int64) (*Venta, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the lines, computes the totals and stores the sale. When
// an idempotency key is supplied, a repeated key returns
// shared.ErrIdempotencyConflict instead of a second sale.
func (s *Service) Create(ctx context.Context, key string, v Venta) (Venta, error) {
	if err := normalizeTotals(&v); err != nil {
		return Venta{}, err
	}
	insertedKey := false
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "ventas"); err != nil {
			return Venta{}, err
		}
		insertedKey = true
	}
	created, err := s.repo.Create(ctx, v)
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Venta{}, err
	}
	s.record(ctx, created.CreatedBy, "ventas:store", created)
	return created, nil
}

// Update replaces the sale's customer and lines, recomputing the total.
func (s *Service) Update(ctx context.Context, actorID int64, v Venta) (Venta, error) {
	if err := normalizeTotals(&v); err != nil {
		return Venta{}, err
	}
	updated, err := s.repo.ReplaceItems(ctx, v)
	if err != nil {
		return Venta{}, err
	}
	s.record(ctx, actorID, "ventas:update", updated)
	return updated, nil
}

// Delete soft-deletes the sale.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "ventas:destroy", Venta{ID: id})
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, v Venta) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{}
	if v.Folio != "" {
		meta["folio"] = v.Folio
		meta["total"] = v.Total.String()
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "venta",
		EntityID: strconv.FormatInt(v.ID, 10),
		Meta:     meta,
	})
}

func normalizeTotals(v *Venta) error {
	if len(v.Items) == 0 {
		return ErrNoItems
	}
	total := decimal.Zero
	for i := range v.Items {
		it := &v.Items[i]
		if it.Cantidad <= 0 || it.PrecioUnitario.IsNegative() {
			return fmt.Errorf("%w: producto %d", ErrInvalidItem, it.ProductoID)
		}
		it.Subtotal = it.PrecioUnitario.Mul(decimal.NewFromInt(it.Cantidad))
		total = total.Add(it.Subtotal)
	}
	v.Total = total
	return nil
}
