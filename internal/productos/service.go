package productos

import (
	"context"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// Service handles product business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the products visible through the filter plus the total count.
func (s *Service) List(ctx context.Context, filter authz.TenantFilter, q ListQuery) ([]Producto, int, error) {
	return s.repo.List(ctx, filter, q)
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id int64) (*Producto, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, p Producto) (Producto, error) {
	return s.repo.Create(ctx, p)
}

// Update rewrites an existing product.
func (s *Service) Update(ctx context.Context, p Producto) (Producto, error) {
	return s.repo.Update(ctx, p)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
