package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/memstore"
)

// BackendService serves the reference backend's catalog and report routes out
// of the in-memory stores. It exists so the storefront can run end to end
// against bakeryd without any external infrastructure.
type BackendService struct {
	products *memstore.ProductStore
	sales    *memstore.SalesStore
	logger   *zap.Logger
}

// NewBackendService creates the reference backend service.
func NewBackendService(products *memstore.ProductStore, sales *memstore.SalesStore, logger *zap.Logger) *BackendService {
	return &BackendService{
		products: products,
		sales:    sales,
		logger:   logger,
	}
}

// ListProducts returns the catalog, optionally filtered server-side with the
// same conjunctive semantics the storefront applies.
func (s *BackendService) ListProducts(ctx context.Context, category, search string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "BackendService.ListProducts")
	defer span.End()

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterProducts(products, category, search), nil
}

// GetProduct returns one product or ErrNotFound.
func (s *BackendService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "BackendService.GetProduct")
	defer span.End()

	return s.products.GetProduct(ctx, id)
}

// CreateProduct validates and stores a new product.
func (s *BackendService) CreateProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "BackendService.CreateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	created, err := s.products.AddProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
	)
	return created, nil
}

// UpdateProduct validates and replaces an existing product.
func (s *BackendService) UpdateProduct(ctx context.Context, id string, in *domain.NewProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "BackendService.UpdateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.products.UpdateProduct(ctx, id, in)
}

// PatchQuantity updates only the stock level.
func (s *BackendService) PatchQuantity(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "BackendService.PatchQuantity")
	defer span.End()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProductQuantity(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, id)
}

// DeleteProduct removes a product.
func (s *BackendService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "BackendService.DeleteProduct")
	defer span.End()

	return s.products.DeleteProduct(ctx, id)
}

// Categories returns the fixed category set.
func (s *BackendService) Categories(ctx context.Context) []string {
	return domain.Categories
}

// ListSales returns the sales history, newest first.
func (s *BackendService) ListSales(ctx context.Context) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "BackendService.ListSales")
	defer span.End()

	return s.sales.ListSales(ctx)
}

// TopProducts aggregates sales per product, ordered by revenue.
func (s *BackendService) TopProducts(ctx context.Context) ([]domain.TopProduct, error) {
	ctx, span := tracer.Start(ctx, "BackendService.TopProducts")
	defer span.End()

	sales, err := s.sales.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	agg := make(map[string]*domain.TopProduct)
	for _, sale := range sales {
		tp, ok := agg[sale.Product]
		if !ok {
			tp = &domain.TopProduct{Product: sale.Product}
			agg[sale.Product] = tp
		}
		tp.Sold++
		tp.Revenue += sale.Total
	}

	out := make([]domain.TopProduct, 0, len(agg))
	for _, tp := range agg {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	return out, nil
}

// Health is the /api/health payload.
func (s *BackendService) Health() domain.APIHealth {
	return domain.APIHealth{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
